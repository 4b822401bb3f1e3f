package retrieval

import "errors"

var (
	// ErrVectorDisabled 表示向量索引能力未配置（Milvus 或 Embedder 不可用）。
	ErrVectorDisabled = errors.New("vector indexing is disabled")
)
