package pipeline

import (
	"errors"
	"fmt"
)

// 错误分层：增强与召回错误可恢复（降级后继续）；
// 融合/重排错误视为程序错误向上传播；最外层 RetrieveAndRank
// 无条件吸收一切错误并返回空列表，检索失败不得阻塞聊天回复。
var (
	// ErrEnhancement 查询增强失败（可恢复，回退原始查询）
	ErrEnhancement = errors.New("query enhancement failed")
	// ErrRetrieval 某一来源/方式的召回失败（可恢复，该来源降级为空）
	ErrRetrieval = errors.New("retrieval failed")
	// ErrEmbeddingUnavailable 嵌入能力未配置
	ErrEmbeddingUnavailable = errors.New("embedding provider not configured")
	// ErrGeneratorUnavailable 文本生成能力未配置
	ErrGeneratorUnavailable = errors.New("text generator not configured")
)

// enhancementError 包装为可识别的增强错误
func enhancementError(step string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrEnhancement, step, err)
}

// retrievalError 包装为可识别的召回错误
func retrievalError(source Source, method Method, err error) error {
	return fmt.Errorf("%w: %s/%s: %v", ErrRetrieval, source, method, err)
}
