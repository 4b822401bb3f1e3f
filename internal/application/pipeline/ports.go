package pipeline

import "context"

// 流水线对外部能力的最小依赖（port），由基础设施层提供实现。

// Embedder 文本向量化能力
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorSearch 按语料库的向量近邻检索；threshold 作为检索引擎自身的
// 相似度下限提示（不支持时实现方可忽略，阈值过滤阶段仍会兜底）。
type VectorSearch interface {
	Search(ctx context.Context, corpus Source, vector []float32, limit int, threshold float64) ([]Candidate, error)
}

// KeywordSearch 按语料库的关键词（BM25）检索，仅混合检索启用时使用
type KeywordSearch interface {
	Search(ctx context.Context, corpus Source, query string, limit int) ([]Candidate, error)
}

// TextGenerator 文本生成能力，仅查询增强使用
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, temperature float32, maxTokens int) (string, error)
}
