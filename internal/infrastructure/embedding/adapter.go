package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/embedding"

	"inbox-rag-api/internal/application/pipeline"
	"inbox-rag-api/pkg/metrics"
)

// PipelineEmbedder 把 Eino Embedder 适配为检索流水线的 Embedder 端口，
// 并完成 float64 -> float32 的向量转换（Milvus 使用 float32）。
type PipelineEmbedder struct {
	embedder embedding.Embedder
	provider string
	model    string
}

// NewPipelineEmbedder 创建流水线嵌入适配器
func NewPipelineEmbedder(embedder embedding.Embedder, provider, model string) *PipelineEmbedder {
	return &PipelineEmbedder{
		embedder: embedder,
		provider: provider,
		model:    model,
	}
}

var _ pipeline.Embedder = (*PipelineEmbedder)(nil)

// Embed 向量化单条文本
func (e *PipelineEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedder returned no vector")
	}
	return vectors[0], nil
}

// EmbedBatch 批量向量化
func (e *PipelineEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if e == nil || e.embedder == nil {
		return nil, fmt.Errorf("embedder not configured")
	}
	if len(texts) == 0 {
		return nil, nil
	}

	start := time.Now()
	vectors, err := e.embedder.EmbedStrings(ctx, texts)
	metrics.EmbeddingDuration.WithLabelValues(e.provider, e.model).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.EmbeddingTotal.WithLabelValues(e.provider, e.model, "error").Inc()
		return nil, fmt.Errorf("embedding failed: %w", err)
	}
	metrics.EmbeddingTotal.WithLabelValues(e.provider, e.model, "ok").Inc()

	out := make([][]float32, len(vectors))
	for i, vec := range vectors {
		out[i] = make([]float32, len(vec))
		for j, v := range vec {
			out[i][j] = float32(v)
		}
	}
	return out, nil
}
