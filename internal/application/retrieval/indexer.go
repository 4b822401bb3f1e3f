// Package retrieval 提供语料入库（切分、向量化、写入 Milvus）能力；
// 检索侧由 pipeline 包承担。
package retrieval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"inbox-rag-api/internal/application/pipeline"
	"inbox-rag-api/pkg/metrics"
)

const (
	defaultChunkSizeRunes    = 800
	defaultChunkOverlapRunes = 80
	defaultEmbeddingBatch    = 32

	corpusKB    = "kb"
	corpusEmail = "email"
)

type Indexer struct {
	embedder pipeline.Embedder
	vector   VectorIndex

	embeddingBatchSize int
	chunkSizeRunes     int
	chunkOverlapRunes  int
}

func NewIndexer(embedder pipeline.Embedder, vector VectorIndex, embeddingBatchSize int) *Indexer {
	bs := embeddingBatchSize
	if bs <= 0 {
		bs = defaultEmbeddingBatch
	}
	return &Indexer{
		embedder:           embedder,
		vector:             vector,
		embeddingBatchSize: bs,
		chunkSizeRunes:     defaultChunkSizeRunes,
		chunkOverlapRunes:  defaultChunkOverlapRunes,
	}
}

func (i *Indexer) Enabled() bool {
	return i != nil && i.embedder != nil && i.vector != nil
}

func (i *Indexer) ensureReady(ctx context.Context) error {
	if !i.Enabled() {
		return ErrVectorDisabled
	}
	return i.vector.EnsureCollections(ctx)
}

// IndexDocument 重建单个文档的全部分片：先删旧分片再写新分片。
// 返回写入的分片数。
func (i *Indexer) IndexDocument(ctx context.Context, knowledgeBaseID string, input DocumentInput) (int, error) {
	if strings.TrimSpace(knowledgeBaseID) == "" {
		return 0, fmt.Errorf("knowledge_base_id is required")
	}
	if strings.TrimSpace(input.DocumentID) == "" {
		return 0, fmt.Errorf("document_id is required")
	}
	if err := i.ensureReady(ctx); err != nil {
		return 0, err
	}

	start := time.Now()
	n, err := i.indexDocument(ctx, knowledgeBaseID, input)
	metrics.IndexDuration.WithLabelValues(corpusKB).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.IndexedChunksTotal.WithLabelValues(corpusKB, "error").Inc()
		return 0, err
	}
	metrics.IndexedChunksTotal.WithLabelValues(corpusKB, "ok").Add(float64(n))
	return n, nil
}

func (i *Indexer) indexDocument(ctx context.Context, knowledgeBaseID string, input DocumentInput) (int, error) {
	if err := i.vector.DeleteChunksByDocument(ctx, knowledgeBaseID, input.DocumentID); err != nil {
		return 0, err
	}

	content := strings.TrimSpace(input.Content)
	if content == "" {
		// 空正文不写索引；但先执行删除以避免旧分片残留。
		return 0, nil
	}

	chunks := splitByRunes(content, i.chunkSizeRunes, i.chunkOverlapRunes)
	if len(chunks) == 0 {
		return 0, nil
	}

	fileName := strings.TrimSpace(input.FileName)
	embedInputs := make([]string, 0, len(chunks))
	records := make([]*ChunkRecord, 0, len(chunks))
	for idx, chunk := range chunks {
		text := strings.TrimSpace(chunk)

		embedText := text
		if fileName != "" {
			embedText = "文档：" + fileName + "\n" + text
		}

		embedInputs = append(embedInputs, embedText)
		records = append(records, &ChunkRecord{
			ID:          uuid.NewString(),
			DocumentID:  input.DocumentID,
			FileName:    fileName,
			ChunkIndex:  idx,
			TextContent: text,
		})
	}

	vectors, err := i.embedBatch(ctx, embedInputs)
	if err != nil {
		return 0, err
	}
	for idx := range records {
		records[idx].Vector = vectors[idx]
	}

	if err := i.vector.InsertChunks(ctx, knowledgeBaseID, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

// IndexEmails 批量写入邮件语料，每封邮件作为单条记录（不切分）。
// 返回写入的邮件数。
func (i *Indexer) IndexEmails(ctx context.Context, knowledgeBaseID string, inputs []EmailInput) (int, error) {
	if strings.TrimSpace(knowledgeBaseID) == "" {
		return 0, fmt.Errorf("knowledge_base_id is required")
	}
	if err := i.ensureReady(ctx); err != nil {
		return 0, err
	}

	start := time.Now()
	n, err := i.indexEmails(ctx, knowledgeBaseID, inputs)
	metrics.IndexDuration.WithLabelValues(corpusEmail).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.IndexedChunksTotal.WithLabelValues(corpusEmail, "error").Inc()
		return 0, err
	}
	metrics.IndexedChunksTotal.WithLabelValues(corpusEmail, "ok").Add(float64(n))
	return n, nil
}

func (i *Indexer) indexEmails(ctx context.Context, knowledgeBaseID string, inputs []EmailInput) (int, error) {
	embedInputs := make([]string, 0, len(inputs))
	records := make([]*EmailRecord, 0, len(inputs))
	for _, in := range inputs {
		body := strings.TrimSpace(in.Body)
		subject := strings.TrimSpace(in.Subject)
		if body == "" && subject == "" {
			continue
		}
		if strings.TrimSpace(in.MessageID) == "" {
			return 0, fmt.Errorf("message_id is required")
		}

		text := body
		embedText := body
		if subject != "" {
			embedText = "主题：" + subject + "\n" + body
		}

		var sentAt int64
		if !in.SentAt.IsZero() {
			sentAt = in.SentAt.Unix()
		}

		embedInputs = append(embedInputs, embedText)
		records = append(records, &EmailRecord{
			ID:          uuid.NewString(),
			MessageID:   in.MessageID,
			Subject:     subject,
			Sender:      strings.TrimSpace(in.Sender),
			SentAt:      sentAt,
			TextContent: text,
		})
	}
	if len(records) == 0 {
		return 0, nil
	}

	vectors, err := i.embedBatch(ctx, embedInputs)
	if err != nil {
		return 0, err
	}
	for idx := range records {
		records[idx].Vector = vectors[idx]
	}

	if err := i.vector.InsertEmails(ctx, knowledgeBaseID, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

func (i *Indexer) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if i == nil || i.embedder == nil {
		return nil, ErrVectorDisabled
	}
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += i.embeddingBatchSize {
		end := start + i.embeddingBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := i.embedder.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		if len(vectors) != end-start {
			return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), end-start)
		}
		out = append(out, vectors...)
	}
	return out, nil
}
