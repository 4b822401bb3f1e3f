// Package milvus 提供 Milvus 向量数据库访问层实现
package milvus

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"inbox-rag-api/pkg/metrics"
)

// Repository 向量检索仓储
type Repository struct {
	client *Client
}

// NewRepository 创建向量检索仓储
func NewRepository(client *Client) *Repository {
	return &Repository{client: client}
}

// SearchParams 检索参数
type SearchParams struct {
	KnowledgeBaseID string
	QueryVector     []float32
	TopK            int
	// ScoreThreshold 引擎侧相似度下限提示；<= 0 时不下推
	ScoreThreshold float64
}

// ChunkResult 知识库分块检索结果
type ChunkResult struct {
	ID          string
	Score       float32
	DocumentID  string
	FileName    string
	TextContent string
}

// EmailResult 邮件检索结果
type EmailResult struct {
	ID          string
	Score       float32
	MessageID   string
	Subject     string
	Sender      string
	SentAt      int64
	TextContent string
}

// CreateCollection 创建集合
func (r *Repository) CreateCollection(ctx context.Context, schema *entity.Schema) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.CreateCollection",
		trace.WithAttributes(attribute.String("collection", schema.CollectionName)))
	defer span.End()

	collName := r.client.CollectionName(schema.CollectionName)
	schema.CollectionName = collName

	err := r.client.milvus.CreateCollection(ctx, schema, entity.DefaultShardNumber)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create collection: %w", err)
	}

	return nil
}

// CreateIndex 创建 HNSW 索引
func (r *Repository) CreateIndex(ctx context.Context, collection string) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.CreateIndex",
		trace.WithAttributes(attribute.String("collection", collection)))
	defer span.End()

	collName := r.client.CollectionName(collection)

	idx, err := entity.NewIndexHNSW(
		entity.COSINE,
		r.client.config.HNSWM,
		r.client.config.HNSWEfConstruction,
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create index: %w", err)
	}

	err = r.client.milvus.CreateIndex(ctx, collName, "vector", idx, false)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create index: %w", err)
	}

	return nil
}

// CreatePartition 创建知识库分区
func (r *Repository) CreatePartition(ctx context.Context, collection, knowledgeBaseID string) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.CreatePartition",
		trace.WithAttributes(
			attribute.String("collection", collection),
			attribute.String("partition", PartitionName(knowledgeBaseID)),
		))
	defer span.End()

	collName := r.client.CollectionName(collection)
	partitionName := PartitionName(knowledgeBaseID)

	return r.client.milvus.CreatePartition(ctx, collName, partitionName)
}

// SearchChunks 检索知识库分块
func (r *Repository) SearchChunks(ctx context.Context, params *SearchParams) ([]*ChunkResult, error) {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return nil, fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.SearchChunks",
		trace.WithAttributes(
			attribute.String("knowledge_base_id", params.KnowledgeBaseID),
			attribute.Int("top_k", params.TopK),
		))
	defer span.End()

	results, err := r.search(ctx, CollectionKBChunks, params,
		[]string{"id", "text_content", "document_id", "file_name"})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var out []*ChunkResult
	for _, result := range results {
		for i := 0; i < result.ResultCount; i++ {
			cr := &ChunkResult{Score: result.Scores[i]}
			if col, ok := result.Fields.GetColumn("id").(*entity.ColumnVarChar); ok {
				cr.ID = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn("text_content").(*entity.ColumnVarChar); ok {
				cr.TextContent = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn("document_id").(*entity.ColumnVarChar); ok {
				cr.DocumentID = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn("file_name").(*entity.ColumnVarChar); ok {
				cr.FileName = col.Data()[i]
			}
			out = append(out, cr)
		}
	}

	span.SetAttributes(attribute.Int("result_count", len(out)))
	return out, nil
}

// SearchEmails 检索邮件消息
func (r *Repository) SearchEmails(ctx context.Context, params *SearchParams) ([]*EmailResult, error) {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return nil, fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.SearchEmails",
		trace.WithAttributes(
			attribute.String("knowledge_base_id", params.KnowledgeBaseID),
			attribute.Int("top_k", params.TopK),
		))
	defer span.End()

	results, err := r.search(ctx, CollectionEmailMessages, params,
		[]string{"id", "text_content", "message_id", "subject", "sender", "sent_at"})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var out []*EmailResult
	for _, result := range results {
		for i := 0; i < result.ResultCount; i++ {
			er := &EmailResult{Score: result.Scores[i]}
			if col, ok := result.Fields.GetColumn("id").(*entity.ColumnVarChar); ok {
				er.ID = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn("text_content").(*entity.ColumnVarChar); ok {
				er.TextContent = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn("message_id").(*entity.ColumnVarChar); ok {
				er.MessageID = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn("subject").(*entity.ColumnVarChar); ok {
				er.Subject = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn("sender").(*entity.ColumnVarChar); ok {
				er.Sender = col.Data()[i]
			}
			if col, ok := result.Fields.GetColumn("sent_at").(*entity.ColumnInt64); ok {
				er.SentAt = col.Data()[i]
			}
			out = append(out, er)
		}
	}

	span.SetAttributes(attribute.Int("result_count", len(out)))
	return out, nil
}

// search 在单个集合的知识库分区内执行向量检索。
// 分区尚未创建（如新知识库）时直接返回空结果，避免 Milvus 报 partition not found。
func (r *Repository) search(ctx context.Context, collection string, params *SearchParams, outputFields []string) ([]client.SearchResult, error) {
	collName := r.client.CollectionName(collection)
	partitionName := PartitionName(params.KnowledgeBaseID)

	start := time.Now()
	status := "ok"
	defer func() {
		metrics.MilvusSearchDuration.WithLabelValues(collection).Observe(time.Since(start).Seconds())
		metrics.MilvusSearchTotal.WithLabelValues(collection, status).Inc()
	}()

	if has, err := r.client.milvus.HasPartition(ctx, collName, partitionName); err != nil {
		status = "error"
		return nil, fmt.Errorf("failed to check partition: %w", err)
	} else if !has {
		return nil, nil
	}

	filter := fmt.Sprintf(`knowledge_base_id == "%s"`, params.KnowledgeBaseID)

	sp, err := entity.NewIndexHNSWSearchParam(128)
	if err != nil {
		status = "error"
		return nil, fmt.Errorf("failed to create search param: %w", err)
	}
	if params.ScoreThreshold > 0 {
		// radius 下推相似度下限；阈值过滤阶段仍会对融合分数兜底
		sp.AddRadius(params.ScoreThreshold)
	}

	results, err := r.client.milvus.Search(ctx,
		collName,
		[]string{partitionName},
		filter,
		outputFields,
		[]entity.Vector{entity.FloatVector(params.QueryVector)},
		"vector",
		entity.COSINE,
		params.TopK,
		sp,
	)
	if err != nil {
		status = "error"
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	return results, nil
}

// FetchChunks 以标量查询拉取知识库分区内的分块文本（关键词召回用）。
// 分区不存在时返回空结果。
func (r *Repository) FetchChunks(ctx context.Context, knowledgeBaseID string, limit int) ([]*ChunkResult, error) {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return nil, fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.FetchChunks",
		trace.WithAttributes(attribute.String("knowledge_base_id", knowledgeBaseID)))
	defer span.End()

	rs, err := r.query(ctx, CollectionKBChunks, knowledgeBaseID, limit,
		[]string{"id", "text_content", "document_id", "file_name"})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if rs == nil {
		return nil, nil
	}

	ids := varCharData(rs.GetColumn("id"))
	texts := varCharData(rs.GetColumn("text_content"))
	docIDs := varCharData(rs.GetColumn("document_id"))
	fileNames := varCharData(rs.GetColumn("file_name"))

	out := make([]*ChunkResult, 0, len(ids))
	for i := range ids {
		cr := &ChunkResult{ID: ids[i]}
		if i < len(texts) {
			cr.TextContent = texts[i]
		}
		if i < len(docIDs) {
			cr.DocumentID = docIDs[i]
		}
		if i < len(fileNames) {
			cr.FileName = fileNames[i]
		}
		out = append(out, cr)
	}
	span.SetAttributes(attribute.Int("result_count", len(out)))
	return out, nil
}

// FetchEmails 以标量查询拉取知识库分区内的邮件文本（关键词召回用）
func (r *Repository) FetchEmails(ctx context.Context, knowledgeBaseID string, limit int) ([]*EmailResult, error) {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return nil, fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.FetchEmails",
		trace.WithAttributes(attribute.String("knowledge_base_id", knowledgeBaseID)))
	defer span.End()

	rs, err := r.query(ctx, CollectionEmailMessages, knowledgeBaseID, limit,
		[]string{"id", "text_content", "message_id", "subject", "sender", "sent_at"})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if rs == nil {
		return nil, nil
	}

	ids := varCharData(rs.GetColumn("id"))
	texts := varCharData(rs.GetColumn("text_content"))
	messageIDs := varCharData(rs.GetColumn("message_id"))
	subjects := varCharData(rs.GetColumn("subject"))
	senders := varCharData(rs.GetColumn("sender"))
	sentAts := int64Data(rs.GetColumn("sent_at"))

	out := make([]*EmailResult, 0, len(ids))
	for i := range ids {
		er := &EmailResult{ID: ids[i]}
		if i < len(texts) {
			er.TextContent = texts[i]
		}
		if i < len(messageIDs) {
			er.MessageID = messageIDs[i]
		}
		if i < len(subjects) {
			er.Subject = subjects[i]
		}
		if i < len(senders) {
			er.Sender = senders[i]
		}
		if i < len(sentAts) {
			er.SentAt = sentAts[i]
		}
		out = append(out, er)
	}
	span.SetAttributes(attribute.Int("result_count", len(out)))
	return out, nil
}

func (r *Repository) query(ctx context.Context, collection, knowledgeBaseID string, limit int, outputFields []string) (client.ResultSet, error) {
	collName := r.client.CollectionName(collection)
	partitionName := PartitionName(knowledgeBaseID)

	if has, err := r.client.milvus.HasPartition(ctx, collName, partitionName); err != nil {
		return nil, fmt.Errorf("failed to check partition: %w", err)
	} else if !has {
		return nil, nil
	}

	filter := fmt.Sprintf(`knowledge_base_id == "%s"`, knowledgeBaseID)
	rs, err := r.client.milvus.Query(ctx, collName, []string{partitionName}, filter, outputFields,
		client.WithLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	return rs, nil
}

func varCharData(col entity.Column) []string {
	if c, ok := col.(*entity.ColumnVarChar); ok {
		return c.Data()
	}
	return nil
}

func int64Data(col entity.Column) []int64 {
	if c, ok := col.(*entity.ColumnInt64); ok {
		return c.Data()
	}
	return nil
}

// InsertChunks 插入知识库分块
func (r *Repository) InsertChunks(ctx context.Context, knowledgeBaseID string, chunks []*KBChunk) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.InsertChunks",
		trace.WithAttributes(
			attribute.String("knowledge_base_id", knowledgeBaseID),
			attribute.Int("count", len(chunks)),
		))
	defer span.End()

	if len(chunks) == 0 {
		return nil
	}

	collName := r.client.CollectionName(CollectionKBChunks)
	partitionName := PartitionName(knowledgeBaseID)

	// 确保分区存在
	has, _ := r.client.milvus.HasPartition(ctx, collName, partitionName)
	if !has {
		if err := r.CreatePartition(ctx, CollectionKBChunks, knowledgeBaseID); err != nil {
			return err
		}
	}

	ids := make([]string, len(chunks))
	vectors := make([][]float32, len(chunks))
	kbIDs := make([]string, len(chunks))
	documentIDs := make([]string, len(chunks))
	fileNames := make([]string, len(chunks))
	chunkIndexes := make([]int64, len(chunks))
	textContents := make([]string, len(chunks))

	for i, c := range chunks {
		ids[i] = c.ID
		vectors[i] = c.Vector
		kbIDs[i] = c.KnowledgeBaseID
		documentIDs[i] = c.DocumentID
		fileNames[i] = c.FileName
		chunkIndexes[i] = c.ChunkIndex
		textContents[i] = c.TextContent
	}

	_, err := r.client.milvus.Insert(ctx, collName, partitionName,
		entity.NewColumnVarChar("id", ids),
		entity.NewColumnFloatVector("vector", VectorDimension, vectors),
		entity.NewColumnVarChar("knowledge_base_id", kbIDs),
		entity.NewColumnVarChar("document_id", documentIDs),
		entity.NewColumnVarChar("file_name", fileNames),
		entity.NewColumnInt64("chunk_index", chunkIndexes),
		entity.NewColumnVarChar("text_content", textContents),
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to insert chunks: %w", err)
	}

	return nil
}

// InsertEmails 插入邮件消息
func (r *Repository) InsertEmails(ctx context.Context, knowledgeBaseID string, emails []*EmailMessage) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.InsertEmails",
		trace.WithAttributes(
			attribute.String("knowledge_base_id", knowledgeBaseID),
			attribute.Int("count", len(emails)),
		))
	defer span.End()

	if len(emails) == 0 {
		return nil
	}

	collName := r.client.CollectionName(CollectionEmailMessages)
	partitionName := PartitionName(knowledgeBaseID)

	has, _ := r.client.milvus.HasPartition(ctx, collName, partitionName)
	if !has {
		if err := r.CreatePartition(ctx, CollectionEmailMessages, knowledgeBaseID); err != nil {
			return err
		}
	}

	ids := make([]string, len(emails))
	vectors := make([][]float32, len(emails))
	kbIDs := make([]string, len(emails))
	messageIDs := make([]string, len(emails))
	subjects := make([]string, len(emails))
	senders := make([]string, len(emails))
	sentAts := make([]int64, len(emails))
	textContents := make([]string, len(emails))

	for i, e := range emails {
		ids[i] = e.ID
		vectors[i] = e.Vector
		kbIDs[i] = e.KnowledgeBaseID
		messageIDs[i] = e.MessageID
		subjects[i] = e.Subject
		senders[i] = e.Sender
		sentAts[i] = e.SentAt
		textContents[i] = e.TextContent
	}

	_, err := r.client.milvus.Insert(ctx, collName, partitionName,
		entity.NewColumnVarChar("id", ids),
		entity.NewColumnFloatVector("vector", VectorDimension, vectors),
		entity.NewColumnVarChar("knowledge_base_id", kbIDs),
		entity.NewColumnVarChar("message_id", messageIDs),
		entity.NewColumnVarChar("subject", subjects),
		entity.NewColumnVarChar("sender", senders),
		entity.NewColumnInt64("sent_at", sentAts),
		entity.NewColumnVarChar("text_content", textContents),
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to insert emails: %w", err)
	}

	return nil
}

// DeleteChunksByDocument 删除文档的所有分块
func (r *Repository) DeleteChunksByDocument(ctx context.Context, knowledgeBaseID, documentID string) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		return nil
	}

	ctx, span := tracer.Start(ctx, "milvus.DeleteChunksByDocument",
		trace.WithAttributes(attribute.String("document_id", documentID)))
	defer span.End()

	collName := r.client.CollectionName(CollectionKBChunks)
	partitionName := PartitionName(knowledgeBaseID)

	if has, err := r.client.milvus.HasPartition(ctx, collName, partitionName); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to check partition: %w", err)
	} else if !has {
		return nil
	}

	filter := fmt.Sprintf(`document_id == "%s"`, documentID)
	if err := r.client.milvus.Delete(ctx, collName, partitionName, filter); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	return nil
}

// EnsureCollections 确保两个检索集合与索引可用（不存在则创建）。
// 约束：不会做 drop/rebuild 等破坏性操作。
func (r *Repository) EnsureCollections(ctx context.Context) error {
	if r == nil || r.client == nil || r.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}

	for _, schema := range []*entity.Schema{KBChunksSchema(), EmailMessagesSchema()} {
		name := schema.CollectionName
		exists, err := r.client.HasCollection(ctx, name)
		if err != nil {
			return err
		}
		if !exists {
			if err := r.CreateCollection(ctx, schema); err != nil {
				return err
			}
			// 新建集合时创建索引；若失败，允许后续由运维介入。
			_ = r.CreateIndex(ctx, name)
		}

		// 尝试确保集合已加载（若已加载，Milvus 会返回成功）
		if err := r.client.LoadCollection(ctx, name); err != nil {
			return err
		}
	}
	return nil
}
