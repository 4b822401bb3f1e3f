package retrieval

import "context"

// VectorIndex 定义索引侧对向量存储的最小依赖（port），
// 由基础设施层提供具体实现（Milvus）。
type VectorIndex interface {
	EnsureCollections(ctx context.Context) error
	InsertChunks(ctx context.Context, knowledgeBaseID string, chunks []*ChunkRecord) error
	InsertEmails(ctx context.Context, knowledgeBaseID string, emails []*EmailRecord) error
	DeleteChunksByDocument(ctx context.Context, knowledgeBaseID, documentID string) error
}

// ChunkRecord 待写入知识库语料的单个分片
type ChunkRecord struct {
	ID          string
	DocumentID  string
	FileName    string
	ChunkIndex  int
	TextContent string
	Vector      []float32
}

// EmailRecord 待写入邮件语料的单封邮件
type EmailRecord struct {
	ID          string
	MessageID   string
	Subject     string
	Sender      string
	SentAt      int64
	TextContent string
	Vector      []float32
}
