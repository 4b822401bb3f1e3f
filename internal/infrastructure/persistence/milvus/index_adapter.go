package milvus

import (
	"context"

	"inbox-rag-api/internal/application/retrieval"
)

// IndexAdapter 把 Milvus Repository 适配为索引服务的 VectorIndex 端口
type IndexAdapter struct {
	repo *Repository
}

func NewIndexAdapter(repo *Repository) *IndexAdapter {
	return &IndexAdapter{repo: repo}
}

var _ retrieval.VectorIndex = (*IndexAdapter)(nil)

func (a *IndexAdapter) EnsureCollections(ctx context.Context) error {
	return a.repo.EnsureCollections(ctx)
}

func (a *IndexAdapter) InsertChunks(ctx context.Context, knowledgeBaseID string, chunks []*retrieval.ChunkRecord) error {
	out := make([]*KBChunk, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, &KBChunk{
			ID:              c.ID,
			Vector:          c.Vector,
			KnowledgeBaseID: knowledgeBaseID,
			DocumentID:      c.DocumentID,
			FileName:        c.FileName,
			ChunkIndex:      int64(c.ChunkIndex),
			TextContent:     c.TextContent,
		})
	}
	return a.repo.InsertChunks(ctx, knowledgeBaseID, out)
}

func (a *IndexAdapter) InsertEmails(ctx context.Context, knowledgeBaseID string, emails []*retrieval.EmailRecord) error {
	out := make([]*EmailMessage, 0, len(emails))
	for _, e := range emails {
		out = append(out, &EmailMessage{
			ID:              e.ID,
			Vector:          e.Vector,
			KnowledgeBaseID: knowledgeBaseID,
			MessageID:       e.MessageID,
			Subject:         e.Subject,
			Sender:          e.Sender,
			SentAt:          e.SentAt,
			TextContent:     e.TextContent,
		})
	}
	return a.repo.InsertEmails(ctx, knowledgeBaseID, out)
}

func (a *IndexAdapter) DeleteChunksByDocument(ctx context.Context, knowledgeBaseID, documentID string) error {
	return a.repo.DeleteChunksByDocument(ctx, knowledgeBaseID, documentID)
}
