package repository

import (
	"context"

	"inbox-rag-api/internal/domain/entity"
)

type RAGConfigRepository interface {
	GetByKnowledgeBase(ctx context.Context, knowledgeBaseID string) (*entity.RAGConfigRecord, error)
	// Upsert 按 knowledge_base_id 创建或覆盖配置，已存在时递增版本号
	Upsert(ctx context.Context, record *entity.RAGConfigRecord) error
	Delete(ctx context.Context, knowledgeBaseID string) error
}
