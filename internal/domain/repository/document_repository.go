package repository

import (
	"context"

	"inbox-rag-api/internal/domain/entity"
)

type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	GetByID(ctx context.Context, id string) (*entity.Document, error)
	UpdateStatus(ctx context.Context, id string, status entity.DocumentStatus, chunkCount int) error
	ListByKnowledgeBase(ctx context.Context, knowledgeBaseID string, pagination Pagination) (*PagedResult[*entity.Document], error)
	Delete(ctx context.Context, id string) error
}
