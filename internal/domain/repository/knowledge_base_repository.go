package repository

import (
	"context"

	"inbox-rag-api/internal/domain/entity"
)

type KnowledgeBaseRepository interface {
	Create(ctx context.Context, kb *entity.KnowledgeBase) error
	GetByID(ctx context.Context, id string) (*entity.KnowledgeBase, error)
	Update(ctx context.Context, kb *entity.KnowledgeBase) error
	List(ctx context.Context, pagination Pagination) (*PagedResult[*entity.KnowledgeBase], error)
}
