// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"inbox-rag-api/internal/domain/entity"
	"inbox-rag-api/internal/domain/repository"
)

type KnowledgeBaseRepository struct {
	client *Client
}

func NewKnowledgeBaseRepository(client *Client) *KnowledgeBaseRepository {
	return &KnowledgeBaseRepository{client: client}
}

func (r *KnowledgeBaseRepository) Create(ctx context.Context, kb *entity.KnowledgeBase) error {
	ctx, span := tracer.Start(ctx, "postgres.KnowledgeBaseRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(kb).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create knowledge base: %w", err)
	}
	return nil
}

func (r *KnowledgeBaseRepository) GetByID(ctx context.Context, id string) (*entity.KnowledgeBase, error) {
	ctx, span := tracer.Start(ctx, "postgres.KnowledgeBaseRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var kb entity.KnowledgeBase
	if err := db.First(&kb, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get knowledge base: %w", err)
	}
	return &kb, nil
}

func (r *KnowledgeBaseRepository) Update(ctx context.Context, kb *entity.KnowledgeBase) error {
	ctx, span := tracer.Start(ctx, "postgres.KnowledgeBaseRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(kb).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update knowledge base: %w", err)
	}
	return nil
}

func (r *KnowledgeBaseRepository) List(ctx context.Context, pagination repository.Pagination) (*repository.PagedResult[*entity.KnowledgeBase], error) {
	ctx, span := tracer.Start(ctx, "postgres.KnowledgeBaseRepository.List")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.KnowledgeBase{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count knowledge bases: %w", err)
	}

	var kbs []*entity.KnowledgeBase
	if err := query.Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&kbs).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list knowledge bases: %w", err)
	}

	return repository.NewPagedResult(kbs, total, pagination), nil
}
