// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"inbox-rag-api/internal/domain/entity"
	"inbox-rag-api/internal/domain/repository"
)

type DocumentRepository struct {
	client *Client
}

func NewDocumentRepository(client *Client) *DocumentRepository {
	return &DocumentRepository{client: client}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *entity.Document) error {
	ctx, span := tracer.Start(ctx, "postgres.DocumentRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(doc).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*entity.Document, error) {
	ctx, span := tracer.Start(ctx, "postgres.DocumentRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var doc entity.Document
	if err := db.First(&doc, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status entity.DocumentStatus, chunkCount int) error {
	ctx, span := tracer.Start(ctx, "postgres.DocumentRepository.UpdateStatus")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Model(&entity.Document{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      status,
			"chunk_count": chunkCount,
		}).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update document status: %w", err)
	}
	return nil
}

func (r *DocumentRepository) ListByKnowledgeBase(ctx context.Context, knowledgeBaseID string, pagination repository.Pagination) (*repository.PagedResult[*entity.Document], error) {
	ctx, span := tracer.Start(ctx, "postgres.DocumentRepository.ListByKnowledgeBase")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.Document{}).Where("knowledge_base_id = ?", knowledgeBaseID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}

	var docs []*entity.Document
	if err := query.Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&docs).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	return repository.NewPagedResult(docs, total, pagination), nil
}

func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "postgres.DocumentRepository.Delete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Delete(&entity.Document{}, "id = ?", id).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}
