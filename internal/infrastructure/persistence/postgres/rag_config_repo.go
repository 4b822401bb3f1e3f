// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"inbox-rag-api/internal/domain/entity"
)

type RAGConfigRepository struct {
	client *Client
}

func NewRAGConfigRepository(client *Client) *RAGConfigRepository {
	return &RAGConfigRepository{client: client}
}

func (r *RAGConfigRepository) GetByKnowledgeBase(ctx context.Context, knowledgeBaseID string) (*entity.RAGConfigRecord, error) {
	ctx, span := tracer.Start(ctx, "postgres.RAGConfigRepository.GetByKnowledgeBase")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var record entity.RAGConfigRecord
	if err := db.First(&record, "knowledge_base_id = ?", knowledgeBaseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get rag config: %w", err)
	}
	return &record, nil
}

func (r *RAGConfigRepository) Upsert(ctx context.Context, record *entity.RAGConfigRecord) error {
	ctx, span := tracer.Start(ctx, "postgres.RAGConfigRepository.Upsert")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "knowledge_base_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"settings":   record.Settings,
			"version":    gorm.Expr("rag_configs.version + 1"),
			"updated_at": gorm.Expr("now()"),
		}),
	}).Create(record).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to upsert rag config: %w", err)
	}
	return nil
}

func (r *RAGConfigRepository) Delete(ctx context.Context, knowledgeBaseID string) error {
	ctx, span := tracer.Start(ctx, "postgres.RAGConfigRepository.Delete")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Where("knowledge_base_id = ?", knowledgeBaseID).
		Delete(&entity.RAGConfigRecord{}).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete rag config: %w", err)
	}
	return nil
}
