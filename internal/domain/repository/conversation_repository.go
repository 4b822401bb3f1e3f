// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"inbox-rag-api/internal/domain/entity"
)

type ConversationSessionRepository interface {
	Create(ctx context.Context, session *entity.ConversationSession) error
	GetByID(ctx context.Context, id string) (*entity.ConversationSession, error)
	GetByIDForUpdate(ctx context.Context, id string) (*entity.ConversationSession, error)
	Update(ctx context.Context, session *entity.ConversationSession) error
	ListByKnowledgeBase(ctx context.Context, knowledgeBaseID string, pagination Pagination) (*PagedResult[*entity.ConversationSession], error)
}

type ConversationTurnRepository interface {
	Create(ctx context.Context, turn *entity.ConversationTurn) error
	ListBySession(ctx context.Context, sessionID string, pagination Pagination) (*PagedResult[*entity.ConversationTurn], error)
	// ListRecentBySession 返回最近 limit 条轮次，按时间正序，用于查询增强的上下文注入
	ListRecentBySession(ctx context.Context, sessionID string, limit int) ([]*entity.ConversationTurn, error)
}
