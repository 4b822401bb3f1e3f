// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"encoding/json"
	"time"

	"inbox-rag-api/internal/domain/entity"
)

type CreateSessionRequest struct {
	KnowledgeBaseID string `json:"knowledge_base_id" binding:"required"`
	UserID          string `json:"user_id,omitempty"`
	Title           string `json:"title,omitempty" binding:"max=255"`
}

type SessionResponse struct {
	ID              string `json:"id"`
	KnowledgeBaseID string `json:"knowledge_base_id"`
	UserID          string `json:"user_id,omitempty"`
	Title           string `json:"title,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

func ToSessionResponse(s *entity.ConversationSession) *SessionResponse {
	if s == nil {
		return nil
	}
	return &SessionResponse{
		ID:              s.ID,
		KnowledgeBaseID: s.KnowledgeBaseID,
		UserID:          s.UserID,
		Title:           s.Title,
		CreatedAt:       s.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       s.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

type SessionListResponse struct {
	Sessions []*SessionResponse `json:"sessions"`
}

type AppendTurnRequest struct {
	Role     string          `json:"role" binding:"required"`
	Content  string          `json:"content" binding:"required"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

type TurnResponse struct {
	ID        string          `json:"id"`
	Role      string          `json:"role"`
	Content   string          `json:"content"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt string          `json:"created_at"`
}

func ToTurnResponse(t *entity.ConversationTurn) *TurnResponse {
	if t == nil {
		return nil
	}
	return &TurnResponse{
		ID:        t.ID,
		Role:      string(t.Role),
		Content:   t.Content,
		Metadata:  t.Metadata,
		CreatedAt: t.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type TurnListResponse struct {
	Turns []*TurnResponse `json:"turns"`
}
