// Package entity 定义领域实体
package entity

import (
	"encoding/json"
	"time"
)

type ConversationSession struct {
	ID              string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	KnowledgeBaseID string    `json:"knowledge_base_id" gorm:"type:uuid;index;not null"`
	UserID          string    `json:"user_id" gorm:"type:varchar(64);index"`
	Title           string    `json:"title" gorm:"type:varchar(255)"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (ConversationSession) TableName() string {
	return "conversation_sessions"
}

func NewConversationSession(knowledgeBaseID, userID, title string) *ConversationSession {
	now := time.Now()
	return &ConversationSession{
		KnowledgeBaseID: knowledgeBaseID,
		UserID:          userID,
		Title:           title,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

type ConversationTurn struct {
	ID        string          `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionID string          `json:"session_id" gorm:"type:uuid;index;not null"`
	Role      Role            `json:"role" gorm:"type:varchar(16);not null"`
	Content   string          `json:"content" gorm:"type:text;not null"`
	Metadata  json.RawMessage `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt time.Time       `json:"created_at" gorm:"autoCreateTime"`
}

func (ConversationTurn) TableName() string {
	return "conversation_turns"
}

func NewConversationTurn(sessionID string, role Role, content string, metadata json.RawMessage) *ConversationTurn {
	return &ConversationTurn{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}
}
