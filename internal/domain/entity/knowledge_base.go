package entity

import "time"

type KnowledgeBaseStatus string

const (
	KnowledgeBaseStatusActive   KnowledgeBaseStatus = "active"
	KnowledgeBaseStatusArchived KnowledgeBaseStatus = "archived"
)

type KnowledgeBase struct {
	ID          string              `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string              `json:"name" gorm:"type:varchar(255);not null"`
	Description string              `json:"description" gorm:"type:text"`
	Status      KnowledgeBaseStatus `json:"status" gorm:"type:varchar(16);not null;default:'active'"`
	CreatedAt   time.Time           `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time           `json:"updated_at" gorm:"autoUpdateTime"`
}

func (KnowledgeBase) TableName() string {
	return "knowledge_bases"
}

func NewKnowledgeBase(name, description string) *KnowledgeBase {
	now := time.Now()
	return &KnowledgeBase{
		Name:        name,
		Description: description,
		Status:      KnowledgeBaseStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
