package entity

import (
	"encoding/json"
	"time"
)

// RAGConfigRecord 知识库级别的检索配置覆盖，settings 以 JSON 形式存储，
// 缺省字段在解析时回落到全局默认值。
type RAGConfigRecord struct {
	ID              string          `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	KnowledgeBaseID string          `json:"knowledge_base_id" gorm:"type:uuid;uniqueIndex;not null"`
	Settings        json.RawMessage `json:"settings" gorm:"type:jsonb;not null"`
	Version         int             `json:"version" gorm:"not null;default:1"`
	CreatedAt       time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

func (RAGConfigRecord) TableName() string {
	return "rag_configs"
}

func NewRAGConfigRecord(knowledgeBaseID string, settings json.RawMessage) *RAGConfigRecord {
	now := time.Now()
	return &RAGConfigRecord{
		KnowledgeBaseID: knowledgeBaseID,
		Settings:        settings,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
