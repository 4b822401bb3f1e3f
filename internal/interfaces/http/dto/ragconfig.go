package dto

import (
	"encoding/json"
	"time"

	"inbox-rag-api/internal/application/pipeline"
	"inbox-rag-api/internal/domain/entity"
)

// RAGConfigResponse 知识库检索配置
type RAGConfigResponse struct {
	KnowledgeBaseID string          `json:"knowledge_base_id"`
	Settings        json.RawMessage `json:"settings"`
	Version         int             `json:"version"`
	UpdatedAt       *time.Time      `json:"updated_at,omitempty"`

	// Effective 三层合并后的生效配置
	Effective *pipeline.Config `json:"effective,omitempty"`
}

// NewRAGConfigResponse 构建配置响应；record 为 nil 表示该知识库尚无存储配置
func NewRAGConfigResponse(knowledgeBaseID string, record *entity.RAGConfigRecord, effective pipeline.Config) *RAGConfigResponse {
	resp := &RAGConfigResponse{
		KnowledgeBaseID: knowledgeBaseID,
		Settings:        json.RawMessage("{}"),
		Effective:       &effective,
	}
	if record != nil {
		resp.Settings = record.Settings
		resp.Version = record.Version
		resp.UpdatedAt = &record.UpdatedAt
	}
	return resp
}

// UpdateRAGConfigRequest 更新知识库检索配置
type UpdateRAGConfigRequest struct {
	Settings json.RawMessage `json:"settings" binding:"required"`
}
