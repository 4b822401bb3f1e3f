package dto

import (
	"time"

	"inbox-rag-api/internal/domain/entity"
)

type CreateKnowledgeBaseRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description,omitempty" binding:"max=2000"`
}

type UpdateKnowledgeBaseRequest struct {
	Name        *string `json:"name,omitempty" binding:"omitempty,max=255"`
	Description *string `json:"description,omitempty" binding:"omitempty,max=2000"`
	Status      *string `json:"status,omitempty"`
}

type KnowledgeBaseResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func ToKnowledgeBaseResponse(kb *entity.KnowledgeBase) *KnowledgeBaseResponse {
	if kb == nil {
		return nil
	}
	return &KnowledgeBaseResponse{
		ID:          kb.ID,
		Name:        kb.Name,
		Description: kb.Description,
		Status:      string(kb.Status),
		CreatedAt:   kb.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   kb.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

type KnowledgeBaseListResponse struct {
	KnowledgeBases []*KnowledgeBaseResponse `json:"knowledge_bases"`
}

type DocumentResponse struct {
	ID              string `json:"id"`
	KnowledgeBaseID string `json:"knowledge_base_id"`
	FileName        string `json:"file_name"`
	Status          string `json:"status"`
	ChunkCount      int    `json:"chunk_count"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

func ToDocumentResponse(d *entity.Document) *DocumentResponse {
	if d == nil {
		return nil
	}
	return &DocumentResponse{
		ID:              d.ID,
		KnowledgeBaseID: d.KnowledgeBaseID,
		FileName:        d.FileName,
		Status:          string(d.Status),
		ChunkCount:      d.ChunkCount,
		CreatedAt:       d.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       d.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

type DocumentListResponse struct {
	Documents []*DocumentResponse `json:"documents"`
}
