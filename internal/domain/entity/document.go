package entity

import "time"

type DocumentStatus string

const (
	DocumentStatusIndexing DocumentStatus = "indexing"
	DocumentStatusReady    DocumentStatus = "ready"
	DocumentStatusFailed   DocumentStatus = "failed"
)

// Document 已入库文档的索引登记记录，向量本体存 Milvus，这里只保留元数据
type Document struct {
	ID              string         `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	KnowledgeBaseID string         `json:"knowledge_base_id" gorm:"type:uuid;index;not null"`
	FileName        string         `json:"file_name" gorm:"type:varchar(512);not null"`
	Status          DocumentStatus `json:"status" gorm:"type:varchar(16);not null;default:'indexing'"`
	ChunkCount      int            `json:"chunk_count" gorm:"not null;default:0"`
	CreatedAt       time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Document) TableName() string {
	return "documents"
}

func NewDocument(knowledgeBaseID, fileName string) *Document {
	now := time.Now()
	return &Document{
		KnowledgeBaseID: knowledgeBaseID,
		FileName:        fileName,
		Status:          DocumentStatusIndexing,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
