// Package milvus 提供 Milvus 向量数据库访问层实现
package milvus

import (
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

const (
	// CollectionKBChunks 知识库文档分块集合
	CollectionKBChunks = "kb_chunks"
	// CollectionEmailMessages 邮件消息集合
	CollectionEmailMessages = "email_messages"

	// VectorDimension 向量维度
	VectorDimension = 1536
)

// KBChunksSchema 知识库分块 Collection Schema
func KBChunksSchema() *entity.Schema {
	return &entity.Schema{
		CollectionName: CollectionKBChunks,
		Description:    "Knowledge base document chunks for semantic search",
		Fields: []*entity.Field{
			{
				Name:       "id",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "vector",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": "1536",
				},
			},
			{
				Name:     "knowledge_base_id",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "document_id",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "file_name",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "512",
				},
			},
			{
				Name:     "chunk_index",
				DataType: entity.FieldTypeInt64,
			},
			{
				Name:     "text_content",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "65535",
				},
			},
		},
	}
}

// EmailMessagesSchema 邮件消息 Collection Schema
func EmailMessagesSchema() *entity.Schema {
	return &entity.Schema{
		CollectionName: CollectionEmailMessages,
		Description:    "Email messages for semantic search over the mail corpus",
		Fields: []*entity.Field{
			{
				Name:       "id",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "vector",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": "1536",
				},
			},
			{
				Name:     "knowledge_base_id",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "message_id",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "256",
				},
			},
			{
				Name:     "subject",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "1024",
				},
			},
			{
				Name:     "sender",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "320",
				},
			},
			{
				// sent_at 发送时间（Unix 秒），时间衰减阶段使用
				Name:     "sent_at",
				DataType: entity.FieldTypeInt64,
			},
			{
				Name:     "text_content",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "65535",
				},
			},
		},
	}
}

// KBChunk 知识库分块数据结构
type KBChunk struct {
	ID              string    `json:"id"`
	Vector          []float32 `json:"vector"`
	KnowledgeBaseID string    `json:"knowledge_base_id"`
	DocumentID      string    `json:"document_id"`
	FileName        string    `json:"file_name"`
	ChunkIndex      int64     `json:"chunk_index"`
	TextContent     string    `json:"text_content"`
}

// EmailMessage 邮件消息数据结构
type EmailMessage struct {
	ID              string    `json:"id"`
	Vector          []float32 `json:"vector"`
	KnowledgeBaseID string    `json:"knowledge_base_id"`
	MessageID       string    `json:"message_id"`
	Subject         string    `json:"subject"`
	Sender          string    `json:"sender"`
	SentAt          int64     `json:"sent_at"`
	TextContent     string    `json:"text_content"`
}

// PartitionName 生成知识库分区名称
func PartitionName(knowledgeBaseID string) string {
	return "kb_" + knowledgeBaseID
}
