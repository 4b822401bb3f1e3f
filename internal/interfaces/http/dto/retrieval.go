// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"encoding/json"
	"time"

	"inbox-rag-api/internal/application/pipeline"
)

// SearchRequest 检索请求
type SearchRequest struct {
	KnowledgeBaseID string `json:"knowledge_base_id" binding:"required"`
	Query           string `json:"query" binding:"required,max=5000"`

	// SessionID 指定会话时，服务端自动注入该会话的最近历史
	SessionID string        `json:"session_id,omitempty"`
	History   []HistoryTurn `json:"history,omitempty"`

	// ConfigOverride 单次调用的配置覆盖，字段级合并到知识库配置之上
	ConfigOverride json.RawMessage `json:"config_override,omitempty"`

	// Debug 为 true 时返回各阶段观测信息
	Debug bool `json:"debug,omitempty"`
}

// HistoryTurn 会话历史轮次
type HistoryTurn struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// SearchResponse 检索响应
type SearchResponse struct {
	Candidates []*CandidateResponse `json:"candidates"`

	// PromptContext 候选集的 Prompt 注入格式，调用方可直接拼进生成请求
	PromptContext string          `json:"prompt_context,omitempty"`
	Trace         *pipeline.Trace `json:"trace,omitempty"`
}

// CandidateResponse 上下文候选
type CandidateResponse struct {
	ID       string            `json:"id"`
	Source   string            `json:"source"`
	Title    string            `json:"title,omitempty"`
	Content  string            `json:"content"`
	Score    float64           `json:"score"`
	SentAt   *time.Time        `json:"sent_at,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// NewCandidateResponses 把流水线候选转换为响应对象
func NewCandidateResponses(candidates []pipeline.Candidate) []*CandidateResponse {
	out := make([]*CandidateResponse, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, &CandidateResponse{
			ID:       c.ID,
			Source:   string(c.Source),
			Title:    c.Title,
			Content:  c.Content,
			Score:    c.Score,
			SentAt:   c.SentAt,
			Metadata: c.Metadata,
		})
	}
	return out
}

// PipelineHistory 转换为流水线的历史轮次
func PipelineHistory(turns []HistoryTurn) []pipeline.HistoryTurn {
	out := make([]pipeline.HistoryTurn, 0, len(turns))
	for _, t := range turns {
		out = append(out, pipeline.HistoryTurn{Role: t.Role, Content: t.Content})
	}
	return out
}

// IndexDocumentRequest 文档索引请求
type IndexDocumentRequest struct {
	KnowledgeBaseID string `json:"knowledge_base_id" binding:"required"`
	DocumentID      string `json:"document_id,omitempty"`
	FileName        string `json:"file_name" binding:"required,max=512"`
	Content         string `json:"content" binding:"required"`
}

// IndexEmailsRequest 邮件索引请求
type IndexEmailsRequest struct {
	KnowledgeBaseID string         `json:"knowledge_base_id" binding:"required"`
	Emails          []EmailPayload `json:"emails" binding:"required,min=1,max=500"`
}

// EmailPayload 单封邮件
type EmailPayload struct {
	MessageID string    `json:"message_id" binding:"required"`
	Subject   string    `json:"subject,omitempty"`
	Sender    string    `json:"sender,omitempty"`
	SentAt    time.Time `json:"sent_at,omitempty"`
	Body      string    `json:"body,omitempty"`
}

// IndexResponse 索引结果
type IndexResponse struct {
	DocumentID   string `json:"document_id,omitempty"`
	IndexedCount int    `json:"indexed_count"`
}
