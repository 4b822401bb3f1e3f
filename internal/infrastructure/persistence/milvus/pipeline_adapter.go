package milvus

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"inbox-rag-api/internal/application/pipeline"
)

// PipelineVectorSearch 把向量仓储适配为检索流水线的 VectorSearch 端口。
// 每次检索请求按知识库构造一个实例，对两个语料库集合路由检索。
type PipelineVectorSearch struct {
	repo            *Repository
	knowledgeBaseID string
}

// NewPipelineVectorSearch 创建面向单个知识库的向量检索适配器
func NewPipelineVectorSearch(repo *Repository, knowledgeBaseID string) *PipelineVectorSearch {
	return &PipelineVectorSearch{repo: repo, knowledgeBaseID: knowledgeBaseID}
}

var _ pipeline.VectorSearch = (*PipelineVectorSearch)(nil)

// Search 按语料库执行向量检索并转换为流水线候选
func (s *PipelineVectorSearch) Search(ctx context.Context, corpus pipeline.Source, vector []float32, limit int, threshold float64) ([]pipeline.Candidate, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("vector search not configured")
	}

	params := &SearchParams{
		KnowledgeBaseID: s.knowledgeBaseID,
		QueryVector:     vector,
		TopK:            limit,
		ScoreThreshold:  threshold,
	}

	switch corpus {
	case pipeline.SourceEmail:
		results, err := s.repo.SearchEmails(ctx, params)
		if err != nil {
			return nil, err
		}
		return emailCandidates(results), nil
	default:
		results, err := s.repo.SearchChunks(ctx, params)
		if err != nil {
			return nil, err
		}
		return chunkCandidates(results), nil
	}
}

func chunkCandidates(results []*ChunkResult) []pipeline.Candidate {
	out := make([]pipeline.Candidate, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		out = append(out, pipeline.Candidate{
			ID:      r.ID,
			Source:  pipeline.SourceKnowledgeBase,
			Title:   r.FileName,
			Content: r.TextContent,
			Score:   float64(r.Score),
			Metadata: map[string]string{
				"document_id": r.DocumentID,
				"file_name":   r.FileName,
			},
		})
	}
	return out
}

func emailCandidates(results []*EmailResult) []pipeline.Candidate {
	out := make([]pipeline.Candidate, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		c := pipeline.Candidate{
			ID:      r.ID,
			Source:  pipeline.SourceEmail,
			Title:   r.Subject,
			Content: r.TextContent,
			Score:   float64(r.Score),
			Metadata: map[string]string{
				"message_id": r.MessageID,
				"subject":    r.Subject,
				"sender":     r.Sender,
			},
		}
		if r.SentAt > 0 {
			sentAt := time.Unix(r.SentAt, 0).UTC()
			c.SentAt = &sentAt
			c.Metadata["sent_at"] = strconv.FormatInt(r.SentAt, 10)
		}
		out = append(out, c)
	}
	return out
}
