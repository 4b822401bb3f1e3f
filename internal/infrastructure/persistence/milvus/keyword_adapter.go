package milvus

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"inbox-rag-api/internal/application/pipeline"
)

// defaultFetchLimit 单次关键词召回从分区拉取的最大行数
const defaultFetchLimit = 1000

// BM25 参数，经验默认值
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// PipelineKeywordSearch 基于 Milvus 标量查询的关键词召回适配器。
// Milvus 不提供 BM25 检索，这里把分区内候选文本拉回后在本地做
// BM25 打分，分数归一到 (0,1] 再交给融合阶段。
type PipelineKeywordSearch struct {
	repo            *Repository
	knowledgeBaseID string
	fetchLimit      int
}

// NewPipelineKeywordSearch 创建面向单个知识库的关键词召回适配器
func NewPipelineKeywordSearch(repo *Repository, knowledgeBaseID string) *PipelineKeywordSearch {
	return &PipelineKeywordSearch{
		repo:            repo,
		knowledgeBaseID: knowledgeBaseID,
		fetchLimit:      defaultFetchLimit,
	}
}

var _ pipeline.KeywordSearch = (*PipelineKeywordSearch)(nil)

// Search 按语料库执行关键词召回
func (s *PipelineKeywordSearch) Search(ctx context.Context, corpus pipeline.Source, query string, limit int) ([]pipeline.Candidate, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("keyword search not configured")
	}

	queryTokens := pipeline.Tokenize(query)
	if len(queryTokens) == 0 || limit <= 0 {
		return nil, nil
	}

	var candidates []pipeline.Candidate
	switch corpus {
	case pipeline.SourceEmail:
		results, err := s.repo.FetchEmails(ctx, s.knowledgeBaseID, s.fetchLimit)
		if err != nil {
			return nil, err
		}
		candidates = keywordEmailCandidates(results)
	default:
		results, err := s.repo.FetchChunks(ctx, s.knowledgeBaseID, s.fetchLimit)
		if err != nil {
			return nil, err
		}
		candidates = keywordChunkCandidates(results)
	}

	return scoreBM25(candidates, queryTokens, limit), nil
}

func keywordChunkCandidates(results []*ChunkResult) []pipeline.Candidate {
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
			Metadata: map[string]string{
				"document_id": r.DocumentID,
				"file_name":   r.FileName,
			},
		})
	}
	return out
}

func keywordEmailCandidates(results []*EmailResult) []pipeline.Candidate {
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

// scoreBM25 在拉取到的候选集合内做 BM25 打分，返回归一化后的前 limit 个。
// 统计量（df、平均文档长度）基于当前候选集合计算。
func scoreBM25(candidates []pipeline.Candidate, queryTokens []string, limit int) []pipeline.Candidate {
	if len(candidates) == 0 {
		return nil
	}

	docTokens := make([][]string, len(candidates))
	totalLen := 0
	for i, c := range candidates {
		text := c.Content
		if c.Title != "" {
			text = c.Title + " " + text
		}
		docTokens[i] = pipeline.Tokenize(text)
		totalLen += len(docTokens[i])
	}
	avgLen := float64(totalLen) / float64(len(candidates))
	if avgLen <= 0 {
		return nil
	}

	// 文档频率
	df := make(map[string]int, len(queryTokens))
	for _, tokens := range docTokens {
		seen := make(map[string]bool, len(tokens))
		for _, tok := range tokens {
			seen[tok] = true
		}
		for _, q := range queryTokens {
			if seen[q] {
				df[q]++
			}
		}
	}

	n := float64(len(candidates))
	idf := make(map[string]float64, len(queryTokens))
	for _, q := range queryTokens {
		idf[q] = math.Log(1 + (n-float64(df[q])+0.5)/(float64(df[q])+0.5))
	}

	type scored struct {
		idx   int
		score float64
	}
	matched := make([]scored, 0, len(candidates))
	maxScore := 0.0
	for i, tokens := range docTokens {
		tf := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			tf[tok]++
		}

		score := 0.0
		for _, q := range queryTokens {
			f := float64(tf[q])
			if f == 0 {
				continue
			}
			norm := f * (bm25K1 + 1) / (f + bm25K1*(1-bm25B+bm25B*float64(len(tokens))/avgLen))
			score += idf[q] * norm
		}
		if score <= 0 {
			continue
		}
		matched = append(matched, scored{idx: i, score: score})
		if score > maxScore {
			maxScore = score
		}
	}
	if len(matched) == 0 {
		return nil
	}

	sort.SliceStable(matched, func(a, b int) bool {
		if matched[a].score != matched[b].score {
			return matched[a].score > matched[b].score
		}
		return candidates[matched[a].idx].ID < candidates[matched[b].idx].ID
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}

	out := make([]pipeline.Candidate, 0, len(matched))
	for _, m := range matched {
		c := candidates[m.idx]
		c.Score = m.score / maxScore
		out = append(out, c)
	}
	return out
}
