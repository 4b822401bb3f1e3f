package pipeline

import (
	"context"
	"math"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"inbox-rag-api/pkg/logger"
)

// Retriever 多源召回：对单个查询串并发检索知识库与邮件语料库，
// 混合检索启用时叠加关键词召回。任一来源失败只降级该来源为空列表，
// 整个查询仍以部分结果继续。
type Retriever struct {
	embedder Embedder
	vector   VectorSearch
	keyword  KeywordSearch
}

// NewRetriever 创建多源召回器；keyword 可为 nil（关闭混合检索）
func NewRetriever(embedder Embedder, vector VectorSearch, keyword KeywordSearch) *Retriever {
	return &Retriever{
		embedder: embedder,
		vector:   vector,
		keyword:  keyword,
	}
}

// Retrieve 对一个查询串执行多源召回，返回各 (语料库, 方式) 的原始列表。
// 知识库与邮件的向量检索必须并发发起，互不阻塞；关键词检索同理。
// 向量检索上限为 2×maxResults，并把知识库阈值作为引擎侧 cutoff 提示。
func (r *Retriever) Retrieve(ctx context.Context, query string, cfg Config) []RankedList {
	if r == nil || r.vector == nil {
		return nil
	}

	limit := cfg.MaxResults * 2
	hybrid := cfg.HybridSearch && r.keyword != nil

	// 槽位固定，goroutine 只写自己的槽
	const (
		slotKBVector = iota
		slotEmailVector
		slotKBKeyword
		slotEmailKeyword
		slotCount
	)
	results := make([][]Candidate, slotCount)

	vec, err := r.embedQuery(ctx, query)
	if err != nil {
		// 嵌入失败只影响向量召回；关键词召回不依赖嵌入
		logger.Warn(ctx, "query embedding failed, vector retrieval degraded",
			"error", err.Error())
		vec = nil
	}

	g, gctx := errgroup.WithContext(ctx)

	if vec != nil {
		g.Go(func() error {
			results[slotKBVector] = r.searchVector(gctx, SourceKnowledgeBase, vec, limit, cfg.KBThreshold)
			return nil
		})
		g.Go(func() error {
			results[slotEmailVector] = r.searchVector(gctx, SourceEmail, vec, limit, cfg.KBThreshold)
			return nil
		})
	}
	if hybrid {
		g.Go(func() error {
			results[slotKBKeyword] = r.searchKeyword(gctx, SourceKnowledgeBase, query, limit)
			return nil
		})
		g.Go(func() error {
			results[slotEmailKeyword] = r.searchKeyword(gctx, SourceEmail, query, limit)
			return nil
		})
	}

	// 各子检索自行吞错降级，Wait 不会返回错误
	_ = g.Wait()

	var lists []RankedList
	appendList := func(source Source, method Method, items []Candidate) {
		if len(items) == 0 {
			return
		}
		lists = append(lists, RankedList{Source: source, Method: method, Items: items})
	}
	appendList(SourceKnowledgeBase, MethodVector, results[slotKBVector])
	appendList(SourceEmail, MethodVector, results[slotEmailVector])
	appendList(SourceKnowledgeBase, MethodKeyword, results[slotKBKeyword])
	appendList(SourceEmail, MethodKeyword, results[slotEmailKeyword])
	return lists
}

func (r *Retriever) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if r.embedder == nil {
		return nil, ErrEmbeddingUnavailable
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmbeddingUnavailable
	}
	return r.embedder.Embed(ctx, query)
}

func (r *Retriever) searchVector(ctx context.Context, corpus Source, vec []float32, limit int, threshold float64) []Candidate {
	items, err := r.vector.Search(ctx, corpus, vec, limit, threshold)
	if err != nil {
		logger.Warn(ctx, "vector search degraded to empty",
			"corpus", string(corpus),
			"error", retrievalError(corpus, MethodVector, err).Error())
		return nil
	}
	return normalizeCandidates(items, corpus)
}

func (r *Retriever) searchKeyword(ctx context.Context, corpus Source, query string, limit int) []Candidate {
	items, err := r.keyword.Search(ctx, corpus, query, limit)
	if err != nil {
		logger.Warn(ctx, "keyword search degraded to empty",
			"corpus", string(corpus),
			"error", retrievalError(corpus, MethodKeyword, err).Error())
		return nil
	}
	return normalizeCandidates(items, corpus)
}

// normalizeCandidates 把检索层返回的候选统一成流水线形状：
// 强制来源、剔除空 ID、修正非法分数、从元数据兜底标题。
// 对缺失/异常字段必须全量防御，不抛错。
func normalizeCandidates(items []Candidate, corpus Source) []Candidate {
	out := make([]Candidate, 0, len(items))
	for _, c := range items {
		c.ID = strings.TrimSpace(c.ID)
		if c.ID == "" {
			continue
		}
		c.Source = corpus
		if math.IsNaN(c.Score) || math.IsInf(c.Score, 0) {
			c.Score = 0
		}
		if c.Title == "" && c.Metadata != nil {
			if v := c.Metadata["file_name"]; v != "" {
				c.Title = v
			} else if v := c.Metadata["subject"]; v != "" {
				c.Title = v
			}
		}
		out = append(out, c)
	}

	// 防御乱序的检索实现：名次必须与分数一致
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}
