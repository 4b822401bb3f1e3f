package pipeline

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"inbox-rag-api/pkg/logger"
	"inbox-rag-api/pkg/metrics"
	"inbox-rag-api/pkg/tracer"
)

// StageTrace 单阶段观测记录
type StageTrace struct {
	Stage      string `json:"stage"`
	In         int    `json:"in"`
	Out        int    `json:"out"`
	DurationMs int64  `json:"duration_ms"`
}

// Trace 流水线观测信息，仅用于调试与遥测，绝不参与排序
type Trace struct {
	Queries           []string     `json:"queries"`
	Stages            []StageTrace `json:"stages"`
	TopFilteredScores []float64    `json:"top_filtered_scores,omitempty"`
	TotalDurationMs   int64        `json:"total_duration_ms"`
}

func (t *Trace) record(stage string, in, out int, start time.Time) {
	d := time.Since(start)
	t.Stages = append(t.Stages, StageTrace{
		Stage:      stage,
		In:         in,
		Out:        out,
		DurationMs: d.Milliseconds(),
	})
	metrics.PipelineStageDuration.WithLabelValues(stage).Observe(d.Seconds())
	metrics.PipelineStageCandidates.WithLabelValues(stage, "in").Observe(float64(in))
	metrics.PipelineStageCandidates.WithLabelValues(stage, "out").Observe(float64(out))
}

// Service 检索融合流水线入口。
// 相同的上游响应与配置必然产生相同的输出。
type Service struct {
	enhancer  *Enhancer
	retriever *Retriever
}

// NewService 组装流水线；generator 与 keyword 允许为 nil（对应能力降级）
func NewService(generator TextGenerator, embedder Embedder, vector VectorSearch, keyword KeywordSearch) *Service {
	return &Service{
		enhancer:  NewEnhancer(generator),
		retriever: NewRetriever(embedder, vector, keyword),
	}
}

// RetrieveAndRank 执行完整流水线并返回最终上下文候选集。
// 顶层无条件吸收所有错误：检索失败返回空列表，聊天回复绝不因此中断。
func (s *Service) RetrieveAndRank(ctx context.Context, query string, history []HistoryTurn, cfg Config) (result []Candidate, tr *Trace) {
	start := time.Now()
	cfg = cfg.Normalized()
	tr = &Trace{}

	ctx, span := tracer.Start(ctx, "pipeline.RetrieveAndRank",
		trace.WithAttributes(attribute.Int("max_results", cfg.MaxResults)))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "retrieval pipeline panicked, returning empty context",
				nil, "panic", r)
			metrics.PipelineRunsTotal.WithLabelValues("panic").Inc()
			result = []Candidate{}
		}
		tr.TotalDurationMs = time.Since(start).Milliseconds()
	}()

	// 1) 查询增强
	stageStart := time.Now()
	enhanced, err := s.enhancer.Enhance(ctx, query, history, cfg.Enhance)
	if err != nil {
		// FallbackOnError=false 的显式失败；检索整体降级为空
		logger.Error(ctx, "query enhancement failed without fallback", err)
		metrics.PipelineRunsTotal.WithLabelValues("enhancement_failed").Inc()
		return []Candidate{}, tr
	}
	queries := enhanced.AllSearchQueries()
	tr.Queries = queries
	tr.record("enhance", 1, len(queries), stageStart)

	// 2) 逐查询召回 + 融合。合并阶段按 Key 分组、与顺序无关，
	// 这里顺序执行以约束对 LLM 与向量引擎的瞬时压力。
	stageStart = time.Now()
	runs := make([][]Candidate, 0, len(queries))
	rawCount := 0
	for _, q := range queries {
		lists := s.retriever.Retrieve(ctx, q, cfg)
		for _, l := range lists {
			rawCount += len(l.Items)
		}
		if len(lists) == 0 {
			continue
		}
		runs = append(runs, Fuse(lists, cfg.Fusion))
	}
	tr.record("retrieve_fuse", rawCount, sumLen(runs), stageStart)

	// 3) 跨变体合并
	stageStart = time.Now()
	merged := MergeVariants(runs, cfg.Fusion)
	tr.record("merge", sumLen(runs), len(merged), stageStart)

	// 4) 阈值过滤（融合分数，而非各来源原始分数）
	stageStart = time.Now()
	filtered, droppedScores := FilterByThreshold(merged, cfg.KBThreshold, cfg.EmailThreshold)
	tr.TopFilteredScores = topScores(droppedScores, 5)
	tr.record("threshold", len(merged), len(filtered), stageStart)

	// 5) 时间衰减
	stageStart = time.Now()
	decayed := ApplyDecay(filtered, cfg.Decay, time.Now())
	tr.record("decay", len(filtered), len(decayed), stageStart)

	// 6) 重排
	stageStart = time.Now()
	reranked := Rerank(enhanced.EnhancedQuery, decayed, cfg.Rerank, cfg.MaxResults)
	tr.record("rerank", len(decayed), len(reranked), stageStart)

	// 7) 配额均衡
	stageStart = time.Now()
	balanced := Balance(reranked, cfg.MaxResults, cfg.Ensemble)
	tr.record("balance", len(reranked), len(balanced), stageStart)

	metrics.PipelineRunsTotal.WithLabelValues("ok").Inc()
	metrics.PipelineResultCount.Observe(float64(len(balanced)))
	span.SetAttributes(attribute.Int("result_count", len(balanced)))

	return balanced, tr
}

func sumLen(runs [][]Candidate) int {
	n := 0
	for _, r := range runs {
		n += len(r)
	}
	return n
}

// topScores 返回降序前 n 个分数（输入已按过滤顺序，这里重排取最大）
func topScores(scores []float64, n int) []float64 {
	if len(scores) == 0 {
		return nil
	}
	cp := make([]float64, len(scores))
	copy(cp, scores)
	for i := 0; i < len(cp) && i < n; i++ {
		maxIdx := i
		for j := i + 1; j < len(cp); j++ {
			if cp[j] > cp[maxIdx] {
				maxIdx = j
			}
		}
		cp[i], cp[maxIdx] = cp[maxIdx], cp[i]
	}
	if len(cp) > n {
		cp = cp[:n]
	}
	return cp
}
