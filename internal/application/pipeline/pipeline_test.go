package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// passthroughConfig 关闭一切改写型阶段：加权融合 + 无归一化 + 向量权重 1，
// 原始相似度原样流过融合，阈值过滤直接作用于相似度本身。
func passthroughConfig(maxResults int, kbThreshold float64) Config {
	cfg := DefaultConfig()
	cfg.MaxResults = maxResults
	cfg.KBThreshold = kbThreshold
	cfg.HybridSearch = false
	cfg.Enhance = EnhanceConfig{FallbackOnError: true}
	cfg.Fusion = FusionConfig{
		Method:        FusionWeighted,
		VectorWeight:  1.0,
		KeywordWeight: 0.0,
		Normalization: NormalizeNone,
		Combine:       CombineMax,
	}
	cfg.Rerank = RerankConfig{}
	cfg.Decay = DecayConfig{Enabled: false}
	cfg.Ensemble = EnsembleConfig{Enabled: false}
	return cfg
}

func TestRetrieveAndRankEndToEnd(t *testing.T) {
	sims := []float64{0.95, 0.88, 0.82, 0.76, 0.60, 0.40}
	kb := make([]Candidate, 0, len(sims))
	for i, s := range sims {
		kb = append(kb, kbCand(string(rune('a'+i)), s))
	}
	vector := &fakeVectorSearch{results: map[Source][]Candidate{
		SourceKnowledgeBase: kb,
	}}
	svc := NewService(nil, &fakeEmbedder{vec: []float32{0.1, 0.2}}, vector, nil)

	out, tr := svc.RetrieveAndRank(context.Background(), "deployment history", nil, passthroughConfig(3, 0.8))
	require.Len(t, out, 3)

	// 阈值 0.8 恰好保留前三个，顺序与相似度一致
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "b", out[1].ID)
	assert.Equal(t, "c", out[2].ID)
	assert.InDelta(t, 0.95, out[0].Score, 1e-9)
	assert.InDelta(t, 0.82, out[2].Score, 1e-9)

	require.NotNil(t, tr)
	assert.Equal(t, []string{"deployment history"}, tr.Queries)
	// 被过滤的分数进入观测轨迹，降序
	assert.Equal(t, []float64{0.76, 0.60, 0.40}, tr.TopFilteredScores)
}

func TestRetrieveAndRankStageHistory(t *testing.T) {
	vector := &fakeVectorSearch{results: map[Source][]Candidate{
		SourceKnowledgeBase: {kbCand("a", 0.9)},
	}}
	svc := NewService(nil, &fakeEmbedder{vec: []float32{0.1}}, vector, nil)

	out, _ := svc.RetrieveAndRank(context.Background(), "query", nil, passthroughConfig(5, 0.1))
	require.Len(t, out, 1)

	// 候选穿过 融合、合并、阈值 三个记录型阶段
	stages := make([]string, 0, len(out[0].History))
	for _, rec := range out[0].History {
		stages = append(stages, rec.StageName())
	}
	assert.Equal(t, []string{"fusion", "merge", "threshold"}, stages)
}

func TestRetrieveAndRankAllSourcesFailReturnsEmpty(t *testing.T) {
	vector := &fakeVectorSearch{errs: map[Source]error{
		SourceKnowledgeBase: errors.New("unavailable"),
		SourceEmail:         errors.New("unavailable"),
	}}
	svc := NewService(nil, &fakeEmbedder{vec: []float32{0.1}}, vector, nil)

	out, tr := svc.RetrieveAndRank(context.Background(), "query", nil, passthroughConfig(5, 0.1))
	assert.Empty(t, out)
	require.NotNil(t, tr)
}

func TestRetrieveAndRankStrictEnhanceFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("llm down")}
	vector := &fakeVectorSearch{results: map[Source][]Candidate{
		SourceKnowledgeBase: {kbCand("a", 0.9)},
	}}
	svc := NewService(gen, &fakeEmbedder{vec: []float32{0.1}}, vector, nil)

	cfg := passthroughConfig(5, 0.1)
	cfg.Enhance = EnhanceConfig{ContextRewrite: true, HistoryTurns: 4, FallbackOnError: false}
	history := []HistoryTurn{{Role: "user", Content: "earlier turn"}}

	out, _ := svc.RetrieveAndRank(context.Background(), "query", history, cfg)
	assert.Empty(t, out)
}

func TestRetrieveAndRankMultiQueryMergesVariants(t *testing.T) {
	gen := &fakeGenerator{replies: []string{`["variant query"]`}}
	vector := &fakeVectorSearch{results: map[Source][]Candidate{
		SourceKnowledgeBase: {kbCand("a", 0.9), kbCand("b", 0.5)},
	}}
	svc := NewService(gen, &fakeEmbedder{vec: []float32{0.1}}, vector, nil)

	cfg := passthroughConfig(5, 0.1)
	cfg.Enhance = EnhanceConfig{MultiQuery: true, VariantCount: 2, FallbackOnError: true}

	out, tr := svc.RetrieveAndRank(context.Background(), "original query", nil, cfg)
	// 两个查询串命中同一批候选，合并后不重复
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ID)
	assert.Len(t, tr.Queries, 2)

	var merge MergeRecord
	for _, rec := range out[0].History {
		if m, ok := rec.(MergeRecord); ok {
			merge = m
		}
	}
	assert.Equal(t, 2, merge.Occurrences)
}

func TestRetrieveAndRankDeterministic(t *testing.T) {
	vector := &fakeVectorSearch{results: map[Source][]Candidate{
		SourceKnowledgeBase: {kbCand("a", 0.9), kbCand("b", 0.7)},
		SourceEmail:         {emailCand("x", 0.8), emailCand("y", 0.6)},
	}}
	svc := NewService(nil, &fakeEmbedder{vec: []float32{0.1}}, vector, nil)
	cfg := passthroughConfig(4, 0.1)

	first, _ := svc.RetrieveAndRank(context.Background(), "query", nil, cfg)
	for i := 0; i < 5; i++ {
		again, _ := svc.RetrieveAndRank(context.Background(), "query", nil, cfg)
		require.Equal(t, len(first), len(again))
		for j := range first {
			assert.Equal(t, first[j].Key(), again[j].Key())
			assert.Equal(t, first[j].Score, again[j].Score)
		}
	}
}
