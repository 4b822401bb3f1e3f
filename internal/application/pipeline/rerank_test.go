package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contentCand(id string, score float64, content string) Candidate {
	return Candidate{ID: id, Source: SourceKnowledgeBase, Content: content, Score: score}
}

func TestTokenizeDropsShortTokens(t *testing.T) {
	assert.Equal(t, []string{"deploy", "the", "api"}, Tokenize("Deploy THE api on K8"))
}

func TestJaccardSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, JaccardSimilarity("alpha beta", "beta alpha"))
	assert.Equal(t, 0.0, JaccardSimilarity("alpha beta", "gamma delta"))
	// 交集 1，并集 3
	assert.InDelta(t, 1.0/3.0, JaccardSimilarity("alpha beta", "beta gamma"), 1e-12)
	// 空输入不报错
	assert.Equal(t, 0.0, JaccardSimilarity("", ""))
	assert.Equal(t, 0.0, JaccardSimilarity("alpha", ""))
}

func TestSemanticBoostFullMatch(t *testing.T) {
	cfg := RerankConfig{SemanticBoost: true, MaxBoost: 0.15, MinBoostThreshold: 0.3}
	in := []Candidate{contentCand("a", 0.5, "database migration guide")}

	out := Rerank("database migration", in, cfg, 10)
	require.Len(t, out, 1)
	// 两个查询词全部命中：boost = 1.0 * 0.15
	assert.InDelta(t, 0.65, out[0].Score, 1e-9)

	rec := out[0].History[0].(BoostRecord)
	assert.Equal(t, 1.0, rec.MatchRatio)
	assert.InDelta(t, 0.15, rec.Boost, 1e-9)
}

func TestSemanticBoostGateBelowThreshold(t *testing.T) {
	cfg := RerankConfig{SemanticBoost: true, MaxBoost: 0.15, MinBoostThreshold: 0.3}
	in := []Candidate{contentCand("a", 0.29, "database migration guide")}

	out := Rerank("database migration", in, cfg, 10)
	require.Len(t, out, 1)
	assert.Equal(t, 0.29, out[0].Score)

	rec := out[0].History[0].(BoostRecord)
	assert.Equal(t, 0.0, rec.Boost)
	assert.Equal(t, 0.0, rec.MatchRatio)
}

func TestSemanticBoostMatchesTitle(t *testing.T) {
	cfg := RerankConfig{SemanticBoost: true, MaxBoost: 0.2, MinBoostThreshold: 0.1}
	c := contentCand("a", 0.5, "irrelevant body")
	c.Title = "quarterly revenue report"

	out := Rerank("quarterly revenue", []Candidate{c}, cfg, 10)
	rec := out[0].History[0].(BoostRecord)
	assert.Equal(t, 1.0, rec.MatchRatio)
}

func TestSemanticBoostDynamicCapped(t *testing.T) {
	cfg := RerankConfig{SemanticBoost: true, DynamicBoost: true, MaxBoost: 0.15, MinBoostThreshold: 0.1}
	in := []Candidate{contentCand("a", 0.5, "database migration guide")}

	out := Rerank("database migration", in, cfg, 10)
	rec := out[0].History[0].(BoostRecord)
	// ratio=1: 1*0.15*(1+1)=0.3 = 2*MaxBoost 上限
	assert.InDelta(t, 0.3, rec.Boost, 1e-9)
	assert.True(t, rec.Dynamic)
}

func TestSemanticBoostClampsToOne(t *testing.T) {
	cfg := RerankConfig{SemanticBoost: true, MaxBoost: 0.15, MinBoostThreshold: 0.1}
	in := []Candidate{contentCand("a", 0.95, "database migration guide")}

	out := Rerank("database migration", in, cfg, 10)
	assert.Equal(t, 1.0, out[0].Score)
}

func TestMMRFirstPickIsRelevance(t *testing.T) {
	cfg := RerankConfig{UseMMR: true, MMRLambda: 0.7}
	in := []Candidate{
		contentCand("a", 0.9, "alpha beta gamma"),
		contentCand("b", 0.8, "delta epsilon zeta"),
	}

	out := Rerank("", in, cfg, 2)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ID)

	rec := out[0].History[0].(MMRRecord)
	// 已选集为空：mmr 精确等于 relevance，无 λ 缩放
	assert.Equal(t, 0.9, rec.MMRScore)
	assert.Equal(t, 0.0, rec.MaxSimilarity)
}

func TestMMRPrefersDiverseSecondPick(t *testing.T) {
	cfg := RerankConfig{UseMMR: true, MMRLambda: 0.5}
	in := []Candidate{
		contentCand("top", 0.90, "kubernetes deployment rollout strategy"),
		contentCand("dup", 0.88, "kubernetes deployment rollout strategy"),
		contentCand("div", 0.70, "smtp relay configuration basics"),
	}

	out := Rerank("", in, cfg, 2)
	require.Len(t, out, 2)
	assert.Equal(t, "top", out[0].ID)
	// dup 与已选完全重合：0.5*0.88-0.5*1.0 < 0.5*0.70-0.5*0
	assert.Equal(t, "div", out[1].ID)
}

func TestMMRStopsAtFinalK(t *testing.T) {
	cfg := RerankConfig{UseMMR: true, MMRLambda: 0.7}
	in := []Candidate{
		contentCand("a", 0.9, "one"),
		contentCand("b", 0.8, "two"),
		contentCand("c", 0.7, "three"),
	}
	out := Rerank("", in, cfg, 2)
	assert.Len(t, out, 2)
}

func TestDiversityFilterKeepsTopAlways(t *testing.T) {
	cfg := RerankConfig{DiversityFilter: true, DiversityThreshold: 0.85}
	in := []Candidate{
		contentCand("top", 0.90, "incident postmortem review notes"),
		contentCand("dup", 0.88, "incident postmortem review notes"),
		contentCand("div", 0.70, "billing invoice export format"),
	}

	out := Rerank("", in, cfg, 10)
	require.Len(t, out, 2)
	assert.Equal(t, "top", out[0].ID)
	assert.Equal(t, "div", out[1].ID)
}

func TestDiversityFilterRespectsFinalK(t *testing.T) {
	cfg := RerankConfig{DiversityFilter: true, DiversityThreshold: 0.99}
	in := []Candidate{
		contentCand("a", 0.9, "one"),
		contentCand("b", 0.8, "two"),
		contentCand("c", 0.7, "three"),
	}
	out := Rerank("", in, cfg, 2)
	assert.Len(t, out, 2)
}

func TestRerankTruncatesWithoutSelection(t *testing.T) {
	in := []Candidate{
		contentCand("a", 0.9, "one"),
		contentCand("b", 0.8, "two"),
		contentCand("c", 0.7, "three"),
	}
	out := Rerank("query", in, RerankConfig{}, 2)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "b", out[1].ID)
}

func TestRerankEmptyInput(t *testing.T) {
	assert.Empty(t, Rerank("query", nil, RerankConfig{UseMMR: true, MMRLambda: 0.7}, 5))
	assert.Empty(t, Rerank("query", nil, RerankConfig{DiversityFilter: true, DiversityThreshold: 0.85}, 5))
}
