package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGenerator 按调用顺序返回预置回复
type fakeGenerator struct {
	replies []string
	err     error
	calls   int
	prompts []string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string, _ float32, _ int) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", nil
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

func enhanceAll() EnhanceConfig {
	return EnhanceConfig{
		ContextRewrite:  true,
		HistoryTurns:    6,
		HyDE:            true,
		MultiQuery:      true,
		VariantCount:    3,
		FallbackOnError: true,
	}
}

func TestEnhanceNilGeneratorPassthrough(t *testing.T) {
	e := NewEnhancer(nil)
	out, err := e.Enhance(context.Background(), "  what changed  ", nil, enhanceAll())
	require.NoError(t, err)
	assert.Equal(t, "what changed", out.OriginalQuery)
	assert.Equal(t, "what changed", out.EnhancedQuery)
	assert.Empty(t, out.HyDEDocument)
	assert.Equal(t, []string{"what changed"}, out.QueryVariants)
}

func TestEnhanceContextRewrite(t *testing.T) {
	gen := &fakeGenerator{replies: []string{
		`"what changed in the billing service deployment"`,
		"hypothetical answer document",
		`["variant one", "variant two"]`,
	}}
	history := []HistoryTurn{
		{Role: "user", Content: "tell me about the billing service"},
		{Role: "assistant", Content: "it handles invoicing"},
	}

	out, err := NewEnhancer(gen).Enhance(context.Background(), "what changed?", history, enhanceAll())
	require.NoError(t, err)
	assert.Equal(t, "what changed in the billing service deployment", out.EnhancedQuery)
	assert.Equal(t, "hypothetical answer document", out.HyDEDocument)
	assert.Equal(t, []string{"variant one", "variant two"}, out.QueryVariants)
	assert.Equal(t, 3, gen.calls)
}

func TestEnhanceRewriteSkippedWithoutHistory(t *testing.T) {
	gen := &fakeGenerator{replies: []string{"hyde doc", `["v1"]`}}
	cfg := enhanceAll()

	out, err := NewEnhancer(gen).Enhance(context.Background(), "standalone query", nil, cfg)
	require.NoError(t, err)
	assert.Equal(t, "standalone query", out.EnhancedQuery)
	// 无历史时不调用改写，只有 HyDE 与多查询两次调用
	assert.Equal(t, 2, gen.calls)
}

func TestEnhanceFallbackOnRewriteFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("llm timeout")}
	history := []HistoryTurn{{Role: "user", Content: "context"}}

	out, err := NewEnhancer(gen).Enhance(context.Background(), "my query", history, enhanceAll())
	require.NoError(t, err)
	assert.Equal(t, "my query", out.EnhancedQuery)
	assert.Empty(t, out.HyDEDocument)
	assert.Equal(t, []string{"my query"}, out.QueryVariants)
}

func TestEnhanceStrictModeReturnsError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("llm timeout")}
	history := []HistoryTurn{{Role: "user", Content: "context"}}
	cfg := enhanceAll()
	cfg.FallbackOnError = false

	_, err := NewEnhancer(gen).Enhance(context.Background(), "my query", history, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEnhancement)
}

func TestEnhanceHyDEFailureDoesNotBlockVariants(t *testing.T) {
	calls := 0
	gen := &failOnCallGenerator{failOn: 1, replies: []string{"", `["v1", "v2"]`}, calls: &calls}
	cfg := enhanceAll()
	cfg.ContextRewrite = false

	out, err := NewEnhancer(gen).Enhance(context.Background(), "query", nil, cfg)
	require.NoError(t, err)
	assert.Empty(t, out.HyDEDocument)
	assert.Equal(t, []string{"v1", "v2"}, out.QueryVariants)
}

// failOnCallGenerator 第 failOn 次（从 1 计）调用返回错误
type failOnCallGenerator struct {
	failOn  int
	replies []string
	calls   *int
}

func (f *failOnCallGenerator) Generate(_ context.Context, _ string, _ float32, _ int) (string, error) {
	*f.calls++
	if *f.calls == f.failOn {
		return "", errors.New("transient failure")
	}
	idx := *f.calls - 1
	if idx < len(f.replies) {
		return f.replies[idx], nil
	}
	return "", nil
}

func TestParseVariantsJSONArray(t *testing.T) {
	out := parseVariants(`["first query", "second query", "third query"]`, 5)
	assert.Equal(t, []string{"first query", "second query", "third query"}, out)
}

func TestParseVariantsFencedJSON(t *testing.T) {
	raw := "Here are the variants:\n```json\n[\"alpha\", \"beta\"]\n```"
	assert.Equal(t, []string{"alpha", "beta"}, parseVariants(raw, 5))
}

func TestParseVariantsNumberedLines(t *testing.T) {
	raw := "1. first variant\n2) second variant\n- third variant\n\"fourth variant\""
	out := parseVariants(raw, 5)
	assert.Equal(t, []string{"first variant", "second variant", "third variant", "fourth variant"}, out)
}

func TestParseVariantsCapped(t *testing.T) {
	out := parseVariants("a1\nb2\nc3\nd4", 2)
	assert.Len(t, out, 2)
}

func TestParseVariantsEmpty(t *testing.T) {
	assert.Nil(t, parseVariants("", 3))
	assert.Nil(t, parseVariants("   \n  ", 3))
}

func TestAllSearchQueriesDedupOrder(t *testing.T) {
	q := &EnhancedQuery{
		OriginalQuery: "orig",
		EnhancedQuery: "enhanced",
		HyDEDocument:  "hyde doc",
		QueryVariants: []string{"enhanced", "variant", "hyde doc", "variant"},
	}
	assert.Equal(t, []string{"enhanced", "hyde doc", "variant"}, q.AllSearchQueries())
}

func TestAllSearchQueriesFallsBackToOriginal(t *testing.T) {
	q := &EnhancedQuery{OriginalQuery: "orig"}
	assert.Equal(t, []string{"orig"}, q.AllSearchQueries())
}
