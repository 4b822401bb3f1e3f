package pipeline

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return f.vec, f.err
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vec
	}
	return out, f.err
}

type fakeVectorSearch struct {
	results map[Source][]Candidate
	errs    map[Source]error
}

func (f *fakeVectorSearch) Search(_ context.Context, corpus Source, _ []float32, _ int, _ float64) ([]Candidate, error) {
	if err := f.errs[corpus]; err != nil {
		return nil, err
	}
	return f.results[corpus], nil
}

type fakeKeywordSearch struct {
	results map[Source][]Candidate
	errs    map[Source]error
}

func (f *fakeKeywordSearch) Search(_ context.Context, corpus Source, _ string, _ int) ([]Candidate, error) {
	if err := f.errs[corpus]; err != nil {
		return nil, err
	}
	return f.results[corpus], nil
}

func retrieverConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxResults = 5
	return cfg
}

func TestRetrieveBothCorpora(t *testing.T) {
	vector := &fakeVectorSearch{results: map[Source][]Candidate{
		SourceKnowledgeBase: {kbCand("k1", 0.9)},
		SourceEmail:         {emailCand("e1", 0.8)},
	}}
	r := NewRetriever(&fakeEmbedder{vec: []float32{0.1, 0.2}}, vector, nil)

	lists := r.Retrieve(context.Background(), "query", retrieverConfig())
	require.Len(t, lists, 2)
	assert.Equal(t, SourceKnowledgeBase, lists[0].Source)
	assert.Equal(t, MethodVector, lists[0].Method)
	assert.Equal(t, SourceEmail, lists[1].Source)
}

func TestRetrieveOneCorpusDegrades(t *testing.T) {
	vector := &fakeVectorSearch{
		results: map[Source][]Candidate{
			SourceKnowledgeBase: {kbCand("k1", 0.9)},
		},
		errs: map[Source]error{
			SourceEmail: errors.New("collection not loaded"),
		},
	}
	r := NewRetriever(&fakeEmbedder{vec: []float32{0.1}}, vector, nil)

	lists := r.Retrieve(context.Background(), "query", retrieverConfig())
	require.Len(t, lists, 1)
	assert.Equal(t, SourceKnowledgeBase, lists[0].Source)
}

func TestRetrieveEmbeddingFailureKeepsKeyword(t *testing.T) {
	keyword := &fakeKeywordSearch{results: map[Source][]Candidate{
		SourceKnowledgeBase: {kbCand("k1", 3.2)},
		SourceEmail:         {emailCand("e1", 2.1)},
	}}
	r := NewRetriever(&fakeEmbedder{err: errors.New("embedding api down")}, &fakeVectorSearch{}, keyword)

	cfg := retrieverConfig()
	cfg.HybridSearch = true
	lists := r.Retrieve(context.Background(), "query", cfg)
	require.Len(t, lists, 2)
	for _, l := range lists {
		assert.Equal(t, MethodKeyword, l.Method)
	}
}

func TestRetrieveHybridAllFourLists(t *testing.T) {
	vector := &fakeVectorSearch{results: map[Source][]Candidate{
		SourceKnowledgeBase: {kbCand("k1", 0.9)},
		SourceEmail:         {emailCand("e1", 0.8)},
	}}
	keyword := &fakeKeywordSearch{results: map[Source][]Candidate{
		SourceKnowledgeBase: {kbCand("k2", 5.0)},
		SourceEmail:         {emailCand("e2", 4.0)},
	}}
	r := NewRetriever(&fakeEmbedder{vec: []float32{0.1}}, vector, keyword)

	cfg := retrieverConfig()
	cfg.HybridSearch = true
	lists := r.Retrieve(context.Background(), "query", cfg)
	assert.Len(t, lists, 4)
}

func TestRetrieveNilVectorSearch(t *testing.T) {
	r := NewRetriever(&fakeEmbedder{vec: []float32{0.1}}, nil, nil)
	assert.Nil(t, r.Retrieve(context.Background(), "query", retrieverConfig()))
}

func TestNormalizeCandidatesDefensive(t *testing.T) {
	in := []Candidate{
		{ID: "  ", Score: 0.9},                                // 空 ID 剔除
		{ID: "a", Source: SourceOther, Score: math.NaN()},     // NaN 分数归零、来源强制
		{ID: "b", Score: 0.5, Metadata: map[string]string{"file_name": "guide.pdf"}},
		{ID: "c", Score: 0.7}, // 分数高于 b，排序兜底
	}

	out := normalizeCandidates(in, SourceKnowledgeBase)
	require.Len(t, out, 3)

	assert.Equal(t, "c", out[0].ID)
	assert.Equal(t, "b", out[1].ID)
	assert.Equal(t, "a", out[2].ID)
	assert.Equal(t, 0.0, out[2].Score)

	for _, c := range out {
		assert.Equal(t, SourceKnowledgeBase, c.Source)
	}
	assert.Equal(t, "guide.pdf", out[1].Title)
}

func TestNormalizeCandidatesTitleFromSubject(t *testing.T) {
	in := []Candidate{{ID: "e", Score: 0.5, Metadata: map[string]string{"subject": "Re: outage"}}}
	out := normalizeCandidates(in, SourceEmail)
	require.Len(t, out, 1)
	assert.Equal(t, "Re: outage", out[0].Title)
}
