package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kbCand(id string, score float64) Candidate {
	return Candidate{ID: id, Source: SourceKnowledgeBase, Content: "content " + id, Score: score}
}

func emailCand(id string, score float64) Candidate {
	return Candidate{ID: id, Source: SourceEmail, Content: "email " + id, Score: score}
}

func rrfConfig() FusionConfig {
	return FusionConfig{Method: FusionRRF, RRFK: 60, Combine: CombineMax}
}

func TestFuseRRFBothListsRankFirst(t *testing.T) {
	vector := RankedList{
		Source: SourceKnowledgeBase, Method: MethodVector,
		Items: []Candidate{kbCand("1", 0.9), kbCand("2", 0.8)},
	}
	keyword := RankedList{
		Source: SourceKnowledgeBase, Method: MethodKeyword,
		Items: []Candidate{kbCand("2", 12.5), kbCand("3", 8.1)},
	}

	out := Fuse([]RankedList{vector, keyword}, rrfConfig())
	require.Len(t, out, 3)

	// id=2 同时出现在两个列表中，必须排第一
	assert.Equal(t, "2", out[0].ID)
	// id=1（向量第 1 名）与 id=3（关键词第 2 名）... 两者分数：
	// id=1: 1/61, id=3: 1/62，id=1 在前
	assert.Equal(t, "1", out[1].ID)
	assert.Equal(t, "3", out[2].ID)

	expected := 1.0/61 + 1.0/62
	assert.InDelta(t, expected, out[0].Score, 1e-12)
}

func TestFuseRRFTieBreakByID(t *testing.T) {
	// 两个候选各只出现在一个列表的同一名次上：分数相同，按 ID 升序
	vector := RankedList{
		Source: SourceKnowledgeBase, Method: MethodVector,
		Items: []Candidate{kbCand("b", 0.9)},
	}
	keyword := RankedList{
		Source: SourceKnowledgeBase, Method: MethodKeyword,
		Items: []Candidate{kbCand("a", 3.0)},
	}

	out := Fuse([]RankedList{vector, keyword}, rrfConfig())
	require.Len(t, out, 2)
	assert.Equal(t, out[0].Score, out[1].Score)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "b", out[1].ID)
}

func TestFuseRRFRecordsRanks(t *testing.T) {
	vector := RankedList{
		Source: SourceKnowledgeBase, Method: MethodVector,
		Items: []Candidate{kbCand("1", 0.9)},
	}
	keyword := RankedList{
		Source: SourceKnowledgeBase, Method: MethodKeyword,
		Items: []Candidate{kbCand("2", 4.2)},
	}

	out := Fuse([]RankedList{vector, keyword}, rrfConfig())
	require.Len(t, out, 2)

	for _, c := range out {
		require.Len(t, c.History, 1)
		rec, ok := c.History[0].(FusionRecord)
		require.True(t, ok)
		require.Len(t, rec.Ranks, 2)

		// 一条有名次，另一条是缺席补位（rank 为 nil）
		var present, absent int
		for _, r := range rec.Ranks {
			if r.Rank != nil {
				present++
				assert.Equal(t, 1, *r.Rank)
			} else {
				absent++
				assert.Nil(t, r.Score)
			}
		}
		assert.Equal(t, 1, present)
		assert.Equal(t, 1, absent)
	}
}

func TestNormalizeMinMax(t *testing.T) {
	items := []Candidate{kbCand("a", 2.0), kbCand("b", 10.0), kbCand("c", 6.0)}
	out, identical := normalizeScores(items, NormalizeMinMax)
	assert.False(t, identical)
	assert.Equal(t, 0.0, out[0])
	assert.Equal(t, 1.0, out[1])
	assert.Equal(t, 0.5, out[2])
}

func TestNormalizeSingleItem(t *testing.T) {
	out, identical := normalizeScores([]Candidate{kbCand("a", 0.37)}, NormalizeMinMax)
	assert.False(t, identical)
	assert.Equal(t, 1.0, out[0])
}

func TestNormalizeIdenticalScores(t *testing.T) {
	items := []Candidate{kbCand("a", 0.5), kbCand("b", 0.5)}
	out, identical := normalizeScores(items, NormalizeMinMax)
	assert.True(t, identical)
	assert.Equal(t, []float64{1.0, 1.0}, out)
}

func TestNormalizeNonePassthrough(t *testing.T) {
	items := []Candidate{kbCand("a", 0.95)}
	out, identical := normalizeScores(items, NormalizeNone)
	assert.False(t, identical)
	assert.Equal(t, 0.95, out[0])
}

func TestNormalizeZScoreBounded(t *testing.T) {
	items := []Candidate{kbCand("a", 1.0), kbCand("b", 5.0), kbCand("c", 100.0)}
	out, _ := normalizeScores(items, NormalizeZScore)
	for _, v := range out {
		assert.Greater(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
	// 保序
	assert.Less(t, out[0], out[1])
	assert.Less(t, out[1], out[2])
}

func TestFuseWeighted(t *testing.T) {
	vector := RankedList{
		Source: SourceKnowledgeBase, Method: MethodVector,
		Items: []Candidate{kbCand("1", 0.9), kbCand("2", 0.5)},
	}
	keyword := RankedList{
		Source: SourceKnowledgeBase, Method: MethodKeyword,
		Items: []Candidate{kbCand("2", 10.0), kbCand("3", 2.0)},
	}
	cfg := FusionConfig{
		Method:        FusionWeighted,
		VectorWeight:  0.7,
		KeywordWeight: 0.3,
		Normalization: NormalizeMinMax,
	}

	out := Fuse([]RankedList{vector, keyword}, cfg)
	require.Len(t, out, 3)

	scores := make(map[string]float64)
	for _, c := range out {
		scores[c.ID] = c.Score
	}
	// id=1: 0.7*1.0, id=2: 0.7*0.0 + 0.3*1.0, id=3: 0.3*0.0
	assert.InDelta(t, 0.7, scores["1"], 1e-12)
	assert.InDelta(t, 0.3, scores["2"], 1e-12)
	assert.InDelta(t, 0.0, scores["3"], 1e-12)
	assert.Equal(t, "1", out[0].ID)
}

func TestMergeVariantsMax(t *testing.T) {
	runs := [][]Candidate{
		{kbCand("a", 0.6), kbCand("b", 0.4)},
		{kbCand("a", 0.8), kbCand("c", 0.5)},
	}
	out := MergeVariants(runs, FusionConfig{Combine: CombineMax})
	require.Len(t, out, 3)

	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, 0.8, out[0].Score)

	rec, ok := out[0].History[0].(MergeRecord)
	require.True(t, ok)
	assert.Equal(t, 2, rec.Occurrences)
	assert.Equal(t, "max", rec.Method)
}

func TestMergeVariantsAverage(t *testing.T) {
	runs := [][]Candidate{
		{kbCand("a", 0.6)},
		{kbCand("a", 0.8)},
	}
	out := MergeVariants(runs, FusionConfig{Combine: CombineAverage})
	require.Len(t, out, 1)
	assert.InDelta(t, 0.7, out[0].Score, 1e-12)
}

func TestMergeVariantsSumClamped(t *testing.T) {
	runs := [][]Candidate{
		{kbCand("a", 0.7)},
		{kbCand("a", 0.8)},
	}
	out := MergeVariants(runs, FusionConfig{Combine: CombineSum})
	require.Len(t, out, 1)
	assert.Equal(t, 1.0, out[0].Score)

	rec := out[0].History[0].(MergeRecord)
	assert.True(t, rec.Clamped)
}

func TestMergeVariantsOrderIndependent(t *testing.T) {
	a := [][]Candidate{
		{kbCand("a", 0.6), kbCand("b", 0.9)},
		{kbCand("a", 0.8)},
	}
	b := [][]Candidate{
		{kbCand("a", 0.8)},
		{kbCand("a", 0.6), kbCand("b", 0.9)},
	}
	outA := MergeVariants(a, FusionConfig{Combine: CombineMax})
	outB := MergeVariants(b, FusionConfig{Combine: CombineMax})
	require.Equal(t, len(outA), len(outB))
	for i := range outA {
		assert.Equal(t, outA[i].ID, outB[i].ID)
		assert.Equal(t, outA[i].Score, outB[i].Score)
	}
}

func TestFuseDoesNotMutateInput(t *testing.T) {
	orig := kbCand("1", 0.9)
	vector := RankedList{
		Source: SourceKnowledgeBase, Method: MethodVector,
		Items: []Candidate{orig},
	}
	out := Fuse([]RankedList{vector}, rrfConfig())
	require.Len(t, out, 1)
	assert.NotEqual(t, orig.Score, out[0].Score)
	assert.Empty(t, orig.History)
	assert.Len(t, out[0].History, 1)
}
