package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterByThresholdPerSource(t *testing.T) {
	candidates := []Candidate{
		kbCand("k1", 0.9),
		kbCand("k2", 0.3),
		emailCand("e1", 0.28),
		emailCand("e2", 0.2),
	}

	out, dropped := FilterByThreshold(candidates, 0.5, 0.25)
	require.Len(t, out, 2)
	assert.Equal(t, "k1", out[0].ID)
	assert.Equal(t, "e1", out[1].ID)
	assert.ElementsMatch(t, []float64{0.3, 0.2}, dropped)
}

func TestFilterByThresholdBoundaryPasses(t *testing.T) {
	out, dropped := FilterByThreshold([]Candidate{kbCand("k", 0.5)}, 0.5, 0.25)
	require.Len(t, out, 1)
	assert.Empty(t, dropped)
}

func TestFilterByThresholdOtherSourceUsesKBThreshold(t *testing.T) {
	c := Candidate{ID: "x", Source: SourceOther, Score: 0.4}
	out, _ := FilterByThreshold([]Candidate{c}, 0.5, 0.1)
	assert.Empty(t, out)

	out, _ = FilterByThreshold([]Candidate{c}, 0.3, 0.9)
	assert.Len(t, out, 1)
}

func TestFilterByThresholdRecordsPass(t *testing.T) {
	out, _ := FilterByThreshold([]Candidate{emailCand("e", 0.7)}, 0.5, 0.25)
	require.Len(t, out, 1)
	rec, ok := out[0].History[0].(ThresholdRecord)
	require.True(t, ok)
	assert.Equal(t, 0.25, rec.Threshold)
	assert.Equal(t, 0.7, rec.Score)
}

func TestFilterByThresholdPreservesOrder(t *testing.T) {
	candidates := []Candidate{
		kbCand("a", 0.9),
		kbCand("b", 0.1),
		kbCand("c", 0.8),
		kbCand("d", 0.7),
	}
	out, _ := FilterByThreshold(candidates, 0.5, 0.5)
	require.Len(t, out, 3)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "c", out[1].ID)
	assert.Equal(t, "d", out[2].ID)
}
