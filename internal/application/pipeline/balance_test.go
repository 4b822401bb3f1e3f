package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ensembleConfig() EnsembleConfig {
	return EnsembleConfig{
		Enabled:         true,
		MaxEmailRatio:   0.6,
		MaxKBRatio:      0.8,
		MinEmailResults: 1,
		MinKBResults:    1,
	}
}

func TestBalanceDisabledTruncates(t *testing.T) {
	in := []Candidate{emailCand("e1", 0.9), emailCand("e2", 0.8), emailCand("e3", 0.7)}
	out := Balance(in, 2, EnsembleConfig{Enabled: false})
	require.Len(t, out, 2)
	assert.Equal(t, "e1", out[0].ID)
	assert.Empty(t, out[0].History)
}

func TestBalanceSingleSourceFillsToLimit(t *testing.T) {
	// 10 封邮件、limit 5、ratio 0.6：配额 3，剩余 2 个空位由溢出补齐
	in := make([]Candidate, 0, 10)
	for i := 0; i < 10; i++ {
		in = append(in, emailCand(string(rune('a'+i)), 1.0-float64(i)*0.05))
	}

	out := Balance(in, 5, ensembleConfig())
	require.Len(t, out, 5)

	phases := make([]string, 0, 5)
	for i, c := range out {
		// 相对名次不变：仍是分数降序的前 5 个
		assert.Equal(t, in[i].ID, c.ID)
		rec := c.History[0].(BalanceRecord)
		phases = append(phases, rec.Phase)
		assert.Equal(t, i, rec.Position)
	}
	assert.Equal(t, []string{"quota", "quota", "quota", "overflow_fill", "overflow_fill"}, phases)
}

func TestBalanceCapsEmailQuota(t *testing.T) {
	in := []Candidate{
		emailCand("e1", 0.95),
		emailCand("e2", 0.90),
		emailCand("e3", 0.85),
		emailCand("e4", 0.80),
		kbCand("k1", 0.75),
		kbCand("k2", 0.70),
	}

	out := Balance(in, 5, ensembleConfig())
	require.Len(t, out, 5)

	// 邮件配额 floor(5*0.6)=3：第 4 封邮件让位给知识库
	ids := make([]string, 0, 5)
	for _, c := range out {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"e1", "e2", "e3", "k1", "k2"}, ids)
}

func TestBalanceMinFillTopsUpStarvedSource(t *testing.T) {
	cfg := ensembleConfig()
	cfg.MaxEmailRatio = 0.2 // limit 4 -> 配额 0
	in := []Candidate{
		emailCand("e1", 0.95),
		kbCand("k1", 0.90),
		kbCand("k2", 0.85),
		kbCand("k3", 0.80),
	}

	out := Balance(in, 4, cfg)
	require.Len(t, out, 4)

	var emailPhase string
	for _, c := range out {
		if c.Source == SourceEmail {
			emailPhase = c.History[0].(BalanceRecord).Phase
		}
	}
	assert.Equal(t, "min_fill", emailPhase)
}

func TestBalanceResultNeverExceedsLimit(t *testing.T) {
	in := []Candidate{
		emailCand("e1", 0.9), emailCand("e2", 0.8),
		kbCand("k1", 0.7), kbCand("k2", 0.6),
	}
	for limit := 1; limit <= 6; limit++ {
		out := Balance(in, limit, ensembleConfig())
		want := limit
		if want > len(in) {
			want = len(in)
		}
		assert.Len(t, out, want, "limit=%d", limit)
	}
}

func TestBalanceUnquotedSourcePassesThrough(t *testing.T) {
	other := Candidate{ID: "o1", Source: SourceOther, Score: 0.99}
	in := []Candidate{other, emailCand("e1", 0.9), kbCand("k1", 0.8)}

	out := Balance(in, 3, ensembleConfig())
	require.Len(t, out, 3)
	assert.Equal(t, "o1", out[0].ID)
}

func TestBalanceZeroLimit(t *testing.T) {
	out := Balance([]Candidate{emailCand("e1", 0.9)}, 0, ensembleConfig())
	assert.Empty(t, out)
}

func TestBalanceOverflowAlternatesEmailFirst(t *testing.T) {
	cfg := ensembleConfig()
	cfg.MaxEmailRatio = 0.25 // limit 4 -> email 配额 1
	cfg.MaxKBRatio = 0.25    // kb 配额 1
	in := []Candidate{
		emailCand("e1", 0.95),
		emailCand("e2", 0.90),
		kbCand("k1", 0.85),
		kbCand("k2", 0.80),
	}

	out := Balance(in, 4, cfg)
	require.Len(t, out, 4)

	ids := make([]string, 0, 4)
	for _, c := range out {
		ids = append(ids, c.ID)
	}
	// 配额轮：e1(quota)、k1(quota)；溢出交替补齐 email 优先：e2、k2
	assert.Equal(t, []string{"e1", "k1", "e2", "k2"}, ids)
}
