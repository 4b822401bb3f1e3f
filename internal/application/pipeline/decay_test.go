package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decayConfig() DecayConfig {
	return DecayConfig{Enabled: true, HalfLifeDays: 30, MinDecay: 0.1}
}

func emailAt(id string, score float64, sentAt time.Time) Candidate {
	c := emailCand(id, score)
	c.SentAt = &sentAt
	return c
}

func TestApplyDecayDisabledNoOp(t *testing.T) {
	now := time.Now()
	in := []Candidate{emailAt("e", 0.8, now.AddDate(-1, 0, 0))}
	out := ApplyDecay(in, DecayConfig{Enabled: false}, now)
	assert.Equal(t, 0.8, out[0].Score)
	assert.Empty(t, out[0].History)
}

func TestApplyDecayHalfLife(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	in := []Candidate{emailAt("e", 1.0, now.AddDate(0, 0, -30))}

	out := ApplyDecay(in, decayConfig(), now)
	require.Len(t, out, 1)

	// 30 天 = 一个半衰期：factor 0.5，score = 1.0 * (0.8 + 0.2*0.5) = 0.9
	assert.InDelta(t, 0.9, out[0].Score, 1e-9)

	rec, ok := out[0].History[0].(DecayRecord)
	require.True(t, ok)
	assert.InDelta(t, 0.5, rec.Factor, 1e-9)
	assert.InDelta(t, 30, rec.Days, 1e-6)
}

func TestApplyDecayMonotonicWithAge(t *testing.T) {
	now := time.Now()
	fresh := ApplyDecay([]Candidate{emailAt("e", 1.0, now.AddDate(0, 0, -1))}, decayConfig(), now)
	old := ApplyDecay([]Candidate{emailAt("e", 1.0, now.AddDate(0, 0, -90))}, decayConfig(), now)
	assert.Greater(t, fresh[0].Score, old[0].Score)
}

func TestApplyDecayLowerBound(t *testing.T) {
	now := time.Now()
	// 十年前的邮件：factor 被 minDecay 托底，分数不低于 score*(0.8+0.2*minDecay)
	in := []Candidate{emailAt("e", 1.0, now.AddDate(-10, 0, 0))}
	out := ApplyDecay(in, decayConfig(), now)
	assert.InDelta(t, 0.8+0.2*0.1, out[0].Score, 1e-9)
}

func TestApplyDecayFutureTimestampNoPenalty(t *testing.T) {
	now := time.Now()
	in := []Candidate{emailAt("e", 0.7, now.Add(48*time.Hour))}
	out := ApplyDecay(in, decayConfig(), now)
	// 未来时间戳按 0 天处理：factor=1，score 不变
	assert.InDelta(t, 0.7, out[0].Score, 1e-9)
}

func TestApplyDecaySkipsNonEmailAndMissingTimestamp(t *testing.T) {
	now := time.Now()
	kb := kbCand("k", 0.9)
	noTime := emailCand("e", 0.8)

	out := ApplyDecay([]Candidate{kb, noTime}, decayConfig(), now)
	require.Len(t, out, 2)
	for _, c := range out {
		assert.Empty(t, c.History)
	}
	assert.Equal(t, 0.9, out[0].Score)
	assert.Equal(t, 0.8, out[1].Score)
}

func TestApplyDecayResortsByScore(t *testing.T) {
	now := time.Now()
	// 旧邮件原本排第一，衰减后被新邮件反超
	older := emailAt("old", 0.82, now.AddDate(0, 0, -120))
	newer := emailAt("new", 0.80, now.AddDate(0, 0, -1))

	out := ApplyDecay([]Candidate{older, newer}, decayConfig(), now)
	require.Len(t, out, 2)
	assert.Equal(t, "new", out[0].ID)
	assert.Equal(t, "old", out[1].ID)
}
