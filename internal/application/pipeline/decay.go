package pipeline

import (
	"math"
	"sort"
	"time"
)

// ApplyDecay 对带时间戳的邮件候选施加指数衰减惩罚：
//
//	days = max(0, now-sentAt 的天数)
//	factor = max(minDecay, exp(-days/halfLife * ln2))
//	score' = score * (0.8 + 0.2*factor)
//
// 衰减最多压低 20% 分数，并受 minDecay 下限保护。
// 非邮件来源、缺失或无法解析的时间戳一律原样通过，不报错。
func ApplyDecay(candidates []Candidate, cfg DecayConfig, now time.Time) []Candidate {
	if !cfg.Enabled {
		return candidates
	}

	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Source != SourceEmail || c.SentAt == nil || c.SentAt.IsZero() {
			out = append(out, c)
			continue
		}

		days := now.Sub(*c.SentAt).Hours() / 24
		if days < 0 {
			days = 0
		}

		factor := math.Exp(-days / cfg.HalfLifeDays * math.Ln2)
		if factor < cfg.MinDecay {
			factor = cfg.MinDecay
		}

		score := c.Score * (0.8 + 0.2*factor)
		out = append(out, c.withRecord(score, DecayRecord{
			Days:   days,
			Factor: factor,
			Input:  c.Score,
			Output: score,
		}))
	}

	// 衰减可能改变相对顺序，重新按分数降序排列
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Key() < out[j].Key()
	})
	return out
}
