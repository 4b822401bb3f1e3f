package pipeline

import (
	"sort"
	"strings"
)

// Tokenize 词面比较共用的分词：小写、按空白切分、丢弃长度 <= 2 的词元
func Tokenize(s string) []string {
	fields := strings.Fields(strings.ToLower(s))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) > 2 {
			out = append(out, f)
		}
	}
	return out
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range Tokenize(s) {
		set[t] = struct{}{}
	}
	return set
}

// JaccardSimilarity 词元集合的交并比；空并集返回 0
func JaccardSimilarity(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	return jaccard(setA, setB)
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Rerank 重排：先做词面匹配加权（启用时），再执行多样性选择
// （MMR 优先于简单多样性过滤；两者都未启用时直接截断到 finalK）。
func Rerank(query string, candidates []Candidate, cfg RerankConfig, finalK int) []Candidate {
	if finalK <= 0 {
		finalK = len(candidates)
	}

	out := candidates
	if cfg.SemanticBoost {
		out = applySemanticBoost(query, out, cfg)
	}

	switch {
	case cfg.UseMMR:
		out = selectMMR(out, cfg.MMRLambda, finalK)
	case cfg.DiversityFilter:
		out = filterDiversity(out, cfg.DiversityThreshold, finalK)
	default:
		if len(out) > finalK {
			out = out[:finalK]
		}
	}
	return out
}

// applySemanticBoost 词面重合加权：matchRatio = 命中查询词数 / 查询词总数。
// 当前分数低于 MinBoostThreshold 的候选不加权——加权不用来拯救低置信结果。
func applySemanticBoost(query string, candidates []Candidate, cfg RerankConfig) []Candidate {
	queryTerms := Tokenize(query)
	out := make([]Candidate, 0, len(candidates))

	for _, c := range candidates {
		if len(queryTerms) == 0 || c.Score < cfg.MinBoostThreshold {
			out = append(out, c.withRecord(c.Score, BoostRecord{
				Input:  c.Score,
				Output: c.Score,
			}))
			continue
		}

		content := tokenSet(c.Content + " " + c.Title)
		matching := 0
		for _, t := range queryTerms {
			if _, ok := content[t]; ok {
				matching++
			}
		}
		ratio := float64(matching) / float64(len(queryTerms))

		var boost float64
		if cfg.DynamicBoost {
			boost = ratio * cfg.MaxBoost * (1 + ratio)
			if boost > 2*cfg.MaxBoost {
				boost = 2 * cfg.MaxBoost
			}
		} else {
			boost = ratio * cfg.MaxBoost
			if boost > cfg.MaxBoost {
				boost = cfg.MaxBoost
			}
		}

		score := clamp01(c.Score + boost)
		out = append(out, c.withRecord(score, BoostRecord{
			MatchRatio: ratio,
			Boost:      boost,
			Dynamic:    cfg.DynamicBoost,
			Input:      c.Score,
			Output:     score,
		}))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Key() < out[j].Key()
	})
	return out
}

// selectMMR Maximal Marginal Relevance 贪心选择：
//
//	mmr = λ·relevance − (1−λ)·maxSimilarityToSelected，截断到 [0,1]
//
// 已选集为空时 mmr 精确等于 relevance（无惩罚）。相似度用候选内容的
// Jaccard 词元重合，不用向量。候选池 n 的复杂度为 O(n²)，在
// n <= 2×maxResults 的典型规模下可接受。
func selectMMR(candidates []Candidate, lambda float64, finalK int) []Candidate {
	if len(candidates) == 0 {
		return nil
	}

	remaining := make([]Candidate, len(candidates))
	copy(remaining, candidates)
	tokens := make([]map[string]struct{}, len(remaining))
	for i, c := range remaining {
		tokens[i] = tokenSet(c.Content)
	}

	selected := make([]Candidate, 0, finalK)
	selectedTokens := make([]map[string]struct{}, 0, finalK)

	for len(selected) < finalK && len(remaining) > 0 {
		bestIdx := -1
		bestScore := -1.0
		var bestRecord MMRRecord

		for i, c := range remaining {
			maxSim := 0.0
			for _, st := range selectedTokens {
				if sim := jaccard(tokens[i], st); sim > maxSim {
					maxSim = sim
				}
			}

			var mmr float64
			if len(selected) == 0 {
				mmr = c.Score
			} else {
				mmr = clamp01(lambda*c.Score - (1-lambda)*maxSim)
			}

			if mmr > bestScore {
				bestIdx = i
				bestScore = mmr
				bestRecord = MMRRecord{
					Lambda:        lambda,
					Relevance:     c.Score,
					MaxSimilarity: maxSim,
					MMRScore:      mmr,
					Position:      len(selected),
				}
			}
		}

		picked := remaining[bestIdx]
		selected = append(selected, picked.withRecord(picked.Score, bestRecord))
		selectedTokens = append(selectedTokens, tokens[bestIdx])

		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
		tokens = append(tokens[:bestIdx], tokens[bestIdx+1:]...)
	}

	return selected
}

// filterDiversity 简单多样性过滤：始终保留分数最高的候选；
// 其后的候选仅当与所有已保留候选的 Jaccard 相似度都低于阈值时保留。
func filterDiversity(candidates []Candidate, threshold float64, finalK int) []Candidate {
	if len(candidates) == 0 {
		return nil
	}

	kept := make([]Candidate, 0, finalK)
	keptTokens := make([]map[string]struct{}, 0, finalK)

	for i, c := range candidates {
		if len(kept) >= finalK {
			break
		}
		ct := tokenSet(c.Content)

		maxSim := 0.0
		if i > 0 {
			for _, kt := range keptTokens {
				if sim := jaccard(ct, kt); sim > maxSim {
					maxSim = sim
				}
			}
			if len(kept) > 0 && maxSim >= threshold {
				continue
			}
		}

		kept = append(kept, c.withRecord(c.Score, DiversityRecord{
			MaxSimilarity: maxSim,
			Threshold:     threshold,
			Position:      len(kept),
		}))
		keptTokens = append(keptTokens, ct)
	}

	return kept
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
