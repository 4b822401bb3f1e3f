package pipeline

import (
	"math"
	"sort"
)

// Fuse 将单个查询串的多路召回列表（每个 (语料库, 方式) 一个有序列表）
// 融合为一个列表。列表内名次从 1 开始；候选不在某列表中时贡献 0。
// 输出按融合分数降序，同分时按 Key 升序，保证确定性。
func Fuse(lists []RankedList, cfg FusionConfig) []Candidate {
	if len(lists) == 0 {
		return nil
	}

	switch cfg.Method {
	case FusionWeighted:
		return fuseWeighted(lists, cfg)
	default:
		return fuseRRF(lists, cfg)
	}
}

type fusionEntry struct {
	base  Candidate
	score float64
	ranks []ListRank
}

// fuseRRF Reciprocal Rank Fusion：score = Σ 1/(k + rank)，对候选出现的
// 每个列表求和。同时出现在向量与关键词列表中的候选天然高于单列表候选。
func fuseRRF(lists []RankedList, cfg FusionConfig) []Candidate {
	entries := collectEntries(lists, func(e *fusionEntry, list RankedList, rank int, raw float64) {
		e.score += 1.0 / (cfg.RRFK + float64(rank))
	})
	padRanks(entries, lists)

	return finalizeFusion(entries, "rrf")
}

// fuseWeighted 加权融合：对每个列表先做归一化，再按召回方式加权求和。
func fuseWeighted(lists []RankedList, cfg FusionConfig) []Candidate {
	// 先逐列表归一化
	normed := make([][]float64, len(lists))
	identical := make([]bool, len(lists))
	for i, list := range lists {
		normed[i], identical[i] = normalizeScores(list.Items, cfg.Normalization)
	}

	entries := make(map[string]*fusionEntry)
	var order []string

	for li, list := range lists {
		weight := cfg.VectorWeight
		if list.Method == MethodKeyword {
			weight = cfg.KeywordWeight
		}
		for i, cand := range list.Items {
			key := cand.Key()
			e, ok := entries[key]
			if !ok {
				e = &fusionEntry{base: cand}
				entries[key] = e
				order = append(order, key)
			}
			rank := i + 1
			raw := cand.Score
			norm := normed[li][i]
			e.score += weight * norm
			e.ranks = append(e.ranks, ListRank{
				Source:          list.Source,
				Method:          list.Method,
				Rank:            &rank,
				Score:           &raw,
				NormScore:       &norm,
				IdenticalScores: identical[li],
			})
		}
	}

	padRanks(entries, lists)
	return finalizeOrdered(entries, order, "weighted")
}

// collectEntries 汇总各列表中候选的出现情况，visit 负责累加分数
func collectEntries(lists []RankedList, visit func(e *fusionEntry, list RankedList, rank int, raw float64)) map[string]*fusionEntry {
	entries := make(map[string]*fusionEntry)

	for _, list := range lists {
		for i, cand := range list.Items {
			key := cand.Key()
			e, ok := entries[key]
			if !ok {
				e = &fusionEntry{base: cand}
				entries[key] = e
			}
			rank := i + 1
			raw := cand.Score
			visit(e, list, rank, raw)
			e.ranks = append(e.ranks, ListRank{
				Source: list.Source,
				Method: list.Method,
				Rank:   &rank,
				Score:  &raw,
			})
		}
	}

	return entries
}

// padRanks 为候选所属语料库中未命中的列表补一条 rank 为 null 的记录，
// 审计记录中能直接看出候选缺席了哪一路召回。
func padRanks(entries map[string]*fusionEntry, lists []RankedList) {
	for _, e := range entries {
		for _, list := range lists {
			if list.Source != e.base.Source {
				continue
			}
			found := false
			for _, r := range e.ranks {
				if r.Source == list.Source && r.Method == list.Method {
					found = true
					break
				}
			}
			if !found {
				e.ranks = append(e.ranks, ListRank{Source: list.Source, Method: list.Method})
			}
		}
	}
}

func finalizeFusion(entries map[string]*fusionEntry, method string) []Candidate {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return finalizeOrdered(entries, keys, method)
}

func finalizeOrdered(entries map[string]*fusionEntry, order []string, method string) []Candidate {
	out := make([]Candidate, 0, len(entries))
	for _, key := range order {
		e, ok := entries[key]
		if !ok {
			continue
		}
		out = append(out, e.base.withRecord(e.score, FusionRecord{
			Method: method,
			Ranks:  e.ranks,
			Output: e.score,
		}))
	}

	// 分数降序；同分按 Key 升序，保证确定性
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Key() < out[j].Key()
	})
	return out
}

// normalizeScores 列表内分数归一化。
// 边界：单元素列表 -> 1.0；分数全部相同 -> 全部 1.0 并打 identical 标记。
func normalizeScores(items []Candidate, method NormalizeMethod) ([]float64, bool) {
	n := len(items)
	out := make([]float64, n)
	if n == 0 {
		return out, false
	}

	// none/robust：原样透传，不做任何归一化
	if method == NormalizeNone {
		for i, c := range items {
			out[i] = c.Score
		}
		return out, false
	}

	if n == 1 {
		out[0] = 1.0
		return out, false
	}

	minV, maxV := items[0].Score, items[0].Score
	sum := 0.0
	for _, c := range items {
		if c.Score < minV {
			minV = c.Score
		}
		if c.Score > maxV {
			maxV = c.Score
		}
		sum += c.Score
	}

	if maxV == minV {
		for i := range out {
			out[i] = 1.0
		}
		return out, true
	}

	switch method {
	case NormalizeZScore:
		mean := sum / float64(n)
		variance := 0.0
		for _, c := range items {
			d := c.Score - mean
			variance += d * d
		}
		std := math.Sqrt(variance / float64(n))
		for i, c := range items {
			z := (c.Score - mean) / std
			// sigmoid 压缩到 (0,1)，抑制离群值
			out[i] = 1.0 / (1.0 + math.Exp(-z))
		}
	default: // minmax
		for i, c := range items {
			out[i] = (c.Score - minV) / (maxV - minV)
		}
	}
	return out, false
}

// MergeVariants 跨查询变体合并：按 Key 分组，重复出现的候选分数按
// 配置的合并方式组合（sum 截断到 1.0，避免多变体同时命中导致分数失控）。
// 合并按 Key 分组，与变体执行顺序无关。输出按合并分数降序。
func MergeVariants(runs [][]Candidate, cfg FusionConfig) []Candidate {
	type mergeEntry struct {
		base   Candidate
		inputs []float64
	}

	entries := make(map[string]*mergeEntry)
	var order []string

	for _, run := range runs {
		for _, cand := range run {
			key := cand.Key()
			e, ok := entries[key]
			if !ok {
				e = &mergeEntry{base: cand}
				entries[key] = e
				order = append(order, key)
			}
			e.inputs = append(e.inputs, cand.Score)
		}
	}

	method := cfg.Combine
	out := make([]Candidate, 0, len(entries))
	for _, key := range order {
		e := entries[key]
		combined, clamped := combineScores(e.inputs, method)
		out = append(out, e.base.withRecord(combined, MergeRecord{
			Method:      string(method),
			Occurrences: len(e.inputs),
			Inputs:      e.inputs,
			Output:      combined,
			Clamped:     clamped,
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

func combineScores(inputs []float64, method CombineMethod) (float64, bool) {
	if len(inputs) == 0 {
		return 0, false
	}
	switch method {
	case CombineAverage:
		sum := 0.0
		for _, s := range inputs {
			sum += s
		}
		return sum / float64(len(inputs)), false
	case CombineSum:
		sum := 0.0
		for _, s := range inputs {
			sum += s
		}
		if sum > 1.0 {
			return 1.0, true
		}
		return sum, false
	default: // max
		maxV := inputs[0]
		for _, s := range inputs[1:] {
			if s > maxV {
				maxV = s
			}
		}
		return maxV, false
	}
}
