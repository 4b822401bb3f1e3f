package pipeline

import "math"

// Balance 配额均衡选择：输入已按分数降序，输出取前 limit 个并满足
// 各来源的最大/最小配额约束。单趟遍历按分数序入选，超出来源配额的
// 候选进入该来源的溢出队列（保持顺序）；email/knowledge_base 以外的
// 来源不设配额。遍历后若结果未满，先从溢出队列补齐各来源的最小配额，
// 再从仍有剩余的队列交替补齐（平局时 email 优先），直到达到 limit
// 或两个队列均为空。入选候选间的相对名次不会被重排。
// 均衡关闭时退化为朴素截断。
func Balance(candidates []Candidate, limit int, cfg EnsembleConfig) []Candidate {
	if limit <= 0 {
		return []Candidate{}
	}
	if !cfg.Enabled {
		if len(candidates) > limit {
			return candidates[:limit]
		}
		return candidates
	}

	maxEmail := int(math.Floor(float64(limit) * cfg.MaxEmailRatio))
	maxKB := int(math.Floor(float64(limit) * cfg.MaxKBRatio))

	result := make([]Candidate, 0, limit)
	var emailOverflow, kbOverflow []Candidate
	emailCount, kbCount := 0, 0

	admit := func(c Candidate, phase string) {
		result = append(result, c.withRecord(c.Score, BalanceRecord{
			Phase:    phase,
			Position: len(result),
		}))
	}

	for _, c := range candidates {
		switch c.Source {
		case SourceEmail:
			if len(result) < limit && emailCount < maxEmail {
				admit(c, "quota")
				emailCount++
			} else {
				emailOverflow = append(emailOverflow, c)
			}
		case SourceKnowledgeBase:
			if len(result) < limit && kbCount < maxKB {
				admit(c, "quota")
				kbCount++
			} else {
				kbOverflow = append(kbOverflow, c)
			}
		default:
			// 无配额来源：有空位即入选
			if len(result) < limit {
				admit(c, "quota")
			}
		}
	}

	// 先补齐各来源的最小配额
	for len(result) < limit && emailCount < cfg.MinEmailResults && len(emailOverflow) > 0 {
		admit(emailOverflow[0], "min_fill")
		emailOverflow = emailOverflow[1:]
		emailCount++
	}
	for len(result) < limit && kbCount < cfg.MinKBResults && len(kbOverflow) > 0 {
		admit(kbOverflow[0], "min_fill")
		kbOverflow = kbOverflow[1:]
		kbCount++
	}

	// 交替从溢出队列补齐，email 优先
	for len(result) < limit && (len(emailOverflow) > 0 || len(kbOverflow) > 0) {
		if len(emailOverflow) > 0 {
			admit(emailOverflow[0], "overflow_fill")
			emailOverflow = emailOverflow[1:]
			emailCount++
		}
		if len(result) < limit && len(kbOverflow) > 0 {
			admit(kbOverflow[0], "overflow_fill")
			kbOverflow = kbOverflow[1:]
			kbCount++
		}
	}

	return result
}
