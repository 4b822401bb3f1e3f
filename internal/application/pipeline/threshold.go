package pipeline

// FilterByThreshold 按来源的相关性下限过滤候选。
// 必须在融合之后执行：比较的是融合分数而不是各来源的原始分数。
// email 来源使用 emailThreshold，其余来源一律使用 kbThreshold。
// 返回值第二项是被过滤掉的候选分数（降序），仅用于观测。
func FilterByThreshold(candidates []Candidate, kbThreshold, emailThreshold float64) ([]Candidate, []float64) {
	out := make([]Candidate, 0, len(candidates))
	var dropped []float64

	for _, c := range candidates {
		threshold := kbThreshold
		if c.Source == SourceEmail {
			threshold = emailThreshold
		}
		if c.Score < threshold {
			dropped = append(dropped, c.Score)
			continue
		}
		out = append(out, c.withRecord(c.Score, ThresholdRecord{
			Threshold: threshold,
			Score:     c.Score,
		}))
	}

	return out, dropped
}
