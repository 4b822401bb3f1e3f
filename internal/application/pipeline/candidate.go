// Package pipeline 实现多阶段检索融合与重排流水线：
// 查询增强 -> 多源召回 -> 分数融合 -> 阈值过滤 -> 时间衰减 -> 重排 -> 配额均衡。
// 除召回阶段外，所有阶段都是纯函数：输入候选列表，输出更新后的副本列表。
package pipeline

import (
	"time"
)

// Source 候选来源语料库
type Source string

const (
	SourceKnowledgeBase Source = "knowledge_base"
	SourceEmail         Source = "email"
	SourceOther         Source = "other"
)

// Method 召回方式
type Method string

const (
	MethodVector  Method = "vector"
	MethodKeyword Method = "keyword"
)

// Candidate 流经所有阶段的候选单元。
// Score 始终是下一阶段读取的规范分数；各阶段的输入输出快照
// 记录在 History（只追加的阶段审计记录）中，消费方只读 Score。
type Candidate struct {
	ID      string  `json:"id"`
	Source  Source  `json:"source"`
	Title   string  `json:"title,omitempty"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`

	// SentAt 仅邮件候选携带，时间衰减阶段使用
	SentAt *time.Time `json:"sent_at,omitempty"`

	Metadata map[string]string `json:"metadata,omitempty"`

	// History 阶段审计轨迹：候选每通过一个阶段追加一条记录；
	// 被过滤掉的候选直接从下一阶段的输入中消失，不做墓碑标记。
	History []StageRecord `json:"history,omitempty"`
}

// Key 跨语料库的全局唯一键（ID 仅保证在单个语料库内唯一）
func (c Candidate) Key() string {
	return string(c.Source) + ":" + c.ID
}

// withRecord 返回追加了阶段记录并更新分数的候选副本。
// History 底层数组不与原候选共享，保证阶段间的值语义。
func (c Candidate) withRecord(score float64, rec StageRecord) Candidate {
	h := make([]StageRecord, len(c.History), len(c.History)+1)
	copy(h, c.History)
	c.History = append(h, rec)
	c.Score = score
	return c
}

// StageRecord 阶段审计记录（按阶段打标签的变体类型）
type StageRecord interface {
	StageName() string
}

// ListRank 候选在某个召回列表中的名次与原始分数；
// 不在该列表中时 Rank/Score 为 nil。
type ListRank struct {
	Source Source   `json:"source"`
	Method Method   `json:"method"`
	Rank   *int     `json:"rank"`
	Score  *float64 `json:"score"`
	// NormScore 加权融合时的归一化分数
	NormScore *float64 `json:"norm_score,omitempty"`
	// IdenticalScores 列表内分数全部相同（归一化整体置 1.0），非错误
	IdenticalScores bool `json:"identical_scores,omitempty"`
}

// FusionRecord 向量+关键词融合记录（RRF 或加权融合）
type FusionRecord struct {
	Method string     `json:"method"`
	Ranks  []ListRank `json:"ranks"`
	Output float64    `json:"output"`
}

func (FusionRecord) StageName() string { return "fusion" }

// MergeRecord 跨查询变体合并记录
type MergeRecord struct {
	Method      string    `json:"method"`
	Occurrences int       `json:"occurrences"`
	Inputs      []float64 `json:"inputs"`
	Output      float64   `json:"output"`
	Clamped     bool      `json:"clamped,omitempty"`
}

func (MergeRecord) StageName() string { return "merge" }

// ThresholdRecord 阈值过滤记录（仅通过者携带）
type ThresholdRecord struct {
	Threshold float64 `json:"threshold"`
	Score     float64 `json:"score"`
}

func (ThresholdRecord) StageName() string { return "threshold" }

// DecayRecord 时间衰减记录
type DecayRecord struct {
	Days   float64 `json:"days"`
	Factor float64 `json:"factor"`
	Input  float64 `json:"input"`
	Output float64 `json:"output"`
}

func (DecayRecord) StageName() string { return "decay" }

// BoostRecord 词面匹配加权记录
type BoostRecord struct {
	MatchRatio float64 `json:"match_ratio"`
	Boost      float64 `json:"boost"`
	Dynamic    bool    `json:"dynamic,omitempty"`
	Input      float64 `json:"input"`
	Output     float64 `json:"output"`
}

func (BoostRecord) StageName() string { return "boost" }

// MMRRecord MMR 选择记录
type MMRRecord struct {
	Lambda        float64 `json:"lambda"`
	Relevance     float64 `json:"relevance"`
	MaxSimilarity float64 `json:"max_similarity"`
	MMRScore      float64 `json:"mmr_score"`
	Position      int     `json:"position"`
}

func (MMRRecord) StageName() string { return "mmr" }

// DiversityRecord 简单多样性过滤记录
type DiversityRecord struct {
	MaxSimilarity float64 `json:"max_similarity"`
	Threshold     float64 `json:"threshold"`
	Position      int     `json:"position"`
}

func (DiversityRecord) StageName() string { return "diversity" }

// BalanceRecord 配额均衡记录
type BalanceRecord struct {
	// Phase quota（配额内直接入选）/ min_fill（最小配额补齐）/ overflow_fill（溢出补齐）
	Phase    string `json:"phase"`
	Position int    `json:"position"`
}

func (BalanceRecord) StageName() string { return "balance" }

// RankedList 单个 (语料库, 召回方式) 的有序候选列表，融合阶段的输入
type RankedList struct {
	Source Source
	Method Method
	Items  []Candidate
}

// HistoryTurn 会话历史轮次，查询增强的上下文注入使用
type HistoryTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// EnhancedQuery 查询增强结果
type EnhancedQuery struct {
	OriginalQuery string   `json:"original_query"`
	EnhancedQuery string   `json:"enhanced_query"`
	HyDEDocument  string   `json:"hyde_document,omitempty"`
	QueryVariants []string `json:"query_variants"`
}

// AllSearchQueries 返回实际用于召回扇出的查询列表：
// {enhancedQuery, hydeDocument, variants...} 去重、去空的并集，
// 保持首见插入顺序以保证确定性；为空时回退到 [originalQuery]。
func (q *EnhancedQuery) AllSearchQueries() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	add(q.EnhancedQuery)
	add(q.HyDEDocument)
	for _, v := range q.QueryVariants {
		add(v)
	}

	if len(out) == 0 && q.OriginalQuery != "" {
		out = append(out, q.OriginalQuery)
	}
	return out
}
