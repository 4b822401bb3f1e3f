package pipeline

// FusionMethod 向量+关键词融合算法
type FusionMethod string

const (
	FusionRRF      FusionMethod = "rrf"
	FusionWeighted FusionMethod = "weighted"
)

// NormalizeMethod 加权融合前的列表内分数归一化方式
type NormalizeMethod string

const (
	NormalizeMinMax NormalizeMethod = "minmax"
	NormalizeZScore NormalizeMethod = "zscore"
	NormalizeNone   NormalizeMethod = "none"
)

// CombineMethod 跨查询变体的重复候选分数合并方式
type CombineMethod string

const (
	CombineMax     CombineMethod = "max"
	CombineAverage CombineMethod = "average"
	CombineSum     CombineMethod = "sum"
)

// FusionConfig 融合阶段配置
type FusionConfig struct {
	Method        FusionMethod    `json:"method"`
	RRFK          float64         `json:"rrf_k"`
	VectorWeight  float64         `json:"vector_weight"`
	KeywordWeight float64         `json:"keyword_weight"`
	Normalization NormalizeMethod `json:"normalization"`
	Combine       CombineMethod   `json:"combine"`
}

// RerankConfig 重排阶段配置
type RerankConfig struct {
	// SemanticBoost 是否启用词面重合加权
	SemanticBoost bool `json:"semantic_boost"`
	// DynamicBoost 按匹配度放大加权幅度（上限 2×MaxBoost）
	DynamicBoost bool    `json:"dynamic_boost"`
	MaxBoost     float64 `json:"max_boost"`
	// MinBoostThreshold 低于该分数的候选不参与加权，避免抬高低置信结果
	MinBoostThreshold float64 `json:"min_boost_threshold"`

	// UseMMR 与 DiversityFilter 互斥，UseMMR 优先
	UseMMR             bool    `json:"use_mmr"`
	MMRLambda          float64 `json:"mmr_lambda"`
	DiversityFilter    bool    `json:"diversity_filter"`
	DiversityThreshold float64 `json:"diversity_threshold"`
}

// DecayConfig 时间衰减配置（仅作用于邮件候选）
type DecayConfig struct {
	Enabled      bool    `json:"enabled"`
	HalfLifeDays float64 `json:"half_life_days"`
	MinDecay     float64 `json:"min_decay"`
}

// EnsembleConfig 配额均衡配置
type EnsembleConfig struct {
	Enabled         bool    `json:"enabled"`
	MaxEmailRatio   float64 `json:"max_email_ratio"`
	MaxKBRatio      float64 `json:"max_kb_ratio"`
	MinEmailResults int     `json:"min_email_results"`
	MinKBResults    int     `json:"min_kb_results"`
}

// EnhanceConfig 查询增强配置，三个步骤可独立开关、独立容错
type EnhanceConfig struct {
	ContextRewrite bool `json:"context_rewrite"`
	// HistoryTurns 上下文改写使用的最近历史轮次数
	HistoryTurns int  `json:"history_turns"`
	HyDE         bool `json:"hyde"`
	MultiQuery   bool `json:"multi_query"`
	VariantCount int  `json:"variant_count"`
	// FallbackOnError 为 false 时上下文改写失败直接上抛，不回退原始查询
	FallbackOnError bool `json:"fallback_on_error"`
}

// Config 单次流水线调用的完整配置。
// 入口处由 显式覆盖 -> 知识库存储配置 -> 系统默认 三层一次性解析得到，
// 调用期间只读，各阶段不再做任何兜底解析。
type Config struct {
	KBThreshold    float64 `json:"kb_threshold"`
	EmailThreshold float64 `json:"email_threshold"`
	MaxResults     int     `json:"max_results"`
	// HybridSearch 是否叠加关键词（BM25）召回
	HybridSearch bool `json:"hybrid_search"`

	Enhance  EnhanceConfig  `json:"enhance"`
	Fusion   FusionConfig   `json:"fusion"`
	Rerank   RerankConfig   `json:"rerank"`
	Decay    DecayConfig    `json:"decay"`
	Ensemble EnsembleConfig `json:"ensemble"`
}

// DefaultConfig 系统默认配置
func DefaultConfig() Config {
	return Config{
		KBThreshold:    0.3,
		EmailThreshold: 0.25,
		MaxResults:     10,
		HybridSearch:   false,
		Enhance: EnhanceConfig{
			ContextRewrite:  true,
			HistoryTurns:    6,
			HyDE:            false,
			MultiQuery:      false,
			VariantCount:    3,
			FallbackOnError: true,
		},
		Fusion: FusionConfig{
			Method:        FusionRRF,
			RRFK:          60,
			VectorWeight:  0.7,
			KeywordWeight: 0.3,
			Normalization: NormalizeMinMax,
			Combine:       CombineMax,
		},
		Rerank: RerankConfig{
			SemanticBoost:      true,
			DynamicBoost:       false,
			MaxBoost:           0.15,
			MinBoostThreshold:  0.3,
			UseMMR:             false,
			MMRLambda:          0.7,
			DiversityFilter:    false,
			DiversityThreshold: 0.85,
		},
		Decay: DecayConfig{
			Enabled:      true,
			HalfLifeDays: 30,
			MinDecay:     0.1,
		},
		Ensemble: EnsembleConfig{
			Enabled:         true,
			MaxEmailRatio:   0.6,
			MaxKBRatio:      0.8,
			MinEmailResults: 1,
			MinKBResults:    1,
		},
	}
}

// Normalized 返回修正了非法取值的配置副本，流水线入口调用一次
func (c Config) Normalized() Config {
	def := DefaultConfig()

	if c.MaxResults <= 0 {
		c.MaxResults = def.MaxResults
	}
	if c.KBThreshold < 0 {
		c.KBThreshold = 0
	}
	if c.EmailThreshold < 0 {
		c.EmailThreshold = 0
	}

	switch c.Fusion.Method {
	case FusionRRF, FusionWeighted:
	default:
		c.Fusion.Method = FusionRRF
	}
	if c.Fusion.RRFK <= 0 {
		c.Fusion.RRFK = def.Fusion.RRFK
	}
	if c.Fusion.VectorWeight <= 0 && c.Fusion.KeywordWeight <= 0 {
		c.Fusion.VectorWeight = def.Fusion.VectorWeight
		c.Fusion.KeywordWeight = def.Fusion.KeywordWeight
	}
	switch c.Fusion.Normalization {
	case NormalizeMinMax, NormalizeZScore, NormalizeNone:
	default:
		c.Fusion.Normalization = def.Fusion.Normalization
	}
	switch c.Fusion.Combine {
	case CombineMax, CombineAverage, CombineSum:
	default:
		c.Fusion.Combine = def.Fusion.Combine
	}

	if c.Rerank.MaxBoost <= 0 {
		c.Rerank.MaxBoost = def.Rerank.MaxBoost
	}
	if c.Rerank.MMRLambda <= 0 || c.Rerank.MMRLambda > 1 {
		c.Rerank.MMRLambda = def.Rerank.MMRLambda
	}
	if c.Rerank.DiversityThreshold <= 0 || c.Rerank.DiversityThreshold > 1 {
		c.Rerank.DiversityThreshold = def.Rerank.DiversityThreshold
	}

	if c.Decay.HalfLifeDays <= 0 {
		c.Decay.HalfLifeDays = def.Decay.HalfLifeDays
	}
	if c.Decay.MinDecay <= 0 || c.Decay.MinDecay > 1 {
		c.Decay.MinDecay = def.Decay.MinDecay
	}

	if c.Ensemble.MaxEmailRatio <= 0 || c.Ensemble.MaxEmailRatio > 1 {
		c.Ensemble.MaxEmailRatio = def.Ensemble.MaxEmailRatio
	}
	if c.Ensemble.MaxKBRatio <= 0 || c.Ensemble.MaxKBRatio > 1 {
		c.Ensemble.MaxKBRatio = def.Ensemble.MaxKBRatio
	}
	if c.Ensemble.MinEmailResults < 0 {
		c.Ensemble.MinEmailResults = 0
	}
	if c.Ensemble.MinKBResults < 0 {
		c.Ensemble.MinKBResults = 0
	}

	if c.Enhance.HistoryTurns <= 0 {
		c.Enhance.HistoryTurns = def.Enhance.HistoryTurns
	}
	if c.Enhance.VariantCount <= 0 {
		c.Enhance.VariantCount = def.Enhance.VariantCount
	}

	return c
}
