// Package ragconfig 负责检索流水线配置的三层解析：
// 请求覆盖 -> 知识库存储配置 -> 系统默认。
package ragconfig

import (
	"inbox-rag-api/internal/application/pipeline"
	"inbox-rag-api/internal/config"
)

// PipelineDefaults 把系统配置的 rag 段映射为流水线默认配置
func PipelineDefaults(cfg *config.RAGConfig) pipeline.Config {
	if cfg == nil {
		return pipeline.DefaultConfig()
	}
	return pipeline.Config{
		KBThreshold:    cfg.KBThreshold,
		EmailThreshold: cfg.EmailThreshold,
		MaxResults:     cfg.MaxResults,
		HybridSearch:   cfg.HybridSearch,
		Enhance: pipeline.EnhanceConfig{
			ContextRewrite:  cfg.Enhance.ContextRewrite,
			HistoryTurns:    cfg.Enhance.HistoryTurns,
			HyDE:            cfg.Enhance.HyDE,
			MultiQuery:      cfg.Enhance.MultiQuery,
			VariantCount:    cfg.Enhance.VariantCount,
			FallbackOnError: cfg.Enhance.FallbackOnError,
		},
		Fusion: pipeline.FusionConfig{
			Method:        pipeline.FusionMethod(cfg.Fusion.Method),
			RRFK:          cfg.Fusion.RRFK,
			VectorWeight:  cfg.Fusion.VectorWeight,
			KeywordWeight: cfg.Fusion.KeywordWeight,
			Normalization: pipeline.NormalizeMethod(cfg.Fusion.Normalization),
			Combine:       pipeline.CombineMethod(cfg.Fusion.Combine),
		},
		Rerank: pipeline.RerankConfig{
			SemanticBoost:      cfg.Rerank.SemanticBoost,
			DynamicBoost:       cfg.Rerank.DynamicBoost,
			MaxBoost:           cfg.Rerank.MaxBoost,
			MinBoostThreshold:  cfg.Rerank.MinBoostThreshold,
			UseMMR:             cfg.Rerank.UseMMR,
			MMRLambda:          cfg.Rerank.MMRLambda,
			DiversityFilter:    cfg.Rerank.DiversityFilter,
			DiversityThreshold: cfg.Rerank.DiversityThreshold,
		},
		Decay: pipeline.DecayConfig{
			Enabled:      cfg.Decay.Enabled,
			HalfLifeDays: cfg.Decay.HalfLifeDays,
			MinDecay:     cfg.Decay.MinDecay,
		},
		Ensemble: pipeline.EnsembleConfig{
			Enabled:         cfg.Ensemble.Enabled,
			MaxEmailRatio:   cfg.Ensemble.MaxEmailRatio,
			MaxKBRatio:      cfg.Ensemble.MaxKBRatio,
			MinEmailResults: cfg.Ensemble.MinEmailResults,
			MinKBResults:    cfg.Ensemble.MinKBResults,
		},
	}
}
