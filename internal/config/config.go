// Package config 提供配置加载和管理功能
package config

import (
	"time"
)

// Config 应用配置根结构
type Config struct {
	App           AppConfig           `yaml:"app" mapstructure:"app"`
	Server        ServerConfig        `yaml:"server" mapstructure:"server"`
	Database      DatabaseConfig      `yaml:"database" mapstructure:"database"`
	Cache         CacheConfig         `yaml:"cache" mapstructure:"cache"`
	Vector        VectorConfig        `yaml:"vector" mapstructure:"vector"`
	LLM           LLMConfig           `yaml:"llm" mapstructure:"llm"`
	Embedding     EmbeddingConfig     `yaml:"embedding" mapstructure:"embedding"`
	RAG           RAGConfig           `yaml:"rag" mapstructure:"rag"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
	Security      SecurityConfig      `yaml:"security" mapstructure:"security"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Version string `yaml:"version" mapstructure:"version"`
	Env     string `yaml:"env" mapstructure:"env"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTP HTTPServerConfig `yaml:"http" mapstructure:"http"`
}

// HTTPServerConfig HTTP 服务器配置
type HTTPServerConfig struct {
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Postgres PostgresConfig `yaml:"postgres" mapstructure:"postgres"`
}

// PostgresConfig PostgreSQL 配置
type PostgresConfig struct {
	Host            string        `yaml:"host" mapstructure:"host"`
	Port            int           `yaml:"port" mapstructure:"port"`
	User            string        `yaml:"user" mapstructure:"user"`
	Password        string        `yaml:"password" mapstructure:"password"`
	Database        string        `yaml:"database" mapstructure:"database"`
	SSLMode         string        `yaml:"ssl_mode" mapstructure:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" mapstructure:"conn_max_idle_time"`
}

// CacheConfig 缓存配置
type CacheConfig struct {
	Redis RedisConfig `yaml:"redis" mapstructure:"redis"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	Password     string        `yaml:"password" mapstructure:"password"`
	DB           int           `yaml:"db" mapstructure:"db"`
	PoolSize     int           `yaml:"pool_size" mapstructure:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
}

// VectorConfig 向量数据库配置
type VectorConfig struct {
	Milvus MilvusConfig `yaml:"milvus" mapstructure:"milvus"`
}

// MilvusConfig Milvus 配置
type MilvusConfig struct {
	Host               string `yaml:"host" mapstructure:"host"`
	Port               int    `yaml:"port" mapstructure:"port"`
	User               string `yaml:"user" mapstructure:"user"`
	Password           string `yaml:"password" mapstructure:"password"`
	CollectionPrefix   string `yaml:"collection_prefix" mapstructure:"collection_prefix"`
	IndexType          string `yaml:"index_type" mapstructure:"index_type"`
	MetricType         string `yaml:"metric_type" mapstructure:"metric_type"`
	HNSWM              int    `yaml:"hnsw_m" mapstructure:"hnsw_m"`
	HNSWEfConstruction int    `yaml:"hnsw_ef_construction" mapstructure:"hnsw_ef_construction"`
}

// LLMConfig LLM 配置
type LLMConfig struct {
	DefaultProvider string                    `yaml:"default_provider" mapstructure:"default_provider"`
	Providers       map[string]ProviderConfig `yaml:"providers" mapstructure:"providers"`
	FallbackChain   []string                  `yaml:"fallback_chain" mapstructure:"fallback_chain"`
}

// ProviderConfig LLM 提供商配置
type ProviderConfig struct {
	APIKey      string        `yaml:"api_key" mapstructure:"api_key"`
	BaseURL     string        `yaml:"base_url" mapstructure:"base_url"`
	Model       string        `yaml:"model" mapstructure:"model"`
	MaxTokens   int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64       `yaml:"temperature" mapstructure:"temperature"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// EmbeddingConfig Embedding 配置
type EmbeddingConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"`
	APIKey    string `yaml:"api_key" mapstructure:"api_key"`
	Model     string `yaml:"model" mapstructure:"model"`
	Dimension int    `yaml:"dimension" mapstructure:"dimension"`
	BatchSize int    `yaml:"batch_size" mapstructure:"batch_size"`
	Endpoint  string `yaml:"endpoint" mapstructure:"endpoint"`
}

// RAGConfig 检索流水线的系统级默认值；
// 知识库级存储配置与请求级覆盖在其上逐层生效。
type RAGConfig struct {
	KBThreshold    float64 `yaml:"kb_threshold" mapstructure:"kb_threshold"`
	EmailThreshold float64 `yaml:"email_threshold" mapstructure:"email_threshold"`
	MaxResults     int     `yaml:"max_results" mapstructure:"max_results"`
	HybridSearch   bool    `yaml:"hybrid_search" mapstructure:"hybrid_search"`

	Enhance  RAGEnhanceConfig  `yaml:"enhance" mapstructure:"enhance"`
	Fusion   RAGFusionConfig   `yaml:"fusion" mapstructure:"fusion"`
	Rerank   RAGRerankConfig   `yaml:"rerank" mapstructure:"rerank"`
	Decay    RAGDecayConfig    `yaml:"decay" mapstructure:"decay"`
	Ensemble RAGEnsembleConfig `yaml:"ensemble" mapstructure:"ensemble"`
}

// RAGEnhanceConfig 查询增强默认值
type RAGEnhanceConfig struct {
	ContextRewrite  bool `yaml:"context_rewrite" mapstructure:"context_rewrite"`
	HistoryTurns    int  `yaml:"history_turns" mapstructure:"history_turns"`
	HyDE            bool `yaml:"hyde" mapstructure:"hyde"`
	MultiQuery      bool `yaml:"multi_query" mapstructure:"multi_query"`
	VariantCount    int  `yaml:"variant_count" mapstructure:"variant_count"`
	FallbackOnError bool `yaml:"fallback_on_error" mapstructure:"fallback_on_error"`
}

// RAGFusionConfig 融合默认值
type RAGFusionConfig struct {
	Method        string  `yaml:"method" mapstructure:"method"`
	RRFK          float64 `yaml:"rrf_k" mapstructure:"rrf_k"`
	VectorWeight  float64 `yaml:"vector_weight" mapstructure:"vector_weight"`
	KeywordWeight float64 `yaml:"keyword_weight" mapstructure:"keyword_weight"`
	Normalization string  `yaml:"normalization" mapstructure:"normalization"`
	Combine       string  `yaml:"combine" mapstructure:"combine"`
}

// RAGRerankConfig 重排默认值
type RAGRerankConfig struct {
	SemanticBoost      bool    `yaml:"semantic_boost" mapstructure:"semantic_boost"`
	DynamicBoost       bool    `yaml:"dynamic_boost" mapstructure:"dynamic_boost"`
	MaxBoost           float64 `yaml:"max_boost" mapstructure:"max_boost"`
	MinBoostThreshold  float64 `yaml:"min_boost_threshold" mapstructure:"min_boost_threshold"`
	UseMMR             bool    `yaml:"use_mmr" mapstructure:"use_mmr"`
	MMRLambda          float64 `yaml:"mmr_lambda" mapstructure:"mmr_lambda"`
	DiversityFilter    bool    `yaml:"diversity_filter" mapstructure:"diversity_filter"`
	DiversityThreshold float64 `yaml:"diversity_threshold" mapstructure:"diversity_threshold"`
}

// RAGDecayConfig 时间衰减默认值
type RAGDecayConfig struct {
	Enabled      bool    `yaml:"enabled" mapstructure:"enabled"`
	HalfLifeDays float64 `yaml:"half_life_days" mapstructure:"half_life_days"`
	MinDecay     float64 `yaml:"min_decay" mapstructure:"min_decay"`
}

// RAGEnsembleConfig 配额均衡默认值
type RAGEnsembleConfig struct {
	Enabled         bool    `yaml:"enabled" mapstructure:"enabled"`
	MaxEmailRatio   float64 `yaml:"max_email_ratio" mapstructure:"max_email_ratio"`
	MaxKBRatio      float64 `yaml:"max_kb_ratio" mapstructure:"max_kb_ratio"`
	MinEmailResults int     `yaml:"min_email_results" mapstructure:"min_email_results"`
	MinKBResults    int     `yaml:"min_kb_results" mapstructure:"min_kb_results"`
}

// ObservabilityConfig 可观测性配置
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	Output string `yaml:"output" mapstructure:"output"`
}

// TracingConfig 追踪配置
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Exporter   string  `yaml:"exporter" mapstructure:"exporter"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Port    int    `yaml:"port" mapstructure:"port"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors" mapstructure:"cors"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled" mapstructure:"enabled"`
	RequestsPerSecond int  `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int  `yaml:"burst" mapstructure:"burst"`
}

// CORSConfig CORS 配置
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods" mapstructure:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers" mapstructure:"allowed_headers"`
}
