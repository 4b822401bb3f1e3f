//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"inbox-rag-api/internal/config"
	"inbox-rag-api/internal/domain/repository"
	"inbox-rag-api/internal/infrastructure/llm"
	"inbox-rag-api/internal/infrastructure/persistence/postgres"
	"inbox-rag-api/internal/infrastructure/persistence/redis"
	"inbox-rag-api/internal/interfaces/http/handler"
	"inbox-rag-api/internal/interfaces/http/middleware"
	"inbox-rag-api/internal/interfaces/http/router"
)

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*router.Router, func(), error) {
	wire.Build(
		RepoSet,
		RedisSet,
		MilvusAppSet,
		EmbeddingSet,
		LLMSet,
		PipelineSet,
		HandlerSet,
		router.New,
	)
	return nil, nil, nil
}

// RepoSet PostgreSQL 提供者与接口绑定
var RepoSet = wire.NewSet(
	ProvidePostgresClient,
	postgres.NewTxManager,
	postgres.NewKnowledgeBaseRepository,
	postgres.NewDocumentRepository,
	postgres.NewRAGConfigRepository,
	postgres.NewConversationSessionRepository,
	postgres.NewConversationTurnRepository,
	wire.Bind(new(repository.Transactor), new(*postgres.TxManager)),
	wire.Bind(new(repository.KnowledgeBaseRepository), new(*postgres.KnowledgeBaseRepository)),
	wire.Bind(new(repository.DocumentRepository), new(*postgres.DocumentRepository)),
	wire.Bind(new(repository.RAGConfigRepository), new(*postgres.RAGConfigRepository)),
	wire.Bind(new(repository.ConversationSessionRepository), new(*postgres.ConversationSessionRepository)),
	wire.Bind(new(repository.ConversationTurnRepository), new(*postgres.ConversationTurnRepository)),
)

// RedisSet Redis 提供者集合
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	redis.NewCache,
	redis.NewRateLimiter,
	wire.Bind(new(middleware.RateLimiter), new(*redis.RateLimiter)),
)

// MilvusAppSet 可选 Milvus（不可达时禁用向量检索/索引，不阻塞启动）
var MilvusAppSet = wire.NewSet(
	ProvideMilvusClientOptional,
	ProvideMilvusRepositoryOptional,
)

// EmbeddingSet 可选 Embedder（不可用时禁用向量检索/索引）
var EmbeddingSet = wire.NewSet(
	ProvideEmbedderOptional,
	ProvidePipelineEmbedder,
)

// LLMSet LLM 工厂与查询增强用文本生成器
var LLMSet = wire.NewSet(
	llm.NewEinoFactory,
	ProvideTextGenerator,
)

// PipelineSet 检索配置解析与索引器
var PipelineSet = wire.NewSet(
	ProvideRAGConfigService,
	ProvideIndexer,
)

// HandlerSet HTTP 处理器集合
var HandlerSet = wire.NewSet(
	handler.NewHealthHandler,
	handler.NewRetrievalHandler,
	handler.NewRAGConfigHandler,
	handler.NewKnowledgeBaseHandler,
	handler.NewConversationHandler,
	wire.Struct(new(router.Handlers), "*"),
)
