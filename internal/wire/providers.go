// Package wire 提供依赖注入配置
package wire

import (
	"context"

	einoembedding "github.com/cloudwego/eino/components/embedding"

	"inbox-rag-api/internal/application/pipeline"
	"inbox-rag-api/internal/application/ragconfig"
	"inbox-rag-api/internal/application/retrieval"
	"inbox-rag-api/internal/config"
	"inbox-rag-api/internal/domain/repository"
	infraembedding "inbox-rag-api/internal/infrastructure/embedding"
	"inbox-rag-api/internal/infrastructure/llm"
	"inbox-rag-api/internal/infrastructure/persistence/milvus"
	"inbox-rag-api/internal/infrastructure/persistence/postgres"
	"inbox-rag-api/internal/infrastructure/persistence/redis"
	"inbox-rag-api/pkg/logger"
)

// ProvidePostgresClient 提供 PostgreSQL 客户端
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClient 提供 Redis 客户端
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideMilvusClientOptional Milvus 不可达时降级为 nil
func ProvideMilvusClientOptional(ctx context.Context, cfg *config.Config) (*milvus.Client, func(), error) {
	client, err := milvus.NewClient(ctx, &cfg.Vector.Milvus)
	if err != nil {
		logger.Warn(ctx, "milvus not available, vector features disabled", "error", err.Error())
		return nil, func() {}, nil
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideMilvusRepositoryOptional Milvus 缺席时仓储为 nil
func ProvideMilvusRepositoryOptional(client *milvus.Client) *milvus.Repository {
	if client == nil {
		return nil
	}
	return milvus.NewRepository(client)
}

// ProvideEmbedderOptional Embedding 初始化失败时降级为 nil
func ProvideEmbedderOptional(ctx context.Context, cfg *config.Config) (einoembedding.Embedder, error) {
	embedder, err := infraembedding.NewEinoEmbedder(ctx, &cfg.Embedding)
	if err != nil {
		logger.Warn(ctx, "embedding not available, vector features disabled", "error", err.Error())
		return nil, nil
	}
	return embedder, nil
}

// ProvidePipelineEmbedder 把 Eino Embedder 适配为流水线端口
func ProvidePipelineEmbedder(cfg *config.Config, embedder einoembedding.Embedder) pipeline.Embedder {
	if embedder == nil {
		return nil
	}
	return infraembedding.NewPipelineEmbedder(embedder, cfg.Embedding.Provider, cfg.Embedding.Model)
}

// ProvideTextGenerator 查询增强用的文本生成器
func ProvideTextGenerator(cfg *config.Config, factory *llm.EinoFactory) pipeline.TextGenerator {
	return llm.NewGenerator(factory, cfg.LLM.DefaultProvider)
}

// ProvideRAGConfigService 三层配置解析服务（默认值 ← 知识库存储 ← 请求覆盖）
func ProvideRAGConfigService(cfg *config.Config, repo repository.RAGConfigRepository, cache *redis.Cache) *ragconfig.Service {
	return ragconfig.NewService(repo, cache, redis.RAGConfigKey, ragconfig.PipelineDefaults(&cfg.RAG))
}

// ProvideIndexer 文档/邮件索引器
func ProvideIndexer(cfg *config.Config, embedder pipeline.Embedder, repo *milvus.Repository) *retrieval.Indexer {
	var vector retrieval.VectorIndex
	if repo != nil {
		vector = milvus.NewIndexAdapter(repo)
	}
	return retrieval.NewIndexer(embedder, vector, cfg.Embedding.BatchSize)
}
