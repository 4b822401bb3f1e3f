package ragconfig

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"inbox-rag-api/internal/application/pipeline"
	"inbox-rag-api/internal/domain/entity"
	"inbox-rag-api/internal/domain/repository"
	"inbox-rag-api/pkg/logger"
)

const cacheTTL = 5 * time.Minute

// ConfigCache 配置缓存能力，由 redis 缓存实现；nil 时直接走数据库
type ConfigCache interface {
	GetOrLoadSafe(ctx context.Context, key string, ttl time.Duration, loader func() (interface{}, error)) ([]byte, error)
	InvalidateRAGConfig(ctx context.Context, knowledgeBaseID string) error
}

// CacheKeyFunc 生成知识库配置的缓存键
type CacheKeyFunc func(knowledgeBaseID string) string

// Service 知识库检索配置服务
type Service struct {
	repo     repository.RAGConfigRepository
	cache    ConfigCache
	cacheKey CacheKeyFunc
	defaults pipeline.Config
}

func NewService(repo repository.RAGConfigRepository, cache ConfigCache, cacheKey CacheKeyFunc, defaults pipeline.Config) *Service {
	return &Service{
		repo:     repo,
		cache:    cache,
		cacheKey: cacheKey,
		defaults: defaults,
	}
}

// Resolve 解析单次检索调用的完整配置。
// 三层叠加：系统默认 -> 知识库存储配置 -> 请求覆盖，
// 存储层读取失败只降级告警，不阻塞检索；覆盖 JSON 非法则返回错误。
func (s *Service) Resolve(ctx context.Context, knowledgeBaseID string, override json.RawMessage) (pipeline.Config, error) {
	cfg := s.defaults

	if knowledgeBaseID != "" {
		stored, err := s.loadStored(ctx, knowledgeBaseID)
		if err != nil {
			logger.Warn(ctx, "failed to load stored rag config, falling back to defaults",
				"knowledge_base_id", knowledgeBaseID, "error", err)
		} else if len(stored) > 0 {
			if err := json.Unmarshal(stored, &cfg); err != nil {
				logger.Warn(ctx, "stored rag config is invalid, falling back to defaults",
					"knowledge_base_id", knowledgeBaseID, "error", err)
				cfg = s.defaults
			}
		}
	}

	if len(override) > 0 && !bytes.Equal(bytes.TrimSpace(override), []byte("null")) {
		if err := json.Unmarshal(override, &cfg); err != nil {
			return pipeline.Config{}, fmt.Errorf("invalid rag config override: %w", err)
		}
	}

	return cfg.Normalized(), nil
}

// loadStored 读取知识库存储配置，缓存未命中时回源数据库。
// 无记录时缓存空对象作为负缓存，避免每次请求都打到数据库。
func (s *Service) loadStored(ctx context.Context, knowledgeBaseID string) (json.RawMessage, error) {
	loader := func() (interface{}, error) {
		record, err := s.repo.GetByKnowledgeBase(ctx, knowledgeBaseID)
		if err != nil {
			return nil, err
		}
		if record == nil {
			return json.RawMessage("{}"), nil
		}
		return record.Settings, nil
	}

	if s.cache == nil || s.cacheKey == nil {
		data, err := loader()
		if err != nil {
			return nil, err
		}
		return data.(json.RawMessage), nil
	}

	raw, err := s.cache.GetOrLoadSafe(ctx, s.cacheKey(knowledgeBaseID), cacheTTL, loader)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// Get 返回知识库的存储配置记录，不存在时返回 nil
func (s *Service) Get(ctx context.Context, knowledgeBaseID string) (*entity.RAGConfigRecord, error) {
	return s.repo.GetByKnowledgeBase(ctx, knowledgeBaseID)
}

// Update 校验并保存知识库配置，随后使缓存失效
func (s *Service) Update(ctx context.Context, knowledgeBaseID string, settings json.RawMessage) (*entity.RAGConfigRecord, error) {
	var probe pipeline.Config
	dec := json.NewDecoder(bytes.NewReader(settings))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&probe); err != nil {
		return nil, fmt.Errorf("invalid rag config settings: %w", err)
	}

	record := entity.NewRAGConfigRecord(knowledgeBaseID, settings)
	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.InvalidateRAGConfig(ctx, knowledgeBaseID); err != nil {
			logger.Warn(ctx, "failed to invalidate rag config cache",
				"knowledge_base_id", knowledgeBaseID, "error", err)
		}
	}

	return s.repo.GetByKnowledgeBase(ctx, knowledgeBaseID)
}

// Delete 删除知识库配置并使缓存失效
func (s *Service) Delete(ctx context.Context, knowledgeBaseID string) error {
	if err := s.repo.Delete(ctx, knowledgeBaseID); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.InvalidateRAGConfig(ctx, knowledgeBaseID); err != nil {
			logger.Warn(ctx, "failed to invalidate rag config cache",
				"knowledge_base_id", knowledgeBaseID, "error", err)
		}
	}
	return nil
}
