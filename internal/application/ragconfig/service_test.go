package ragconfig

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inbox-rag-api/internal/application/pipeline"
	"inbox-rag-api/internal/domain/entity"
)

type fakeConfigRepo struct {
	record   *entity.RAGConfigRecord
	getErr   error
	upserted *entity.RAGConfigRecord
	deleted  []string
}

func (f *fakeConfigRepo) GetByKnowledgeBase(ctx context.Context, knowledgeBaseID string) (*entity.RAGConfigRecord, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.record, nil
}

func (f *fakeConfigRepo) Upsert(ctx context.Context, record *entity.RAGConfigRecord) error {
	f.upserted = record
	f.record = record
	return nil
}

func (f *fakeConfigRepo) Delete(ctx context.Context, knowledgeBaseID string) error {
	f.deleted = append(f.deleted, knowledgeBaseID)
	f.record = nil
	return nil
}

type fakeConfigCache struct {
	invalidated []string
	loads       int
}

func (f *fakeConfigCache) GetOrLoadSafe(ctx context.Context, key string, ttl time.Duration, loader func() (interface{}, error)) ([]byte, error) {
	f.loads++
	data, err := loader()
	if err != nil {
		return nil, err
	}
	return json.Marshal(data)
}

func (f *fakeConfigCache) InvalidateRAGConfig(ctx context.Context, knowledgeBaseID string) error {
	f.invalidated = append(f.invalidated, knowledgeBaseID)
	return nil
}

func testCacheKey(kbID string) string { return "ragconfig:" + kbID }

func TestResolveDefaultsWhenNothingStored(t *testing.T) {
	svc := NewService(&fakeConfigRepo{}, nil, nil, pipeline.DefaultConfig())

	cfg, err := svc.Resolve(context.Background(), "kb-1", nil)
	require.NoError(t, err)

	def := pipeline.DefaultConfig().Normalized()
	assert.Equal(t, def, cfg)
}

func TestResolveStoredConfigOverlaysDefaults(t *testing.T) {
	repo := &fakeConfigRepo{
		record: entity.NewRAGConfigRecord("kb-1", json.RawMessage(`{"max_results":5,"kb_threshold":0.5}`)),
	}
	svc := NewService(repo, nil, nil, pipeline.DefaultConfig())

	cfg, err := svc.Resolve(context.Background(), "kb-1", nil)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.MaxResults)
	assert.InDelta(t, 0.5, cfg.KBThreshold, 1e-9)
	// 未覆盖字段保持默认值
	assert.Equal(t, pipeline.FusionRRF, cfg.Fusion.Method)
	assert.InDelta(t, 0.25, cfg.EmailThreshold, 1e-9)
}

func TestResolveRequestOverrideWinsOverStored(t *testing.T) {
	repo := &fakeConfigRepo{
		record: entity.NewRAGConfigRecord("kb-1", json.RawMessage(`{"max_results":5}`)),
	}
	svc := NewService(repo, nil, nil, pipeline.DefaultConfig())

	cfg, err := svc.Resolve(context.Background(), "kb-1", json.RawMessage(`{"max_results":3}`))
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.MaxResults)
}

func TestResolveInvalidOverrideFails(t *testing.T) {
	svc := NewService(&fakeConfigRepo{}, nil, nil, pipeline.DefaultConfig())

	_, err := svc.Resolve(context.Background(), "kb-1", json.RawMessage(`{"max_results":`))
	require.Error(t, err)
}

func TestResolveRepoErrorDegradesToDefaults(t *testing.T) {
	repo := &fakeConfigRepo{getErr: errors.New("db down")}
	svc := NewService(repo, nil, nil, pipeline.DefaultConfig())

	cfg, err := svc.Resolve(context.Background(), "kb-1", nil)
	require.NoError(t, err)

	assert.Equal(t, pipeline.DefaultConfig().Normalized(), cfg)
}

func TestResolveUsesCache(t *testing.T) {
	repo := &fakeConfigRepo{
		record: entity.NewRAGConfigRecord("kb-1", json.RawMessage(`{"max_results":7}`)),
	}
	cache := &fakeConfigCache{}
	svc := NewService(repo, cache, testCacheKey, pipeline.DefaultConfig())

	cfg, err := svc.Resolve(context.Background(), "kb-1", nil)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.MaxResults)
	assert.Equal(t, 1, cache.loads)
}

func TestUpdateValidatesAndInvalidates(t *testing.T) {
	repo := &fakeConfigRepo{}
	cache := &fakeConfigCache{}
	svc := NewService(repo, cache, testCacheKey, pipeline.DefaultConfig())

	_, err := svc.Update(context.Background(), "kb-1", json.RawMessage(`{"not_a_field":true}`))
	require.Error(t, err)
	assert.Nil(t, repo.upserted)

	record, err := svc.Update(context.Background(), "kb-1", json.RawMessage(`{"max_results":8}`))
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "kb-1", record.KnowledgeBaseID)
	assert.Equal(t, []string{"kb-1"}, cache.invalidated)
}

func TestDeleteInvalidatesCache(t *testing.T) {
	repo := &fakeConfigRepo{
		record: entity.NewRAGConfigRecord("kb-1", json.RawMessage(`{}`)),
	}
	cache := &fakeConfigCache{}
	svc := NewService(repo, cache, testCacheKey, pipeline.DefaultConfig())

	require.NoError(t, svc.Delete(context.Background(), "kb-1"))
	assert.Equal(t, []string{"kb-1"}, repo.deleted)
	assert.Equal(t, []string{"kb-1"}, cache.invalidated)
}
