package service

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"aurumstore/backend/chatbot/models"
	"aurumstore/backend/pkg/logger"
	"aurumstore/backend/shared/redis"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConfigRepo struct {
	configs map[string]*models.AutoReplyConfig
	reads   int
}

func newFakeConfigRepo() *fakeConfigRepo {
	return &fakeConfigRepo{configs: make(map[string]*models.AutoReplyConfig)}
}

func (r *fakeConfigRepo) GetByStore(storeID string) (*models.AutoReplyConfig, error) {
	r.reads++
	return r.configs[storeID], nil
}

func (r *fakeConfigRepo) Upsert(cfg *models.AutoReplyConfig) error {
	r.configs[cfg.StoreID] = cfg
	return nil
}

func (r *fakeConfigRepo) SeedDefaults(storeID string) (*models.AutoReplyConfig, error) {
	if existing, ok := r.configs[storeID]; ok {
		return existing, nil
	}
	cfg := models.NewDefaultConfig(storeID)
	r.configs[storeID] = cfg
	return cfg, nil
}

type fakeCache struct {
	entries map[string]string
	sets    int
	broken  bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]string)}
}

func (c *fakeCache) Set(key string, value interface{}, _ time.Duration) error {
	if c.broken {
		return errors.New("cache down")
	}
	c.sets++
	c.entries[key] = value.(string)
	return nil
}

func (c *fakeCache) Get(key string) (string, error) {
	if c.broken {
		return "", errors.New("cache down")
	}
	v, ok := c.entries[key]
	if !ok {
		return "", redis.ErrCacheMiss
	}
	return v, nil
}

func (c *fakeCache) Del(key string) error {
	if c.broken {
		return errors.New("cache down")
	}
	delete(c.entries, key)
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", JSON: false})
}

func TestGetByStoreCachesResult(t *testing.T) {
	repo := newFakeConfigRepo()
	cache := newFakeCache()
	svc := NewConfigService(repo, cache, testLogger())

	_, err := repo.SeedDefaults("store-a")
	require.NoError(t, err)
	repo.reads = 0

	cfg, err := svc.GetByStore("store-a")
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, 1, repo.reads)
	assert.Equal(t, 1, cache.sets)

	// Second read is served from the cache.
	cfg, err = svc.GetByStore("store-a")
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, 1, repo.reads)
}

func TestCachedConfigKeepsWorkingHours(t *testing.T) {
	repo := newFakeConfigRepo()
	cache := newFakeCache()
	svc := NewConfigService(repo, cache, testLogger())

	seeded, err := repo.SeedDefaults("store-a")
	require.NoError(t, err)
	seeded.HoursStart = "10:00"
	seeded.HoursEnd = "20:00"

	_, err = svc.GetByStore("store-a")
	require.NoError(t, err)

	cached, err := svc.GetByStore("store-a")
	require.NoError(t, err)
	assert.Equal(t, "10:00", cached.HoursStart)
	assert.Equal(t, "20:00", cached.HoursEnd)
	assert.Equal(t, models.DefaultOutsideMessage, cached.OutsideMessage)
}

func TestUpdateInvalidatesCache(t *testing.T) {
	repo := newFakeConfigRepo()
	cache := newFakeCache()
	svc := NewConfigService(repo, cache, testLogger())

	_, err := repo.SeedDefaults("store-a")
	require.NoError(t, err)

	_, err = svc.GetByStore("store-a")
	require.NoError(t, err)
	require.Len(t, cache.entries, 1)

	updated := models.NewDefaultConfig("store-a")
	updated.GreetingMessage = "Hello from the goldsmith"
	require.NoError(t, svc.Update(updated))
	assert.Empty(t, cache.entries)

	cfg, err := svc.GetByStore("store-a")
	require.NoError(t, err)
	assert.Equal(t, "Hello from the goldsmith", cfg.GreetingMessage)
}

func TestBrokenCacheDegradesToRepository(t *testing.T) {
	repo := newFakeConfigRepo()
	cache := newFakeCache()
	cache.broken = true
	svc := NewConfigService(repo, cache, testLogger())

	_, err := repo.SeedDefaults("store-a")
	require.NoError(t, err)

	cfg, err := svc.GetByStore("store-a")
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, models.DefaultGreeting, cfg.GreetingMessage)
}

func TestNilCacheDegradesToRepository(t *testing.T) {
	repo := newFakeConfigRepo()
	svc := NewConfigService(repo, nil, testLogger())

	_, err := repo.SeedDefaults("store-a")
	require.NoError(t, err)

	cfg, err := svc.GetByStore("store-a")
	require.NoError(t, err)
	require.NotNil(t, cfg)
}

func TestAbsentConfigIsNotCached(t *testing.T) {
	repo := newFakeConfigRepo()
	cache := newFakeCache()
	svc := NewConfigService(repo, cache, testLogger())

	cfg, err := svc.GetByStore("ghost-store")
	require.NoError(t, err)
	assert.Nil(t, cfg)
	assert.Empty(t, cache.entries)
}

func TestCacheRoundTripPreservesReplies(t *testing.T) {
	cfg := models.NewDefaultConfig("store-a")
	cfg.AutoReplies = []models.AutoReply{
		{Keyword: "ship", Response: "We ship nationwide."},
		{Keyword: "price", Response: "See the price board."},
	}

	raw, err := json.Marshal(cfg)
	require.NoError(t, err)

	var decoded models.AutoReplyConfig
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded.AutoReplies, 2)
	assert.Equal(t, "ship", decoded.AutoReplies[0].Keyword)
	assert.Equal(t, models.DefaultHoursStart, decoded.HoursStart)
}
