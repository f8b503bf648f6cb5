package service

import (
	"encoding/json"
	"fmt"
	"time"

	"aurumstore/backend/chatbot/models"
	"aurumstore/backend/chatbot/repository"
	"aurumstore/backend/pkg/logger"
	"aurumstore/backend/shared/redis"
)

const configCacheTTL = 5 * time.Minute

// ConfigCache is the subset of the redis client the service needs. A nil
// cache degrades to straight repository reads.
type ConfigCache interface {
	Set(key string, value interface{}, expiration time.Duration) error
	Get(key string) (string, error)
	Del(key string) error
}

// ConfigService serves chatbot configuration reads and owner updates. Reads
// sit on the hot path of every inbound customer message, so they go through
// Redis with a short TTL; updates invalidate the cached entry.
type ConfigService struct {
	repo  repository.ConfigRepository
	cache ConfigCache
	log   *logger.Logger
}

func NewConfigService(repo repository.ConfigRepository, cache ConfigCache, log *logger.Logger) *ConfigService {
	return &ConfigService{repo: repo, cache: cache, log: log}
}

func cacheKey(storeID string) string {
	return fmt.Sprintf("chatbot:config:%s", storeID)
}

// GetByStore returns the store's config, or nil when the store has none.
func (s *ConfigService) GetByStore(storeID string) (*models.AutoReplyConfig, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(cacheKey(storeID)); err == nil {
			var cfg models.AutoReplyConfig
			if err := json.Unmarshal([]byte(raw), &cfg); err == nil {
				return &cfg, nil
			}
		} else if err != redis.ErrCacheMiss {
			s.log.Warn("chatbot config cache read failed", "store_id", storeID, "error", err.Error())
		}
	}

	cfg, err := s.repo.GetByStore(storeID)
	if err != nil {
		return nil, err
	}

	if cfg != nil && s.cache != nil {
		if raw, err := json.Marshal(cfg); err == nil {
			if err := s.cache.Set(cacheKey(storeID), string(raw), configCacheTTL); err != nil {
				s.log.Warn("chatbot config cache write failed", "store_id", storeID, "error", err.Error())
			}
		}
	}
	return cfg, nil
}

// Update upserts the store's config and drops the cached copy.
func (s *ConfigService) Update(cfg *models.AutoReplyConfig) error {
	if err := s.repo.Upsert(cfg); err != nil {
		return err
	}
	s.invalidate(cfg.StoreID)
	return nil
}

// SeedDefaults creates the default config for a newly registered store.
func (s *ConfigService) SeedDefaults(storeID string) (*models.AutoReplyConfig, error) {
	cfg, err := s.repo.SeedDefaults(storeID)
	if err != nil {
		return nil, err
	}
	s.invalidate(storeID)
	return cfg, nil
}

func (s *ConfigService) invalidate(storeID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(cacheKey(storeID)); err != nil {
		s.log.Warn("chatbot config cache invalidation failed", "store_id", storeID, "error", err.Error())
	}
}
