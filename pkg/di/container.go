package di

import (
	"errors"
	"time"

	"aurumstore/backend/chat/models"
	chatrepo "aurumstore/backend/chat/repository"
	chatservice "aurumstore/backend/chat/service"
	"aurumstore/backend/chat/ws"
	botrepo "aurumstore/backend/chatbot/repository"
	botservice "aurumstore/backend/chatbot/service"
	"aurumstore/backend/pkg/cache"
	"aurumstore/backend/pkg/jwt"
	"aurumstore/backend/pkg/logger"
	"aurumstore/backend/pkg/resilience"
	"aurumstore/backend/shared/redis"
	storerepo "aurumstore/backend/store/repository"

	"gorm.io/gorm"
)

// Container holds all the dependencies for the application
type Container struct {
	DB         *gorm.DB
	Logger     *logger.Logger
	JWTService *jwt.Service
	Redis      *redis.RedisClient
	Cache      *cache.Cache

	ConversationRepo chatrepo.ConversationRepository
	StoreRepo        *storerepo.GormStoreRepository
	ConfigRepo       botrepo.ConfigRepository

	ConfigService *botservice.ConfigService
	ChatService   *chatservice.ChatService
	Hub           *ws.Hub
}

// Config holds the configuration for the container
type Config struct {
	LoggerConfig   logger.Config
	JWTSecret      string
	JWTExpiryHours int
	RedisEnabled   bool
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		LoggerConfig:   logger.DefaultConfig(),
		JWTSecret:      "",
		JWTExpiryHours: 0, // Use default
		RedisEnabled:   true,
	}
}

// hubPublisher adapts the fan-out hub to the Publisher port the chat
// service depends on. The server has no originating socket for HTTP
// sends, so nothing is excluded from delivery.
type hubPublisher struct {
	hub *ws.Hub
}

func (p *hubPublisher) PublishMessage(conversationID, storeID string, msg *models.Message) {
	p.hub.PublishMessage(conversationID, storeID, msg, nil)
}

// guardedCache wraps the Redis config cache in a circuit breaker. Config
// reads sit on the hot path of every inbound message; a down Redis trips
// the breaker and reads fall straight through to the database instead of
// waiting out connection timeouts.
type guardedCache struct {
	inner *redis.RedisClient
	cb    *resilience.CircuitBreaker
}

func newGuardedCache(inner *redis.RedisClient, log *logger.Logger) *guardedCache {
	return &guardedCache{
		inner: inner,
		cb:    resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("redis-config-cache"), log),
	}
}

func (g *guardedCache) Set(key string, value interface{}, expiration time.Duration) error {
	return g.cb.Execute(func() error {
		return g.inner.Set(key, value, expiration)
	})
}

func (g *guardedCache) Get(key string) (string, error) {
	var val string
	var miss bool
	err := g.cb.Execute(func() error {
		v, err := g.inner.Get(key)
		if errors.Is(err, redis.ErrCacheMiss) {
			// A miss is a healthy response, not a failure.
			miss = true
			return nil
		}
		if err != nil {
			return err
		}
		val = v
		return nil
	})
	if err != nil {
		return "", err
	}
	if miss {
		return "", redis.ErrCacheMiss
	}
	return val, nil
}

func (g *guardedCache) Del(key string) error {
	return g.cb.Execute(func() error {
		return g.inner.Del(key)
	})
}

// New creates a new dependency injection container
func New(db *gorm.DB, config *Config) (*Container, error) {
	if config == nil {
		config = DefaultConfig()
	}

	// Initialize the logger
	log := logger.New(config.LoggerConfig)

	// Initialize JWT service
	jwtService := jwt.NewService(config.JWTSecret, time.Duration(config.JWTExpiryHours)*time.Hour)

	// Redis backs the chatbot config cache; the in-process cache backs
	// store existence checks, which are immutable for a store's lifetime.
	var redisClient *redis.RedisClient
	if config.RedisEnabled {
		redisClient = redis.NewRedisClient()
	}
	memCache := cache.NewCache()

	// Repositories
	conversationRepo := chatrepo.NewGormConversationRepository(db)
	storeRepo := storerepo.NewGormStoreRepository(db, memCache)
	configRepo := botrepo.NewGormConfigRepository(db)

	// Hub must exist before the chat service so persisted messages can
	// fan out to connected sockets.
	hub := ws.NewHub(log)

	var configCache botservice.ConfigCache
	if redisClient != nil {
		configCache = newGuardedCache(redisClient, log)
	}
	configService := botservice.NewConfigService(configRepo, configCache, log)

	chatService := chatservice.NewChatService(
		conversationRepo,
		storeRepo,
		configService,
		&hubPublisher{hub: hub},
		log,
	)

	return &Container{
		DB:               db,
		Logger:           log,
		JWTService:       jwtService,
		Redis:            redisClient,
		Cache:            memCache,
		ConversationRepo: conversationRepo,
		StoreRepo:        storeRepo,
		ConfigRepo:       configRepo,
		ConfigService:    configService,
		ChatService:      chatService,
		Hub:              hub,
	}, nil
}
