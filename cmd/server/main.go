package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	chatmodels "aurumstore/backend/chat/models"
	botmodels "aurumstore/backend/chatbot/models"
	"aurumstore/backend/pkg/config"
	"aurumstore/backend/pkg/di"
	"aurumstore/backend/pkg/logger"
	"aurumstore/backend/pkg/router"
	"aurumstore/backend/pkg/secrets"
	"aurumstore/backend/shared/observability"
	storemodels "aurumstore/backend/store/models"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Initialize structured logger
	logConfig := logger.DefaultConfig()
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		logConfig.Level = level
	}
	logConfig.JSON = os.Getenv("LOG_FORMAT") != "text"

	log := logger.New(logConfig)
	logger.SetGlobal(log)

	log.Info("Starting chat backend", "version", os.Getenv("APP_VERSION"))

	// Tracing and metrics
	shutdownTracing := observability.SetupTracing("aurumstore-chat")
	defer shutdownTracing()
	observability.SetupPrometheusMetrics()

	// Secrets manager (Vault with env fallback)
	if err := secrets.Init(log); err != nil {
		log.Warn("Secrets manager unavailable, falling back to environment", "error", err.Error())
	}

	// Initialize database
	db, err := config.NewDB()
	if err != nil {
		log.LogError(err, "Failed to initialize database")
		os.Exit(1)
	}

	// Auto-migrate the schema
	if err := db.AutoMigrate(
		&storemodels.Store{},
		&chatmodels.Conversation{},
		&chatmodels.Message{},
		&botmodels.AutoReplyConfig{},
		&botmodels.AutoReply{},
	); err != nil {
		log.LogError(err, "Failed to migrate database")
		os.Exit(1)
	}

	// Store inbox listings sort by recency
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_conversations_store_recency ON conversations(store_id, last_message_at DESC)").Error; err != nil {
		log.LogError(err, "Failed to create conversation recency index")
	}

	// Initialize dependency injection container
	diConfig := di.DefaultConfig()
	diConfig.LoggerConfig = logConfig
	diConfig.JWTSecret = secrets.GetSecretWithDefault(context.Background(), "JWT_SECRET", os.Getenv("JWT_SECRET"))
	if expiry := os.Getenv("JWT_EXPIRY_HOURS"); expiry != "" {
		if val, err := time.ParseDuration(expiry + "h"); err == nil {
			diConfig.JWTExpiryHours = int(val.Hours())
		}
	}
	diConfig.RedisEnabled = os.Getenv("REDIS_DISABLED") != "true"

	container, err := di.New(db, diConfig)
	if err != nil {
		log.LogError(err, "Failed to initialize dependency container")
		os.Exit(1)
	}

	// Initialize and setup router
	r := router.New(container)
	r.SetupRoutes()

	// Add OpenAPI validation if schema file is available
	schemaPath := os.Getenv("OPENAPI_SCHEMA_PATH")
	if schemaPath != "" {
		r.AddOpenAPIValidation(schemaPath)
	}

	// Get port from environment
	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r.Engine,
	}

	// Start the server in a goroutine
	go func() {
		log.Info("Server starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogError(err, "Server failed to start")
			os.Exit(1)
		}
	}()

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.LogError(err, "Server forced to shutdown")
	}

	log.Info("Server exited gracefully")
}
