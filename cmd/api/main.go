package main

import (
	"context"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/remotehunt/remotehunt/internal/config"
	"github.com/remotehunt/remotehunt/internal/database"
	"github.com/remotehunt/remotehunt/internal/handlers"
	"github.com/remotehunt/remotehunt/internal/logging"
	"github.com/remotehunt/remotehunt/internal/scheduler"
	"github.com/remotehunt/remotehunt/internal/services"
)

func main() {
	// .env is optional outside local dev; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config: ", err)
	}

	logger, err := logging.New(cfg.Debug)
	if err != nil {
		log.Fatal("logger: ", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	db, err := database.Connect(cfg.DatabaseDSN, cfg.Debug)
	if err != nil {
		logger.Fatalw("database connect failed", "error", err)
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatalw("redis url invalid", "error", err)
		}
		rdb = redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnw("redis unreachable, fan-out queues disabled", "error", err)
			rdb = nil
		}
	}

	llm, err := services.NewLLMService(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.ExternalTimeout)
	if err != nil {
		logger.Fatalw("llm client failed", "error", err)
	}

	if !cfg.IdentityConfigured() {
		logger.Warnw("IDENTITY_API_URL not set, every company will pass identity validation")
	}
	identityClient := services.NewHTTPIdentityClient(cfg.IdentityBaseURL, cfg.ExternalTimeout)
	logoProber := services.NewHTTPLogoProber(cfg.LogoProbeURL, cfg.ExternalTimeout)

	companies := services.NewCompanyService(db)
	identity := services.NewIdentityService(db, identityClient, logoProber, llm, logger)
	dedup := services.NewDedupService(db)
	taxonomy := services.NewTaxonomyService(db)
	fanout := services.NewFanoutService(db, rdb, cfg.SearchPingURL, cfg.SiteBaseURL, logger)

	ingest := services.NewIngestService(db, llm, llm, companies, identity, dedup, taxonomy, fanout, logger)
	ingest.PostDelay = cfg.PostDelay

	worker := scheduler.New(ingest, logger, cfg.IngestIntervalMin)
	if err := worker.Start(ctx); err != nil {
		logger.Fatalw("scheduler failed", "error", err)
	}
	defer worker.Stop()

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	webhookHandler := handlers.NewWebhookHandler(ingest, cfg.WebhookSecret)
	jobHandler := handlers.NewJobHandler(db)

	r.POST("/webhooks/:source", webhookHandler.Receive)

	api := r.Group("/api/v1")
	{
		api.GET("/health", handlers.HealthCheck)
		api.GET("/jobs", jobHandler.ListJobs)
		api.GET("/jobs/:slug", jobHandler.GetJob)
		api.POST("/alerts", jobHandler.CreateAlert)
	}

	logger.Infow("server starting", "port", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatalw("server failed", "error", err)
	}
}
