// Package bootstrap wires the engine's dependencies and HTTP surface.
package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	inhttp "brandintel_server/adapter/in/http"
	"brandintel_server/adapter/out/mongodb"
	"brandintel_server/adapter/out/persistence"
	"brandintel_server/config"
	"brandintel_server/core/agent/llm"
	"brandintel_server/core/port/out"
	"brandintel_server/core/service/aggregate"
	"brandintel_server/core/service/extract"
	"brandintel_server/core/service/learning"
	"brandintel_server/core/service/recommend"
	"brandintel_server/infra/database"
	"brandintel_server/pkg/cache"
	"brandintel_server/pkg/logger"
	"brandintel_server/pkg/ratelimit"
)

// Dependencies holds every wired component of the engine.
type Dependencies struct {
	Config  *config.Config
	DB      *pgxpool.Pool
	SQLDB   *sqlx.DB
	Redis   *redis.Client
	MongoDB *mongo.Client

	// Repositories
	SignalRepo   out.BrandSignalRepository
	LearningRepo out.BrandLearningRepository
	GlobalRepo   out.GlobalIntelRepository
	SeedRepo     out.SeedCatalogRepository
	AuditRepo    out.FeedbackLogRepository

	// Cache
	ScoreCache *cache.RedisCache

	// Services
	Extractor   *extract.Service
	Aggregator  *aggregate.Service
	Learning    *learning.Service
	Recommender *recommend.Service

	// Agent
	LLMClient *llm.Client
}

// NewDependencies connects the backing stores and wires the services.
// MongoDB is the primary store and is required; Redis and PostgreSQL are
// best-effort side channels whose absence only disables caching and the
// audit trail.
func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	deps := &Dependencies{Config: cfg}
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	// MongoDB (primary store)
	if cfg.MongoDBURL == "" {
		return nil, nil, fmt.Errorf("MONGODB_URL is required")
	}
	mongoClient, err := mongodb.NewClient(cfg.MongoDBURL, cfg.MongoDBName)
	if err != nil {
		return nil, nil, fmt.Errorf("mongodb connection failed: %w", err)
	}
	deps.MongoDB = mongoClient
	cleanups = append(cleanups, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	})

	db := mongoClient.Database(cfg.MongoDBName)
	signalRepo := mongodb.NewBrandSignalAdapter(db)
	learningRepo := mongodb.NewBrandLearningAdapter(db)
	globalRepo := mongodb.NewGlobalIntelAdapter(db)
	seedRepo := mongodb.NewSeedCatalogAdapter(db)

	indexCtx, cancelIndex := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelIndex()
	for name, ensure := range map[string]func(context.Context) error{
		"brand_signals": signalRepo.EnsureIndexes,
		"learning":      learningRepo.EnsureIndexes,
		"global_intel":  globalRepo.EnsureIndexes,
		"seed_catalog":  seedRepo.EnsureIndexes,
	} {
		if err := ensure(indexCtx); err != nil {
			logger.Warn("failed to ensure %s indexes: %v", name, err)
		}
	}

	if err := mongodb.LoadDefaultCatalog(indexCtx, seedRepo); err != nil {
		logger.Warn("failed to load seed catalog: %v", err)
	}

	deps.SignalRepo = signalRepo
	deps.LearningRepo = learningRepo
	deps.GlobalRepo = globalRepo
	deps.SeedRepo = seedRepo

	// Redis (score cache)
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedis(cfg.RedisURL)
		if err != nil {
			logger.Warn("Redis connection failed, score caching disabled: %v", err)
		} else {
			deps.Redis = redisClient
			deps.ScoreCache = cache.NewRedisCache(redisClient)
			cleanups = append(cleanups, func() { redisClient.Close() })
		}
	}

	// PostgreSQL (feedback audit trail)
	if cfg.DatabaseURL != "" {
		pool, err := database.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			logger.Warn("Postgres connection failed, audit trail disabled: %v", err)
		} else {
			deps.DB = pool
			cleanups = append(cleanups, func() { pool.Close() })

			sqlxURL := cfg.DatabaseURL
			if strings.Contains(sqlxURL, "?") {
				sqlxURL += "&default_query_exec_mode=simple_protocol"
			} else {
				sqlxURL += "?default_query_exec_mode=simple_protocol"
			}
			sqlDB, err := sqlx.Connect("pgx", sqlxURL)
			if err != nil {
				logger.Warn("sqlx connection failed, audit trail disabled: %v", err)
			} else {
				sqlDB.SetMaxOpenConns(25)
				sqlDB.SetMaxIdleConns(10)
				sqlDB.SetConnMaxLifetime(30 * time.Minute)
				sqlDB.SetConnMaxIdleTime(5 * time.Minute)

				deps.SQLDB = sqlDB
				cleanups = append(cleanups, func() { sqlDB.Close() })

				auditRepo := persistence.NewFeedbackLogAdapter(sqlDB)
				if err := auditRepo.EnsureSchema(indexCtx); err != nil {
					logger.Warn("audit trail disabled: %v", err)
				} else {
					deps.AuditRepo = auditRepo
				}
			}
		}
	}

	extract.AddNonCommercialDomains(cfg.ExtraDenyDomains)

	// Enrichment collaborator
	var enricher *extract.Enricher
	if cfg.EnrichmentOn && cfg.OpenAIAPIKey != "" {
		deps.LLMClient = llm.NewClientWithConfig(llm.ClientConfig{
			APIKey:    cfg.OpenAIAPIKey,
			Model:     cfg.LLMModel,
			MaxTokens: cfg.LLMMaxTokens,
		})
		enricher = extract.NewEnricher(deps.LLMClient, extract.EnricherConfig{
			Timeout:       cfg.LLMTimeout(),
			ExcerptMaxLen: cfg.ExcerptMaxChars,
		})
		logger.Info("signal enrichment enabled (model=%s)", cfg.LLMModel)
	} else {
		logger.Info("signal enrichment disabled, deterministic extraction only")
	}

	// Services
	deps.Extractor = extract.NewService(enricher, enricher != nil)
	pacer := ratelimit.NewBatchPacer(&ratelimit.Config{
		MaxConcurrent: cfg.MaxConcurrent,
		BatchDelay:    cfg.BatchDelay(),
	})
	deps.Aggregator = aggregate.NewService(deps.Extractor, deps.SignalRepo, pacer, cfg)
	deps.Learning = learning.NewService(deps.LearningRepo, deps.GlobalRepo, deps.AuditRepo, deps.ScoreCache, cfg)
	deps.Recommender = recommend.NewService(cfg)

	return deps, cleanup, nil
}

// NewAPI builds the fiber application with all routes registered.
func NewAPI(cfg *config.Config) (*fiber.App, func(), error) {
	deps, cleanup, err := NewDependencies(cfg)
	if err != nil {
		return nil, nil, err
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: cfg.IsProduction(),
		ReadBufferSize:        16384,
		WriteBufferSize:       16384,
		BodyLimit:             10 * 1024 * 1024,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	inhttp.NewHealthHandler(deps.DB, deps.Redis, deps.MongoDB).Register(app)

	api := app.Group("/api")
	inhttp.NewSignalHandler(deps.Extractor, deps.Aggregator, deps.SignalRepo).Register(api)
	inhttp.NewFeedbackHandler(deps.Learning, deps.AuditRepo).Register(api)
	inhttp.NewRecommendHandler(deps.Recommender, deps.SeedRepo).Register(api)

	return app, cleanup, nil
}
