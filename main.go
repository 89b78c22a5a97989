package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/amiratheer/aklyplus/billing"
	"github.com/amiratheer/aklyplus/config"
	"github.com/amiratheer/aklyplus/handlers"
	"github.com/amiratheer/aklyplus/logger"
	"github.com/amiratheer/aklyplus/notify"
	"github.com/amiratheer/aklyplus/routes"
	"github.com/amiratheer/aklyplus/statemachine"
	"github.com/amiratheer/aklyplus/store"
)

func main() {
	// .env is optional, real environments set variables directly
	_ = godotenv.Load()

	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.LogLevel, cfg.Development())

	if cfg.Development() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Backing store selection
	var backend store.Backend
	switch cfg.StoreBackend {
	case "redis":
		backend, err = store.NewRedisBackend(ctx, cfg.Redis.Addr, cfg.Redis.DB, log)
	case "memory":
		backend = store.NewMemoryBackend()
	default:
		backend, err = store.NewSQLiteBackend(cfg.SQLitePath)
	}
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("backing store unavailable")
	}
	defer backend.Close()

	cache, err := store.NewFileCache(cfg.CacheDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.CacheDir).Msg("cache directory unusable")
	}

	entities, err := store.NewEntityStore(backend, cache, log)
	if err != nil {
		log.Fatal().Err(err).Msg("entity store failed to start")
	}
	defer entities.Close()

	ledger := billing.NewLedger(entities, cfg.BillingFee, log)
	engine := statemachine.NewEngine(entities, ledger, log)

	// New-order notifications ride the same subscription feed the API serves
	// from.
	watcher := notify.NewWatcher(notify.NewLogNotifier(log), log)
	defer entities.OnOrders(watcher.OnOrders)()

	h := handlers.New(cfg, entities, engine, ledger, log)

	r := gin.New()
	r.Use(gin.Recovery())

	// CORS middleware for frontend integration
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"service":  "AklyPlus Order Management API",
			"backend":  cfg.StoreBackend,
			"degraded": entities.Degraded(),
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	routes.SetupRoutes(r, h, cfg.JWTSecret)

	log.Info().Str("port", cfg.Port).Str("backend", cfg.StoreBackend).Msg("server starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
