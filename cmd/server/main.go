package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bulkops/internal/bulkops/config"
	"bulkops/internal/bulkops/handler"
	"bulkops/internal/bulkops/notify"
	"bulkops/internal/bulkops/policy"
	"bulkops/internal/bulkops/repository"
	"bulkops/internal/bulkops/router"
	"bulkops/internal/bulkops/service"
	"bulkops/internal/bulkops/util"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// store bundles the three persistence roles the engine needs.
type store interface {
	repository.RecordStore
	repository.OperationLedger
	repository.AuditSink
}

func main() {
	// 0. Init Logger
	util.InitLogger()
	logger := util.GetLogger()

	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	util.InitLoggerWithLevel(cfg.LogLevel)
	logger = util.GetLogger()

	// 2. Init Store
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var (
		repo   store
		client *mongo.Client
	)
	switch cfg.StoreDriver {
	case config.StoreMemory:
		logger.Warn("Using in-memory store, data is lost on restart")
		repo = repository.NewMemoryRepository()
	default:
		client, err = mongo.Connect(ctx, options.Client().
			ApplyURI(cfg.MongoURI).
			SetReadPreference(readpref.Primary()))
		if err != nil {
			logger.Error("Failed to connect to MongoDB", "error", err)
			os.Exit(1)
		}

		mongoRepo := repository.NewMongoRepository(client.Database(cfg.DBName),
			cfg.RecordsCollection, cfg.OperationsCollection, cfg.AuditCollection)

		if err := mongoRepo.EnsureIndexes(ctx); err != nil {
			logger.Warn("Failed to ensure record indexes", "error", err)
		}
		if err := mongoRepo.EnsureLedgerIndexes(ctx); err != nil {
			logger.Warn("Failed to ensure ledger indexes", "error", err)
		}
		if err := mongoRepo.EnsureAuditIndexes(ctx); err != nil {
			logger.Warn("Failed to ensure audit indexes", "error", err)
		}
		repo = mongoRepo
	}

	// 3. Init Notifier
	var notifier notify.Notifier = notify.NewLogNotifier(logger)
	var redisNotifier *notify.RedisNotifier
	if cfg.RedisAddr != "" {
		redisNotifier, err = notify.NewRedisNotifier(ctx, cfg.RedisAddr, cfg.RedisChannel)
		if err != nil {
			logger.Warn("Redis unavailable, falling back to log notifier", "addr", cfg.RedisAddr, "error", err)
		} else {
			notifier = redisNotifier
		}
	}

	// 4. Init Layers
	policyEngine, err := policy.NewEngine()
	if err != nil {
		logger.Error("Failed to load bulk operation policy", "error", err)
		os.Exit(1)
	}

	svc := service.NewService(repo, repo, repo, notifier, cfg.Engine, logger)
	h := handler.NewBulkHandler(svc)

	// 5. Init Echo & Routes
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			)
			return nil
		},
	}))

	router.RegisterRoutes(e, h, policyEngine, repo, repo)

	// 6. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      e,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Port, "store", cfg.StoreDriver, "audit_mode", cfg.Engine.AuditMode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("shutting down the server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server Shutdown Failed", "error", err)
	}

	if redisNotifier != nil {
		if err := redisNotifier.Close(); err != nil {
			logger.Error("Failed to close redis", "error", err)
		}
	}

	if client != nil {
		if err := client.Disconnect(shutdownCtx); err != nil {
			logger.Error("Failed to disconnect DB", "error", err)
		}
	}

	logger.Info("Server exited properly")
}
