package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/TomaX04/Voz-del-Caser-o/api/swagger"
	"github.com/TomaX04/Voz-del-Caser-o/internal/middleware"
	"github.com/TomaX04/Voz-del-Caser-o/internal/repository"
	"github.com/TomaX04/Voz-del-Caser-o/internal/router"
	"github.com/TomaX04/Voz-del-Caser-o/internal/service"
	"github.com/TomaX04/Voz-del-Caser-o/pkg/cache"
	"github.com/TomaX04/Voz-del-Caser-o/pkg/config"
	"github.com/TomaX04/Voz-del-Caser-o/pkg/database"
	"github.com/TomaX04/Voz-del-Caser-o/pkg/jobs"
	"github.com/TomaX04/Voz-del-Caser-o/pkg/logger"
	corsmiddleware "github.com/TomaX04/Voz-del-Caser-o/pkg/middleware/cors"
	reqidmiddleware "github.com/TomaX04/Voz-del-Caser-o/pkg/middleware/requestid"
	"github.com/TomaX04/Voz-del-Caser-o/pkg/storage"
)

// @title Voz del Caserío API
// @version 1.0.0
// @description Community issue reporting for a rural hamlet.
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var redisClient *redis.Client
	if cfg.Store.Driver == config.StoreDriverRedis || cfg.Cache.Driver == config.CacheDriverRedis {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Fatal("failed to connect redis", zap.Error(err))
		}
		defer redisClient.Close() //nolint:errcheck
	}

	kv, closeStore, err := openStore(ctx, cfg, redisClient)
	if err != nil {
		logr.Fatal("failed to open report store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer closeStore()

	metrics := service.NewMetricsService()
	validate := validator.New()

	cacheRepo, err := openCache(cfg, redisClient, logr)
	if err != nil {
		logr.Fatal("failed to init cache", zap.String("driver", cfg.Cache.Driver), zap.Error(err))
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr)

	reportRepo := repository.NewReportRepository(kv)
	persister := service.NewReportPersister(reportRepo, metrics, logr)
	queue := jobs.NewQueue("report-persist", persister.Handle, jobs.QueueConfig{
		Workers:    1,
		MaxRetries: cfg.Store.WriteRetries,
		RetryDelay: cfg.Store.WriteRetryDelay,
		Logger:     logr,
	})
	queue.Start(context.Background())
	persister.UseQueue(queue)

	reports := service.NewReportService(reportRepo, persister, cacheSvc, metrics, service.NewImageIntake(cfg.Images), validate, logr, service.ReportServiceConfig{
		SeedOnEmpty: cfg.Store.SeedOnEmpty,
		CacheTTL:    cfg.Cache.TTL,
	})
	if err := reports.Bootstrap(ctx); err != nil {
		logr.Error("starting in degraded mode", zap.Error(err))
	}

	sessions := service.NewSessionService(repository.NewSessionRepository(kv), validate, logr, service.SessionConfig{
		Secret:                 cfg.Session.Secret,
		TTL:                    cfg.Session.TTL,
		PrivilegedPasscodeHash: cfg.Session.PrivilegedPasscodeHash,
	})
	exports := service.NewExportService(reports, nil, nil, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, middleware.ContextActorIDKey))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.MaxMultipartMemory = cfg.Images.MaxFileSizeBytes * int64(max(cfg.Images.MaxCount, 1))

	router.RegisterRoutes(r, router.Dependencies{
		APIPrefix:  cfg.APIPrefix,
		EnableDocs: cfg.Env != config.EnvProduction,
		Logger:     logr,
		Reports:    reports,
		Exports:    exports,
		Sessions:   sessions,
		Metrics:    metrics,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "store", cfg.Store.Driver, "cache", cfg.Cache.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	queue.Stop()
	logr.Info("shutdown complete", zap.Uint64("last_written_revision", persister.Written()))
}

func openStore(ctx context.Context, cfg *config.Config, redisClient *redis.Client) (repository.KVStore, func(), error) {
	noop := func() {}
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		return repository.NewMemoryKVRepository(), noop, nil
	case config.StoreDriverRedis:
		return repository.NewRedisKVRepository(redisClient, cfg.Store.KeyPrefix), noop, nil
	case config.StoreDriverPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, noop, err
		}
		if err := database.EnsureKVSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, noop, err
		}
		return repository.NewPostgresKVRepository(db), func() { _ = db.Close() }, nil
	case config.StoreDriverFile, "":
		local, err := storage.NewLocalStorage(cfg.Store.Dir)
		if err != nil {
			return nil, noop, err
		}
		return repository.NewFileKVRepository(local), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func openCache(cfg *config.Config, redisClient *redis.Client, logr *zap.Logger) (service.CacheRepository, error) {
	switch cfg.Cache.Driver {
	case config.CacheDriverNone:
		return nil, nil
	case config.CacheDriverRedis:
		return repository.NewCacheRepository(redisClient, "vozdelcaserio:", logr), nil
	case config.CacheDriverLRU, "":
		repo, err := repository.NewLRUCacheRepository(cfg.Cache.LRUSize)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Cache.Driver)
	}
}
