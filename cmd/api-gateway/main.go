package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/course-planner-api/api/swagger"
	"github.com/noah-isme/course-planner-api/internal/handler"
	"github.com/noah-isme/course-planner-api/internal/repository"
	"github.com/noah-isme/course-planner-api/internal/service"
	"github.com/noah-isme/course-planner-api/pkg/cache"
	"github.com/noah-isme/course-planner-api/pkg/catalog"
	"github.com/noah-isme/course-planner-api/pkg/config"
	"github.com/noah-isme/course-planner-api/pkg/database"
	"github.com/noah-isme/course-planner-api/pkg/export"
	"github.com/noah-isme/course-planner-api/pkg/jobs"
	"github.com/noah-isme/course-planner-api/pkg/logger"
)

// @title Course Planner API
// @version 1.0.0
// @description Generates ranked, conflict-free course schedules from a section catalog.
// @BasePath /api/v1
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("database unavailable", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, schedule cache disabled", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	queue := jobs.NewQueue("catalog", jobs.QueueConfig{
		Workers:    cfg.Catalog.Workers,
		MaxRetries: cfg.Catalog.Retries,
		RetryDelay: 5 * time.Second,
		Logger:     logr,
	})

	app := buildApp(cfg, logr, db, redisClient, queue)
	if err := app.ratings.Load(ctx); err != nil {
		logr.Warn("instructor ratings not preloaded", zap.Error(err))
	}
	queue.Start(ctx)
	defer queue.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

type app struct {
	router  *gin.Engine
	ratings *service.InstructorRatingService
}

func buildApp(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, redisClient *redis.Client, queue *jobs.Queue) app {
	validate := validator.New()
	metrics := service.NewMetricsService()

	sectionRepo := repository.NewSectionRepository(db)
	ratingRepo := repository.NewInstructorRatingRepository(db)

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Scheduler.CacheTTL, logr, cfg.Scheduler.CacheEnabled && redisClient != nil)

	sections := service.NewSectionService(sectionRepo, metrics, logr, cfg.Scheduler.OpenSeatsOnly)
	ratings := service.NewInstructorRatingService(ratingRepo, logr)
	generator := service.NewScheduleGeneratorService(sections, ratings, service.NewEngineFromConfig(cfg.Weights, logr), cacheSvc, metrics, validate, logr, service.GeneratorConfigFromConfig(cfg.Scheduler))
	exporter := service.NewExportService(generator, export.NewCSVExporter(), export.NewPDFExporter(nil), validate, logr)
	tokens := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})

	catalogClient := catalog.NewClient(catalog.Config{
		SectionsBaseURL: cfg.Catalog.BaseURL,
		RatingsBaseURL:  cfg.Catalog.RatingsBaseURL,
		Timeout:         cfg.Catalog.HTTPTimeout,
	}, nil)
	catalogSync := service.NewCatalogSyncService(catalogClient, sectionRepo, ratings, queue, metrics, validate, logr, service.CatalogSyncConfig{
		RequestDelay: cfg.Catalog.RequestDelay,
		Cache:        cacheSvc,
	})

	checks := map[string]handler.ReadinessCheck{
		"postgres": func(c *gin.Context) error { return db.PingContext(c.Request.Context()) },
	}
	if redisClient != nil {
		checks["redis"] = func(c *gin.Context) error { return redisClient.Ping(c.Request.Context()).Err() }
	}

	router := newRouter(cfg, logr, routes{
		tokens:   tokens,
		metrics:  metrics,
		schedule: handler.NewScheduleGeneratorHandler(generator, exporter),
		catalog:  handler.NewCatalogHandler(catalogSync),
		observe:  handler.NewMetricsHandler(metrics, checks),
	})
	return app{router: router, ratings: ratings}
}
