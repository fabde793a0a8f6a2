package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/course-planner-api/internal/handler"
	"github.com/noah-isme/course-planner-api/internal/middleware"
	"github.com/noah-isme/course-planner-api/internal/models"
	"github.com/noah-isme/course-planner-api/internal/service"
	"github.com/noah-isme/course-planner-api/pkg/config"
	"github.com/noah-isme/course-planner-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/course-planner-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/course-planner-api/pkg/middleware/requestid"
)

type routes struct {
	tokens   middleware.TokenValidator
	metrics  *service.MetricsService
	schedule *handler.ScheduleGeneratorHandler
	catalog  *handler.CatalogHandler
	observe  *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, h routes) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(h.metrics))

	r.GET("/health", h.observe.Health)
	r.GET("/ready", h.observe.Ready)
	r.GET("/metrics", h.observe.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(h.tokens), middleware.WithResponseMeta())

	schedules := api.Group("/schedules")
	schedules.POST("/generate", h.schedule.Generate)
	schedules.GET("/results/:id", h.schedule.Result)
	schedules.GET("/results/:id/export", h.schedule.Export)

	admin := api.Group("")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	admin.POST("/catalog/sections/import", h.catalog.ImportSections)
	admin.POST("/catalog/ratings/sync", h.catalog.SyncRatings)
	admin.GET("/catalog/jobs/:id", h.catalog.JobStatus)
	admin.GET("/metrics/summary", h.observe.Summary)

	return r
}
