package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/ecolehub/ecole-api/api/swagger"
	"github.com/ecolehub/ecole-api/internal/handler"
	"github.com/ecolehub/ecole-api/internal/middleware"
	"github.com/ecolehub/ecole-api/internal/repository"
	"github.com/ecolehub/ecole-api/internal/service"
	"github.com/ecolehub/ecole-api/pkg/cache"
	"github.com/ecolehub/ecole-api/pkg/config"
	"github.com/ecolehub/ecole-api/pkg/database"
	"github.com/ecolehub/ecole-api/pkg/logger"
	corsmiddleware "github.com/ecolehub/ecole-api/pkg/middleware/cors"
	reqidmiddleware "github.com/ecolehub/ecole-api/pkg/middleware/requestid"
)

// @title Ecole API
// @version 1.0.0
// @description School management backend: students, classes, imports, parent linking
// @BasePath /api/v1
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	// repositories
	studentRepo := repository.NewStudentRepository(db)
	classRepo := repository.NewClassRepository(db)
	linkRepo := repository.NewLinkRepository(db)
	recordRepo := repository.NewRecordRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheStore := cache.NewStore(redisClient, "ecole", logr)

	// services
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheStore, metricsSvc, cfg.Insights.CacheTTL, logr, cfg.Insights.Enabled && redisClient != nil)
	studentSvc := service.NewStudentService(studentRepo, nil, logr)
	classSvc := service.NewClassService(classRepo, nil, logr)
	linkSvc := service.NewLinkService(linkRepo, nil, logr, service.LinkConfig{
		TTL:        cfg.OTP.TTL,
		CodeLength: cfg.OTP.CodeLength,
		MaxRetries: cfg.OTP.MaxRetries,
	})
	importSvc := service.NewImportService(studentRepo, nil, logr, cfg.Import.MaxRows)
	insightsSvc := service.NewInsightsService(recordRepo, cacheSvc, metricsSvc, cfg.Insights.CacheTTL, logr)
	exportSvc := service.NewExportService(studentRepo, logr, cfg.Exports.Enabled)
	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	// handlers
	studentHandler := handler.NewStudentHandler(studentSvc)
	classHandler := handler.NewClassHandler(classSvc)
	linkHandler := handler.NewLinkHandler(linkSvc)
	importHandler := handler.NewImportHandler(importSvc, cfg.Import.MaxFileSizeBytes)
	insightsHandler := handler.NewInsightsHandler(insightsSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	authHandler := handler.NewAuthHandler(authSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	{
		protected.GET("/students", studentHandler.List)
		protected.GET("/students/:id", studentHandler.Get)
		protected.POST("/students", studentHandler.Create)
		protected.PATCH("/students/:id", studentHandler.Update)
		protected.DELETE("/students/:id", studentHandler.Delete)
		protected.GET("/students/:id/insights", insightsHandler.StudentInsights)

		protected.GET("/classes", classHandler.List)
		protected.GET("/classes/grouped", classHandler.Grouped)
		protected.POST("/classes", classHandler.Create)
		protected.PATCH("/classes/:id", classHandler.Update)

		protected.POST("/links", linkHandler.Issue)
		protected.PATCH("/links/redeem", linkHandler.Redeem)

		protected.POST("/imports/students", importHandler.ImportStudents)
		protected.GET("/exports/students", exportHandler.StudentRoster)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
