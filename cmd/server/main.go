package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/anganwadi-sewa/anganwadi-api/api/swagger"
	"github.com/anganwadi-sewa/anganwadi-api/internal/handler"
	"github.com/anganwadi-sewa/anganwadi-api/internal/middleware"
	"github.com/anganwadi-sewa/anganwadi-api/internal/models"
	"github.com/anganwadi-sewa/anganwadi-api/internal/repository"
	"github.com/anganwadi-sewa/anganwadi-api/internal/service"
	"github.com/anganwadi-sewa/anganwadi-api/pkg/cache"
	"github.com/anganwadi-sewa/anganwadi-api/pkg/config"
	"github.com/anganwadi-sewa/anganwadi-api/pkg/database"
	"github.com/anganwadi-sewa/anganwadi-api/pkg/logger"
	corsmiddleware "github.com/anganwadi-sewa/anganwadi-api/pkg/middleware/cors"
	reqidmiddleware "github.com/anganwadi-sewa/anganwadi-api/pkg/middleware/requestid"
)

// @title Anganwadi Sewa API
// @version 1.0.0
// @description Admin backend for anganwadi student registration and QR lookups
// @BasePath /api
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, lookup caching disabled", "error", err)
		redisClient = nil
	}

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
		BcryptCost:  cfg.Auth.BcryptCost,
	})
	accessSvc := service.NewAccessService(userRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, cacheRepo, validate, logr, metricsSvc, cfg.Lookup.CacheTTL)

	authHandler := handler.NewAuthHandler(authSvc)
	adminHandler := handler.NewAdminHandler(accessSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/auth/login", authHandler.Login)
		api.POST("/auth/register",
			middleware.JWT(authSvc),
			middleware.RequireRoles(models.RoleSuperAdmin),
			authHandler.Register)
		api.GET("/auth/me", middleware.JWT(authSvc), authHandler.Me)

		admins := api.Group("/admins",
			middleware.JWT(authSvc),
			middleware.RequireRoles(models.RoleSuperAdmin))
		{
			admins.GET("", adminHandler.List)
			admins.PUT("/:id/access", adminHandler.UpdateAccess)
			admins.PUT("/:id/role", adminHandler.UpdateRole)
		}

		api.POST("/students",
			middleware.Audit(userRepo, models.AuditActionStudentRegister, "students"),
			studentHandler.Register)
		api.GET("/students", studentHandler.List)
		api.GET("/students/lookup/:identifier", studentHandler.Lookup)
		if cfg.Exports.Enabled {
			api.GET("/students/export",
				middleware.JWT(authSvc),
				middleware.RequireCapability(models.CapabilityStudentRegistration),
				studentHandler.Export)
		}

		api.GET("/metrics/summary",
			middleware.JWT(authSvc),
			middleware.RequireRoles(models.RoleSuperAdmin),
			metricsHandler.Summary)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
