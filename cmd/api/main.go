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
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/demand-desk-api/api/swagger"
	"github.com/noah-isme/demand-desk-api/internal/handler"
	internalmiddleware "github.com/noah-isme/demand-desk-api/internal/middleware"
	"github.com/noah-isme/demand-desk-api/internal/realtime"
	"github.com/noah-isme/demand-desk-api/internal/repository"
	"github.com/noah-isme/demand-desk-api/internal/service"
	"github.com/noah-isme/demand-desk-api/pkg/cache"
	"github.com/noah-isme/demand-desk-api/pkg/config"
	"github.com/noah-isme/demand-desk-api/pkg/database"
	"github.com/noah-isme/demand-desk-api/pkg/jobs"
	"github.com/noah-isme/demand-desk-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/demand-desk-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/demand-desk-api/pkg/middleware/requestid"
)

// @title Demand Desk API
// @version 1.0.0
// @description Tutoring demand intake, operator status workflow and live notifications.
// @BasePath /api
// @schemes http https
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		migrator, err := database.NewMigrator(db, logr)
		if err != nil {
			logr.Fatal("migrator init failed", zap.Error(err))
		}
		if err := migrator.Up(ctx); err != nil {
			logr.Fatal("migrations failed", zap.Error(err))
		}
	}

	var redisClient *redis.Client
	if cfg.Catalog.CacheEnabled || cfg.Realtime.RedisRelay {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			if cfg.Realtime.RedisRelay {
				logr.Fatal("redis required for the realtime relay", zap.Error(err))
			}
			logr.Warn("redis unavailable, catalog cache disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	metrics := service.NewMetricsService()

	demandRepo := repository.NewDemandRepository(db)
	statusLogRepo := repository.NewStatusLogRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	operatorRepo := repository.NewOperatorRepository(db)

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, "demand-desk", logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Catalog.CacheTTL, logr, cfg.Catalog.CacheEnabled && redisClient != nil)
	catalogSvc := service.NewCatalogService(catalogRepo, cacheSvc, cfg.Catalog.CacheTTL, logr)
	if cfg.Database.AutoMigrate {
		if err := catalogSvc.Invalidate(ctx); err != nil {
			logr.Warn("catalog cache invalidation failed", zap.Error(err))
		}
	}

	tokens := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer}, operatorRepo, logr)
	lifecycle := service.NewLifecycleService(demandRepo, metrics, logr)

	hub := realtime.NewHub(metrics, logr)
	routerOpts := []realtime.RouterOption{
		realtime.WithQueue(jobs.QueueConfig{
			Workers:    cfg.Notify.Workers,
			BufferSize: cfg.Notify.QueueSize,
			MaxRetries: cfg.Notify.MaxRetries,
			Logger:     logr,
		}),
	}
	if cfg.Realtime.RedisRelay && redisClient != nil {
		routerOpts = append(routerOpts, realtime.WithRelay(realtime.NewRedisRelay(redisClient, cfg.Realtime.RelayChannel, logr)))
	}
	notifier := realtime.NewRouter(hub, metrics, logr, routerOpts...)
	notifier.Start(ctx)

	demandSvc := service.NewDemandService(demandRepo, statusLogRepo, lifecycle, service.NewValidator(), logr,
		service.WithCatalogValidator(catalogSvc),
		service.WithNotifier(notifier),
	)
	liveServer := realtime.NewServer(hub, realtime.ServerConfig{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Policy:         realtime.JoinPolicy{AllowAnonymous: cfg.Realtime.AllowAnonymousJoin},
		SendBuffer:     cfg.Realtime.SendBuffer,
	}, logr)

	metricsHandler := handler.NewMetricsHandler(metrics, db)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics, "/metrics", "/health"))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handler.Handlers{
		Demand:   handler.NewDemandHandler(demandSvc),
		Admin:    handler.NewAdminDemandHandler(demandSvc),
		Catalog:  handler.NewCatalogHandler(catalogSvc),
		Realtime: handler.NewRealtimeHandler(liveServer, tokens, logr),
	}, tokens)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
	hub.Close()
	notifier.Stop()
}
