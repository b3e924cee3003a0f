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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-result-desk/api/swagger"
	"github.com/noah-isme/sma-result-desk/internal/handler"
	"github.com/noah-isme/sma-result-desk/internal/middleware"
	"github.com/noah-isme/sma-result-desk/internal/models"
	"github.com/noah-isme/sma-result-desk/internal/repository"
	"github.com/noah-isme/sma-result-desk/internal/service"
	"github.com/noah-isme/sma-result-desk/pkg/cache"
	"github.com/noah-isme/sma-result-desk/pkg/config"
	"github.com/noah-isme/sma-result-desk/pkg/database"
	"github.com/noah-isme/sma-result-desk/pkg/httpclient"
	"github.com/noah-isme/sma-result-desk/pkg/jobs"
	"github.com/noah-isme/sma-result-desk/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-result-desk/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-result-desk/pkg/middleware/requestid"
)

// @title Result Desk API
// @version 1.0.0
// @description Role-based result management desk for the university result service.
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.LocalDB)
	if err != nil {
		logr.Fatal("failed to open local store", zap.String("driver", cfg.LocalDB.Driver), zap.Error(err))
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		logr.Fatal("failed to migrate local store", zap.Error(err))
	}

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	client, err := httpclient.New(httpclient.Config{
		BaseURL:    cfg.Remote.BaseURL,
		Timeout:    cfg.Remote.Timeout,
		AuthScheme: cfg.Remote.AuthScheme,
		Logger:     logr.Named("remote"),
		Observer:   metricsSvc,
	})
	if err != nil {
		logr.Fatal("failed to build remote client", zap.Error(err))
	}

	badgeStore, closeBadgeStore, err := openBadgeStore(ctx, cfg, db, logr)
	if err != nil {
		logr.Fatal("failed to open badge store", zap.String("store", cfg.BadgeStore), zap.Error(err))
	}
	defer closeBadgeStore()

	courseRepo := repository.NewCourseRepository(client)
	resultRepo := repository.NewResultRepository(client)
	caConfigRepo := repository.NewCAConfigRepository(client)
	submittedRepo := repository.NewSubmittedResultRepository(client)
	notificationRepo := repository.NewNotificationRepository(client)
	authRepo := repository.NewAuthRepository(client)
	sessionRepo := repository.NewSessionRepository(db)

	sessionSvc := service.NewSessionService(authRepo, sessionRepo, cfg.Session.Secret, validate, logr.Named("session"))
	client.SetTokenSource(sessionSvc)

	badgeCache := service.NewDraftStatusCache(badgeStore, metricsSvc, logr.Named("badges"))
	if err := badgeCache.Warm(ctx); err != nil {
		logr.Warn("badge cache not warmed", zap.Error(err))
	}

	caConfig := service.NewCAConfigManager(caConfigRepo, validate, logr.Named("ca_config"))
	sessionSvc.OnSignIn(func(ctx context.Context, user models.User) {
		caConfig.Load(ctx)
	})

	workflowSvc := service.NewResultWorkflowService(courseRepo, resultRepo, caConfig, badgeCache, metricsSvc, cfg.Remote.BatchConcurrency, logr.Named("workflow"))
	courseSvc := service.NewCourseService(courseRepo, badgeCache, logr.Named("courses"))
	defer courseSvc.Close()
	submittedSvc := service.NewSubmittedResultService(submittedRepo, courseRepo, caConfig, badgeCache, metricsSvc, cfg.Remote.BatchConcurrency, logr.Named("submitted"))
	notificationSvc := service.NewNotificationService(notificationRepo, logr.Named("notifications"))
	exportSvc := service.NewExportService(workflowSvc, logr.Named("export"))

	if cfg.Refresh.Enabled {
		refreshQueue := jobs.NewQueue("status-refresh", workflowSvc.HandleRefresh, jobs.QueueConfig{
			Workers:    cfg.Refresh.Workers,
			MaxRetries: cfg.Refresh.Retries,
			RetryDelay: cfg.Refresh.RetryDelay,
			Logger:     logr.Named("jobs"),
		})
		refreshQueue.Start(ctx)
		defer refreshQueue.Stop()
		workflowSvc.SetRefreshQueue(refreshQueue)
	}

	if err := sessionSvc.Restore(ctx); err != nil {
		logr.Warn("failed to restore session", zap.Error(err))
	}
	if sessionSvc.User() == nil {
		caConfig.Load(ctx)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	registerRoutes(r, cfg, routeDeps{
		sessions:      sessionSvc,
		session:       handler.NewSessionHandler(sessionSvc),
		courses:       handler.NewCourseHandler(courseSvc),
		results:       handler.NewResultHandler(workflowSvc, exportSvc),
		caConfig:      handler.NewCAConfigHandler(caConfig),
		badges:        handler.NewBadgeHandler(badgeCache),
		submitted:     handler.NewSubmittedResultHandler(submittedSvc),
		notifications: handler.NewNotificationHandler(notificationSvc),
		observability: handler.NewMetricsHandler(metricsSvc, sessionSvc),
	})

	if cfg.Docs.Enabled {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "remote", cfg.Remote.BaseURL, "badge_store", cfg.BadgeStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

type badgeStore interface {
	List(ctx context.Context) ([]models.DraftStatusBadge, error)
	Upsert(ctx context.Context, badge models.DraftStatusBadge) error
	Delete(ctx context.Context, courseID int64) error
	DeleteAll(ctx context.Context) error
}

func openBadgeStore(ctx context.Context, cfg *config.Config, db *sqlx.DB, logr *zap.Logger) (badgeStore, func(), error) {
	switch cfg.BadgeStore {
	case "", config.BadgeStoreSQL:
		return repository.NewBadgeRepository(db), func() {}, nil
	case config.BadgeStoreRedis:
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := client.Close(); err != nil {
				logr.Warn("failed to close redis", zap.Error(err))
			}
		}
		return repository.NewRedisBadgeRepository(client, cfg.Redis.KeyPrefix, logr.Named("badges_redis")), closeFn, nil
	case config.BadgeStoreMemory:
		return repository.NewMemoryBadgeRepository(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown badge store %q", cfg.BadgeStore)
	}
}
