package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nbinstitution/lms-client-go/internal/bootstrap"
	"github.com/nbinstitution/lms-client-go/internal/features/auth"
	"github.com/nbinstitution/lms-client-go/internal/features/course"
	"github.com/nbinstitution/lms-client-go/internal/features/user"
	"github.com/nbinstitution/lms-client-go/internal/http/routes"
	"github.com/nbinstitution/lms-client-go/pkg/config"
	"github.com/nbinstitution/lms-client-go/pkg/logger"
	"github.com/nbinstitution/lms-client-go/pkg/metrics"
	"github.com/nbinstitution/lms-client-go/pkg/middleware"
	"github.com/nbinstitution/lms-client-go/pkg/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	appLogger, err := logger.New(cfg.LogLevel, cfg.LogDir)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := openStorage(cfg.Storage)
	if err != nil {
		appLogger.Error("storage initialization failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			appLogger.Error("storage close failed", slog.String("error", err.Error()))
		}
	}()

	appLogger.Info("storage ready", slog.String("backend", cfg.Storage.Backend))

	directory := user.OpenDirectory(store)
	if err := bootstrap.EnsureDefaultAccounts(ctx, directory, appLogger); err != nil {
		appLogger.Error("ensure default accounts failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	manager := auth.NewManager(store, directory, appLogger,
		auth.WithLatency(cfg.SimulatedLatency),
		auth.WithNotices(func(message string) {
			appLogger.Info("session notice", slog.String("message", message))
		}),
	)

	if session, ok := manager.Restore(ctx); ok {
		appLogger.Info("session restored",
			slog.String("user_id", session.UserID),
			slog.String("email", session.Email),
		)
	}

	courseStore := course.NewStore(appLogger, course.WithLatency(cfg.SimulatedLatency))
	if cfg.SeedDemoCatalog {
		bootstrap.SeedDemoCatalog(courseStore, appLogger)
	}

	metrics.RegisterCatalogGauges(courseStore.CourseCount, courseStore.ProgressCount)

	router := gin.New()
	router.Use(middleware.Recovery(appLogger))
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(appLogger))
	router.Use(metrics.Middleware())

	// Rate limiting (100 requests per minute per IP)
	rateLimiter := middleware.NewRateLimiter(100, time.Minute)
	router.Use(rateLimiter.Middleware())

	routes.Register(router, store, manager, courseStore, appLogger)

	srv := &http.Server{
		Addr:              cfg.ServerAddress(),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	go func() {
		appLogger.Info("server starting",
			slog.String("addr", cfg.ServerAddress()),
			slog.String("env", cfg.Env),
			slog.String("log_level", cfg.LogLevel),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("server listen failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("server shutdown failed", slog.String("error", err.Error()))
	} else {
		appLogger.Info("server stopped gracefully")
	}
}

func openStorage(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Backend {
	case config.StorageMemory:
		return storage.NewMemoryStore(), nil
	case config.StorageRedis:
		return storage.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	default:
		return storage.NewFileStore(cfg.FilePath)
	}
}
