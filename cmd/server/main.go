package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/parcelscan/backend/internal/application/ordersync"
	"github.com/parcelscan/backend/internal/domain/orders"
	"github.com/parcelscan/backend/internal/infrastructure/config"
	"github.com/parcelscan/backend/internal/infrastructure/logger"
	"github.com/parcelscan/backend/internal/infrastructure/persistence"
	"github.com/parcelscan/backend/internal/infrastructure/scheduler"
	"github.com/parcelscan/backend/internal/infrastructure/shopify"
	"github.com/parcelscan/backend/internal/infrastructure/telemetry"
	"github.com/parcelscan/backend/internal/interfaces/http/handler"
	"github.com/parcelscan/backend/internal/interfaces/http/middleware"
	"github.com/parcelscan/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	defer func() {
		_ = log.Sync()
	}()

	log.Info("starting parcelscan backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing first so later components pick up the global provider.
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("failed to initialize tracing", zap.Error(err))
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database", zap.Error(err))
		}
	}()

	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        "postgresql",
	}, log)
	if err := dbTracing.Register(db.DB); err != nil {
		log.Fatal("failed to register database tracing", zap.Error(err))
	}

	store := persistence.NewGormStore(db.DB)

	source, err := shopify.NewClient(shopify.Config{
		ShopDomain:     cfg.Shopify.ShopDomain,
		AccessToken:    cfg.Shopify.AccessToken,
		APIVersion:     cfg.Shopify.APIVersion,
		TimeoutSeconds: cfg.Shopify.TimeoutSeconds,
		MaxRetries:     cfg.Shopify.MaxRetries,
	}, log)
	if err != nil {
		log.Fatal("failed to create shopify client", zap.Error(err))
	}

	tracker := ordersync.NewStateTracker(store.SyncStates(), orders.SyncTypeShopifyOrders, log)
	syncService := ordersync.NewService(store, source, tracker, ordersync.Config{
		PageSize:            cfg.Sync.PageSize,
		DefaultLookbackDays: cfg.Sync.DefaultLookbackDays,
		FullLookbackDays:    cfg.Sync.FullLookbackDays,
		StaleAfter:          cfg.Sync.StaleAfter,
	}, log)

	syncScheduler, err := scheduler.NewSyncScheduler(scheduler.SyncSchedulerConfig{
		Enabled:      cfg.Scheduler.Enabled,
		SyncInterval: cfg.Scheduler.SyncInterval,
		RunTimeout:   cfg.Scheduler.RunTimeout,
		AllowResume:  cfg.Scheduler.AllowResume,
		RunOnStart:   cfg.Scheduler.RunOnStart,
	}, syncService, log)
	if err != nil {
		log.Fatal("failed to create sync scheduler", zap.Error(err))
	}
	if err := syncScheduler.Start(ctx); err != nil {
		log.Fatal("failed to start sync scheduler", zap.Error(err))
	}

	engine := buildEngine(cfg, log)
	router.New(engine).Register(
		handler.NewSystemHandler(db),
		handler.NewSyncHandler(syncService),
	)

	server := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if err := syncScheduler.Stop(shutdownCtx); err != nil {
		log.Error("scheduler shutdown failed", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("tracer shutdown failed", zap.Error(err))
	}

	log.Info("shutdown complete")
}

// buildEngine assembles the gin engine with the full middleware chain.
// Order matters: request IDs must exist before spans and logs reference
// them.
func buildEngine(cfg *config.Config, log *zap.Logger) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.Tracing(cfg.Telemetry.ServiceName, cfg.Telemetry.Enabled),
		middleware.SpanEnricher(),
		middleware.RequestLogger(log),
		middleware.Recovery(log),
		middleware.CORS(middleware.DefaultCORSConfig()),
	)
	return engine
}
