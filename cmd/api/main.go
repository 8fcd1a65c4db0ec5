package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/voltroute/voltroute/internal/adapters/googleplaces"
	"github.com/voltroute/voltroute/internal/adapters/http"
	"github.com/voltroute/voltroute/internal/adapters/mapbox"
	natsadapter "github.com/voltroute/voltroute/internal/adapters/nats"
	"github.com/voltroute/voltroute/internal/adapters/postgres"
	"github.com/voltroute/voltroute/internal/adapters/tomtom"
	"github.com/voltroute/voltroute/internal/adapters/valkey"
	"github.com/voltroute/voltroute/internal/core/ports"
	"github.com/voltroute/voltroute/internal/core/usecases"
	"github.com/voltroute/voltroute/internal/pkg/config"
	"github.com/voltroute/voltroute/internal/pkg/logging"
	"github.com/voltroute/voltroute/internal/pkg/metrics"
	"github.com/voltroute/voltroute/internal/pkg/report"
	"github.com/voltroute/voltroute/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("voltroute-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Error reporting
	if err := report.Setup(cfg.Sentry.DSN, cfg.Sentry.Environment); err != nil {
		slog.Warn("sentry init failed", "error", err)
	} else {
		defer report.Flush()
	}

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	go func() {
		t := time.NewTicker(15 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				metrics.UpdateDBPoolMetrics(db.Pool.Stat())
			case <-ctx.Done():
				return
			}
		}
	}()

	// Cache. The API keeps serving without it, every provider query just
	// goes upstream.
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
		cache = nil
	} else {
		defer cache.Close()
		cacheSvc = cache
	}

	// NATS plan event publisher
	var events ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
		events = pub
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// Providers
	chargerSearch := tomtom.New(cfg.Providers.TomTomKey)
	routeProvider := mapbox.New(cfg.Providers.MapboxToken)

	var geocoder ports.Geocoder
	switch cfg.Providers.Geocoder {
	case "google":
		geocoder = googleplaces.New(cfg.Providers.GooglePlacesKey)
	default:
		geocoder = routeProvider
	}

	// Repos
	planRepo := postgres.NewPlanRepo(db)

	// Use cases
	plannerCfg := usecases.PlannerConfig{
		MaxDepth:              cfg.Planner.MaxDepth,
		SamplePoints:          cfg.Planner.SamplePoints,
		MaxSearchRadiusMeters: cfg.Planner.MaxSearchRadiusMeters,
		SearchInterval:        time.Duration(cfg.Planner.SearchIntervalMS) * time.Millisecond,
		RetryBackoff:          time.Duration(cfg.Planner.RetryBackoffMS) * time.Millisecond,
		PlanTimeout:           time.Duration(cfg.Planner.PlanTimeoutSeconds) * time.Second,
		CacheTTLSeconds:       cfg.Planner.CacheTTLSeconds,
	}

	clusterSvc := usecases.NewClusterService(cfg.Cluster.MaxNodes)
	chargerSvc := usecases.NewChargerService(chargerSearch, cacheSvc, clusterSvc)
	plannerSvc := usecases.NewPlannerService(chargerSearch, routeProvider, cacheSvc, events, planRepo, plannerCfg)
	planSvc := usecases.NewPlanService(planRepo)
	geocodeSvc := usecases.NewGeocodeService(geocoder)

	deps := &http.Dependencies{
		Chargers:  chargerSvc,
		Planner:   plannerSvc,
		Plans:     planSvc,
		AltRoutes: routeProvider,
		Geocode:   geocodeSvc,
		NATS:      natsConn,
		DB:        db,
		Cache:     cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "VoltRoute API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173, https://*.voltroute.app",
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
