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

	"github.com/samirrijal/schoolfinder/internal/adapters/http"
	natsadapter "github.com/samirrijal/schoolfinder/internal/adapters/nats"
	"github.com/samirrijal/schoolfinder/internal/adapters/storage"
	"github.com/samirrijal/schoolfinder/internal/adapters/valkey"
	"github.com/samirrijal/schoolfinder/internal/core/ports"
	"github.com/samirrijal/schoolfinder/internal/core/usecases"
	"github.com/samirrijal/schoolfinder/internal/pkg/config"
	"github.com/samirrijal/schoolfinder/internal/pkg/logging"
	"github.com/samirrijal/schoolfinder/internal/pkg/metrics"
	"github.com/samirrijal/schoolfinder/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("schoolfinder-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	store, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer store.Close()

	// Without the table every request would fail, so refuse to start.
	if err := store.Schema.EnsureSchema(ctx); err != nil {
		store.Close()
		log.Fatalf("ensure schema: %v", err)
	}
	slog.Info("schema ready", "driver", store.Driver)

	go reportPoolStats(ctx, store.Pool)

	deps := &http.Dependencies{
		DB:             store.Pool,
		RequestTimeout: cfg.Server.RequestTimeoutDuration(),
		MaxInFlight:    int64(cfg.Server.MaxInFlight),
		RateLimit:      cfg.Server.RateLimit,
	}

	// Cache
	var cache ports.CacheService
	if cfg.Valkey.Enabled {
		c, err := valkey.New(cfg.Valkey.Addr, "schoolfinder")
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
		} else {
			defer c.Close()
			cache = c
			deps.Cache = c
		}
	}

	// NATS
	var events ports.EventPublisher
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			defer pub.Close()
			events = pub
			deps.NATS = pub.Conn()
		}
	}

	deps.Schools = usecases.NewSchoolService(store.Schools, cache, events,
		usecases.WithCacheTTL(cfg.Valkey.TTL),
	)

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    8 * 1024 * 1024, // batches can be large
		AppName:      "SchoolFinder API",
		ErrorHandler: http.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
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

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// reportPoolStats refreshes the pool gauges until ctx is cancelled.
func reportPoolStats(ctx context.Context, pool storage.Pool) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if stat, ok := pool.Stat(); ok {
				metrics.UpdateDBPoolMetrics(stat)
			}
		}
	}
}
