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
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.temporal.io/sdk/client"
	temporallog "go.temporal.io/sdk/log"

	"github.com/samirrijal/clinicmap/internal/adapters/http"
	natsadapter "github.com/samirrijal/clinicmap/internal/adapters/nats"
	"github.com/samirrijal/clinicmap/internal/adapters/postgres"
	"github.com/samirrijal/clinicmap/internal/adapters/valkey"
	"github.com/samirrijal/clinicmap/internal/core/domain"
	"github.com/samirrijal/clinicmap/internal/core/labeling"
	"github.com/samirrijal/clinicmap/internal/core/ports"
	"github.com/samirrijal/clinicmap/internal/core/usecases"
	"github.com/samirrijal/clinicmap/internal/pkg/config"
	"github.com/samirrijal/clinicmap/internal/pkg/logging"
	"github.com/samirrijal/clinicmap/internal/pkg/metrics"
	"github.com/samirrijal/clinicmap/internal/pkg/telemetry"
	"github.com/samirrijal/clinicmap/internal/workflows"
)

// The legacy /v1/labels alias is removed after this date.
var labelsSunset = time.Date(2027, time.March, 31, 0, 0, 0, 0, time.UTC)

func main() {
	cfg, err := config.Load("clinicmap-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

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
	db, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go reportPoolMetrics(ctx, db)

	// Cache; a nil port keeps the services on uncached reads.
	var cachePort ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.KeyPrefix)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer cache.Close()
		cachePort = cache
	}

	clinicSvc := usecases.NewClinicService(postgres.NewClinicRepo(db), cachePort)
	mapSvc := usecases.NewMapService(clinicSvc, mapConfig(cfg.Map))

	deps := &http.Dependencies{
		Clinics:      clinicSvc,
		Map:          mapSvc,
		DB:           db,
		Cache:        cache,
		LabelsSunset: labelsSunset,
	}

	// NATS: the publisher connection relays directory events to WebSocket
	// clients; the subscriber evicts cached reads when the directory changes.
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
		deps.NATS = pub.Conn()
	}

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats subscriber unavailable", "error", err)
	} else {
		defer sub.Close()
		err = sub.SubscribeClinicPublished(ctx, func(ctx context.Context, c *domain.Clinic) error {
			if err := clinicSvc.Invalidate(ctx, c.ID); err != nil {
				metrics.DirectoryEvents.WithLabelValues("error").Inc()
				return err
			}
			metrics.DirectoryEvents.WithLabelValues("invalidated").Inc()
			return nil
		})
		if err != nil {
			slog.Warn("directory subscription failed", "error", err)
		}
	}

	// Temporal, for queued directory syncs
	tc, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    temporallog.NewStructuredLogger(logger),
	})
	if err != nil {
		slog.Warn("temporal unavailable, directory sync disabled", "error", err)
	} else {
		defer tc.Close()
		deps.Sync = workflows.NewScheduler(tc, cfg.Temporal.TaskQueue)
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    256 * 1024,
		AppName:      "Clinic Map API",
		ErrorHandler: http.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:8081, http://localhost:19006",
		AllowMethods:     "GET,POST,OPTIONS",
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

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// mapConfig converts the map section of the config into service settings.
func mapConfig(m config.MapConfig) usecases.MapConfig {
	return usecases.MapConfig{
		ZoomedInThreshold: m.ZoomedInThreshold,
		DefaultLatDelta:   m.DefaultLatDelta,
		DefaultRadiusKm:   m.DefaultRadiusKm,
		Box:               labeling.Box{Width: m.LabelBoxWidth, Height: m.LabelBoxHeight},
		FallbackRegion: domain.Region{
			Latitude:       m.FallbackLat,
			Longitude:      m.FallbackLng,
			LatitudeDelta:  m.FallbackDelta,
			LongitudeDelta: m.FallbackDelta,
		},
		ClinicRegionDelta: m.ClinicRegionDelta,
	}
}

func reportPoolMetrics(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			db.ReportPoolMetrics()
		}
	}
}
