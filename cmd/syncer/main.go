package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	temporallog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/clinicmap/internal/adapters/nats"
	"github.com/samirrijal/clinicmap/internal/adapters/postgres"
	"github.com/samirrijal/clinicmap/internal/adapters/valkey"
	"github.com/samirrijal/clinicmap/internal/core/ports"
	"github.com/samirrijal/clinicmap/internal/core/usecases"
	"github.com/samirrijal/clinicmap/internal/pkg/config"
	"github.com/samirrijal/clinicmap/internal/pkg/logging"
	"github.com/samirrijal/clinicmap/internal/pkg/telemetry"
	"github.com/samirrijal/clinicmap/internal/workflows"
)

func main() {
	cfg, err := config.Load("clinicmap-syncer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	db, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	var publisher ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, directory events not published", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	var cache ports.CacheService
	if c, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.KeyPrefix); err != nil {
		slog.Warn("valkey unavailable, caches not evicted", "error", err)
	} else {
		defer c.Close()
		cache = c
	}

	syncSvc := usecases.NewDirectorySyncService(
		postgres.NewProfileRepo(db),
		postgres.NewClinicRepo(db),
		publisher,
		cache,
	)

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    temporallog.NewStructuredLogger(logger),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	w.RegisterWorkflow(workflows.DirectorySyncWorkflow)
	w.RegisterActivity(&workflows.DirectorySyncActivities{Sync: syncSvc})

	slog.Info("directory sync worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
