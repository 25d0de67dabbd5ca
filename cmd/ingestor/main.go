package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	natsadapter "github.com/samirrijal/clinicmap/internal/adapters/nats"
	"github.com/samirrijal/clinicmap/internal/adapters/postgres"
	"github.com/samirrijal/clinicmap/internal/adapters/valkey"
	"github.com/samirrijal/clinicmap/internal/core/domain"
	"github.com/samirrijal/clinicmap/internal/core/ports"
	"github.com/samirrijal/clinicmap/internal/core/usecases"
	"github.com/samirrijal/clinicmap/internal/pkg/config"
	"github.com/samirrijal/clinicmap/internal/pkg/logging"
)

const workers = 4

// Export is a clinic directory export: the private profiles to load.
type Export struct {
	Source   string                 `json:"source"`
	Profiles []domain.ClinicProfile `json:"profiles"`
}

type counts struct {
	stored    atomic.Int64
	published atomic.Int64
	failed    atomic.Int64
}

func main() {
	cfg, err := config.Load("clinicmap-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	exportPath := "clinics.json"
	if len(os.Args) > 1 {
		exportPath = os.Args[1]
	}
	export, err := readExport(exportPath)
	if err != nil {
		log.Fatalf("read export: %v", err)
	}
	slog.Info("clinic ingestor", "profiles", len(export.Profiles), "source", export.Source)

	db, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
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

	profiles := postgres.NewProfileRepo(db)
	syncSvc := usecases.NewDirectorySyncService(profiles, postgres.NewClinicRepo(db), publisher, cache)

	var n counts
	ingest(ctx, export.Profiles, func(ctx context.Context, p *domain.ClinicProfile) error {
		if err := profiles.UpsertProfile(ctx, p); err != nil {
			return fmt.Errorf("store profile: %w", err)
		}
		n.stored.Add(1)
		ok, err := syncSvc.Publish(ctx, p)
		if err != nil {
			return fmt.Errorf("publish: %w", err)
		}
		if ok {
			n.published.Add(1)
		}
		return nil
	}, &n)

	slog.Info("ingestion complete",
		"stored", n.stored.Load(),
		"published", n.published.Load(),
		"failed", n.failed.Load(),
	)
	if n.failed.Load() > 0 {
		os.Exit(1)
	}
}

func readExport(path string) (*Export, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var export Export
	if err := json.Unmarshal(data, &export); err != nil {
		// Plain array exports carry no envelope.
		var list []domain.ClinicProfile
		if err2 := json.Unmarshal(data, &list); err2 != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		export.Profiles = list
	}
	return &export, nil
}

// ingest runs fn over every profile with a fixed number of concurrent workers.
func ingest(ctx context.Context, profiles []domain.ClinicProfile, fn func(context.Context, *domain.ClinicProfile) error, n *counts) {
	jobs := make(chan *domain.ClinicProfile)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				if err := fn(ctx, p); err != nil {
					n.failed.Add(1)
					slog.Error("ingest clinic failed", "clinic_id", p.ClinicID, "error", err)
				}
			}
		}()
	}

	for i := range profiles {
		if profiles[i].ClinicID == "" {
			n.failed.Add(1)
			slog.Error("profile without clinic_id skipped", "index", i)
			continue
		}
		jobs <- &profiles[i]
	}
	close(jobs)
	wg.Wait()
}
