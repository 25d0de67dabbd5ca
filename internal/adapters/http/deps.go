package http

import (
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/clinicmap/internal/adapters/postgres"
	"github.com/samirrijal/clinicmap/internal/adapters/valkey"
	"github.com/samirrijal/clinicmap/internal/core/ports"
	"github.com/samirrijal/clinicmap/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Clinics *usecases.ClinicService
	Map     *usecases.MapService
	// Sync starts directory sync runs; nil disables the sync endpoint.
	Sync  ports.SyncScheduler
	NATS  *nats.Conn
	DB    *postgres.DB
	Cache *valkey.Cache
	// LabelsSunset is when the legacy /v1/labels alias goes away.
	LabelsSunset time.Time
}
