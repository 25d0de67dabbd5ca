// Package metrics holds the Prometheus collectors of the map service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "clinicmap"

// Label plan outcomes.
const (
	PlanNoRegion  = "no_region"
	PlanZoomedOut = "zoomed_out"
	PlanZoomedIn  = "zoomed_in"
)

// Directory sync results.
const (
	SyncPublished = "published"
	SyncSkipped   = "skipped"
	SyncError     = "error"
)

var (
	labelPlans = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "map",
		Name:      "label_plans_total",
		Help:      "Label plans computed, by zoom outcome.",
	}, []string{"outcome"})

	labelCandidates = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "map",
		Name:      "label_candidates",
		Help:      "Visible clinics considered per zoomed-in plan.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})

	labelsPlaced = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "map",
		Name:      "labels_placed",
		Help:      "Labels accepted per zoomed-in plan.",
		Buckets:   []float64{0, 1, 2, 4, 6, 8, 10, 12},
	})

	directorySyncs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "directory",
		Name:      "syncs_total",
		Help:      "Directory sync attempts, by result.",
	}, []string{"result"})

	// DirectoryEvents counts clinic-published events handled by this instance.
	DirectoryEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "directory",
		Name:      "events_received_total",
		Help:      "Clinic-published events received from the broker, by result.",
	}, []string{"result"})

	// ActiveWebSockets is the number of open /ws/map connections.
	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Open map WebSocket connections.",
	})

	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Directory cache lookups, by operation and result.",
	}, []string{"operation", "result"})

	dbPoolConns = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "db",
		Name:      "pool_conns",
		Help:      "Database pool connections, by state.",
	}, []string{"state"})
)

// RecordLabelPlan counts a plan. Candidate and placement sizes are only
// observed for zoomed-in plans.
func RecordLabelPlan(outcome string, visible, placed int) {
	labelPlans.WithLabelValues(outcome).Inc()
	if outcome != PlanZoomedIn {
		return
	}
	labelCandidates.Observe(float64(visible))
	labelsPlaced.Observe(float64(placed))
}

// RecordSync counts one directory sync result.
func RecordSync(result string) {
	directorySyncs.WithLabelValues(result).Inc()
}

// RecordCacheLookup counts a cache hit or miss for op.
func RecordCacheLookup(op string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(op, result).Inc()
}

// PoolStat is the subset of pgxpool.Stat reported as metrics.
type PoolStat interface {
	AcquiredConns() int32
	IdleConns() int32
	TotalConns() int32
}

// UpdateDBPoolMetrics copies the pool counters into gauges.
func UpdateDBPoolMetrics(s PoolStat) {
	dbPoolConns.WithLabelValues("acquired").Set(float64(s.AcquiredConns()))
	dbPoolConns.WithLabelValues("idle").Set(float64(s.IdleConns()))
	dbPoolConns.WithLabelValues("total").Set(float64(s.TotalConns()))
}
