// Package observability wires the Prometheus/OTel ambient stack the Turn
// Orchestrator instruments itself with, grounded on the singleton
// registry/Collector shape of
// 2lar-b2/backend/internal/infrastructure/observability/metrics.go, with
// the metric set itself replaced: turn/stage latency, conflict counts,
// and resolution-method counts in place of Brain2's graph node/edge
// counters.
package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	globalCollector *Collector
	collectorMutex  sync.Mutex
)

// Collector holds every metric the core emits.
type Collector struct {
	registry *prometheus.Registry

	TurnsTotal       *prometheus.CounterVec
	TurnDuration     *prometheus.HistogramVec
	StageDuration    *prometheus.HistogramVec
	ConflictsTotal   *prometheus.CounterVec
	ResolutionsTotal *prometheus.CounterVec
}

// NewCollector returns the process-wide Collector, creating it on first
// call. Subsequent calls with a different namespace are ignored (mirrors
// the teacher's singleton, which exists so tests and the real server don't
// double-register the same metric names against the default registry).
func NewCollector(namespace string) *Collector {
	collectorMutex.Lock()
	defer collectorMutex.Unlock()
	if globalCollector != nil {
		return globalCollector
	}

	registry := prometheus.NewRegistry()

	turnsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "turns_total", Help: "Total number of processed turns by outcome.",
	}, []string{"outcome"})

	turnDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Name: "turn_duration_seconds", Help: "End-to-end turn latency.", Buckets: prometheus.DefBuckets,
	}, []string{"strategy"})

	stageDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Name: "turn_stage_duration_seconds", Help: "Per-stage latency within a turn.", Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	conflictsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "conflicts_total", Help: "Total number of detected memory conflicts.",
	}, []string{"type", "strategy"})

	resolutionsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "resolutions_total", Help: "Total number of entity resolutions by method.",
	}, []string{"method"})

	registry.MustRegister(turnsTotal, turnDuration, stageDuration, conflictsTotal, resolutionsTotal)

	globalCollector = &Collector{
		registry:         registry,
		TurnsTotal:       turnsTotal,
		TurnDuration:     turnDuration,
		StageDuration:    stageDuration,
		ConflictsTotal:   conflictsTotal,
		ResolutionsTotal: resolutionsTotal,
	}
	return globalCollector
}

// ResetForTesting drops the singleton so tests can build a fresh Collector
// against its own registry.
func ResetForTesting() {
	collectorMutex.Lock()
	defer collectorMutex.Unlock()
	globalCollector = nil
}

// GetRegistry returns the registry backing this Collector, for wiring an
// HTTP /metrics handler.
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}

// RecordTurn observes one completed turn's latency and outcome.
func (c *Collector) RecordTurn(strategy, outcome string, seconds float64) {
	c.TurnDuration.WithLabelValues(strategy).Observe(seconds)
	c.TurnsTotal.WithLabelValues(outcome).Inc()
}

// RecordStage observes one pipeline stage's latency within a turn.
func (c *Collector) RecordStage(stage string, seconds float64) {
	c.StageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordConflict counts one detected conflict by type and chosen strategy.
func (c *Collector) RecordConflict(conflictType, strategy string) {
	c.ConflictsTotal.WithLabelValues(conflictType, strategy).Inc()
}

// RecordResolution counts one entity resolution by the stage that produced
// it (exact/alias/fuzzy/coreference/domain_db/none).
func (c *Collector) RecordResolution(method string) {
	c.ResolutionsTotal.WithLabelValues(method).Inc()
}
