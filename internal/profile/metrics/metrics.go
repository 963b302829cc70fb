package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the profile module. All methods are
// safe on a nil receiver so components can run without metrics.
type Metrics struct {
	CacheHits            *prometheus.CounterVec
	CacheMisses          *prometheus.CounterVec
	CacheInvalidations   *prometheus.CounterVec
	CacheStaleFills      prometheus.Counter
	Migrations           *prometheus.CounterVec
	ConflictsDetected    *prometheus.CounterVec
	BatchWrites          *prometheus.CounterVec
	AuditWriteFailures   *prometheus.CounterVec
	ResubmissionWarnings prometheus.Counter
	OperationDuration    *prometheus.HistogramVec
}

// New registers the profile metrics with reg. Pass a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CacheHits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "travelkeep_cache_hits_total",
			Help: "Cache lookups served from memory",
		}, []string{"entity_type"}),
		CacheMisses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "travelkeep_cache_misses_total",
			Help: "Cache lookups that fell through to the storage adapter",
		}, []string{"entity_type"}),
		CacheInvalidations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "travelkeep_cache_invalidations_total",
			Help: "Cache entries invalidated by writes",
		}, []string{"entity_type"}),
		CacheStaleFills: f.NewCounter(prometheus.CounterOpts{
			Name: "travelkeep_cache_stale_fills_total",
			Help: "Cache fills discarded because the key was invalidated after the miss",
		}),
		Migrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "travelkeep_legacy_migrations_total",
			Help: "Legacy migration runs by outcome",
		}, []string{"outcome"}),
		ConflictsDetected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "travelkeep_conflicts_detected_total",
			Help: "Adapter/legacy divergences detected",
		}, []string{"entity_type"}),
		BatchWrites: f.NewCounterVec(prometheus.CounterOpts{
			Name: "travelkeep_batch_writes_total",
			Help: "Batch saves by outcome",
		}, []string{"outcome"}),
		AuditWriteFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "travelkeep_audit_write_failures_total",
			Help: "Audit event writes that failed, by target",
		}, []string{"target"}),
		ResubmissionWarnings: f.NewCounter(prometheus.CounterOpts{
			Name: "travelkeep_resubmission_warnings_total",
			Help: "Resubmission warnings raised",
		}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "travelkeep_operation_duration_seconds",
			Help:    "Duration of data service operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncCacheHit(entityType string) {
	if m != nil {
		m.CacheHits.WithLabelValues(entityType).Inc()
	}
}

func (m *Metrics) IncCacheMiss(entityType string) {
	if m != nil {
		m.CacheMisses.WithLabelValues(entityType).Inc()
	}
}

func (m *Metrics) IncCacheInvalidation(entityType string) {
	if m != nil {
		m.CacheInvalidations.WithLabelValues(entityType).Inc()
	}
}

func (m *Metrics) IncCacheStaleFill() {
	if m != nil {
		m.CacheStaleFills.Inc()
	}
}

// IncMigration records a migration outcome: migrated, skipped or failed.
func (m *Metrics) IncMigration(outcome string) {
	if m != nil {
		m.Migrations.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncConflict(entityType string) {
	if m != nil {
		m.ConflictsDetected.WithLabelValues(entityType).Inc()
	}
}

// IncBatchWrite records a batch outcome: committed, empty or failed.
func (m *Metrics) IncBatchWrite(outcome string) {
	if m != nil {
		m.BatchWrites.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncAuditWriteFailure(target string) {
	if m != nil {
		m.AuditWriteFailures.WithLabelValues(target).Inc()
	}
}

func (m *Metrics) IncResubmissionWarning() {
	if m != nil {
		m.ResubmissionWarnings.Inc()
	}
}

// ObserveOperation records the duration since start.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	if m != nil {
		m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}
