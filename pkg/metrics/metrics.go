// Package metrics defines the Prometheus metric families the daemon's core
// components emit: per-table lock contention (the store is the single
// highest-contention component per SPEC_FULL.md §4.1), per-operation
// engine transaction outcomes, and live handle counts from the broker.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Label constants shared across metric families.
const (
	LabelTable     = "table"
	LabelOperation = "operation"
	LabelOutcome   = "outcome"
	LabelKind      = "kind" // "user" or "group"
)

// Outcome constants for engine transaction counters.
const (
	OutcomeOK         = "ok"
	OutcomeRolledBack = "rolled_back"
)

// StoreMetrics instruments the file store: lock wait time, lock
// contention, and rewrite counts, labelled per table.
type StoreMetrics struct {
	lockWait     *prometheus.HistogramVec
	lockBusy     *prometheus.CounterVec
	rewriteTotal *prometheus.CounterVec
}

// NewStoreMetrics creates and, if registry is non-nil, registers store
// metrics. A nil registry is useful for unit tests that don't want global
// registry pollution.
func NewStoreMetrics(registry prometheus.Registerer) *StoreMetrics {
	m := &StoreMetrics{
		lockWait: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "gumd",
				Subsystem: "store",
				Name:      "lock_wait_seconds",
				Help:      "Time spent acquiring a table lock.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{LabelTable},
		),
		lockBusy: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gumd",
				Subsystem: "store",
				Name:      "lock_busy_total",
				Help:      "Number of lock acquisitions that failed with FileLockBusy.",
			},
			[]string{LabelTable},
		),
		rewriteTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gumd",
				Subsystem: "store",
				Name:      "rewrite_total",
				Help:      "Number of atomic table rewrites performed.",
			},
			[]string{LabelTable},
		),
	}
	if registry != nil {
		registry.MustRegister(m.lockWait, m.lockBusy, m.rewriteTotal)
	}
	return m
}

func (m *StoreMetrics) ObserveLockWait(table string, d time.Duration) {
	if m == nil {
		return
	}
	m.lockWait.WithLabelValues(table).Observe(d.Seconds())
}

func (m *StoreMetrics) IncLockBusy(table string) {
	if m == nil {
		return
	}
	m.lockBusy.WithLabelValues(table).Inc()
}

func (m *StoreMetrics) IncRewrite(table string) {
	if m == nil {
		return
	}
	m.rewriteTotal.WithLabelValues(table).Inc()
}

// EngineMetrics instruments the account engine: one counter per
// (operation, outcome) pair.
type EngineMetrics struct {
	transactions *prometheus.CounterVec
	duration     *prometheus.HistogramVec
}

func NewEngineMetrics(registry prometheus.Registerer) *EngineMetrics {
	m := &EngineMetrics{
		transactions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gumd",
				Subsystem: "engine",
				Name:      "transactions_total",
				Help:      "Account engine transactions by operation and outcome.",
			},
			[]string{LabelOperation, LabelOutcome},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "gumd",
				Subsystem: "engine",
				Name:      "transaction_duration_seconds",
				Help:      "Account engine transaction duration.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{LabelOperation},
		),
	}
	if registry != nil {
		registry.MustRegister(m.transactions, m.duration)
	}
	return m
}

func (m *EngineMetrics) Observe(operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.transactions.WithLabelValues(operation, outcome).Inc()
	m.duration.WithLabelValues(operation).Observe(d.Seconds())
}

// BrokerMetrics instruments the handle broker: live handle count by kind.
type BrokerMetrics struct {
	liveHandles *prometheus.GaugeVec
	minted      *prometheus.CounterVec
	disposed    *prometheus.CounterVec
}

func NewBrokerMetrics(registry prometheus.Registerer) *BrokerMetrics {
	m := &BrokerMetrics{
		liveHandles: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "gumd",
				Subsystem: "broker",
				Name:      "live_handles",
				Help:      "Number of currently live handles.",
			},
			[]string{LabelKind},
		),
		minted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gumd",
				Subsystem: "broker",
				Name:      "handles_minted_total",
				Help:      "Total number of handles minted.",
			},
			[]string{LabelKind},
		),
		disposed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gumd",
				Subsystem: "broker",
				Name:      "handles_disposed_total",
				Help:      "Total number of handles disposed, by reason.",
			},
			[]string{LabelKind, "reason"},
		),
	}
	if registry != nil {
		registry.MustRegister(m.liveHandles, m.minted, m.disposed)
	}
	return m
}

func (m *BrokerMetrics) IncMinted(kind string) {
	if m == nil {
		return
	}
	m.minted.WithLabelValues(kind).Inc()
	m.liveHandles.WithLabelValues(kind).Inc()
}

func (m *BrokerMetrics) IncDisposed(kind, reason string) {
	if m == nil {
		return
	}
	m.disposed.WithLabelValues(kind, reason).Inc()
	m.liveHandles.WithLabelValues(kind).Dec()
}
