package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "tradeledger_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	issueTotal   *prometheus.CounterVec
	issueLatency *prometheus.HistogramVec

	lockConflicts prometheus.Counter

	cashAdjustTotal *prometheus.CounterVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec

	publishTotal *prometheus.CounterVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		issueTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "document_issue_total",
				Help: "Total document issuances by kind and result",
			},
			[]string{"kind", "result"},
		)
		issueLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "document_issue_latency_seconds",
				Help:    "Document issuance latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind", "result"},
		)

		lockConflicts = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "cage_lock_conflicts_total",
				Help: "Total sale attempts that lost a cage lock race",
			},
		)

		cashAdjustTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "cash_adjust_total",
				Help: "Total manual cash adjustments by direction",
			},
			[]string{"direction"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total exports by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		publishTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "event_publish_total",
				Help: "Total document issued event publishes by result",
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			issueTotal,
			issueLatency,
			lockConflicts,
			cashAdjustTotal,
			exportTotal,
			exportLatency,
			publishTotal,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveIssue records issuance latency and result for a document kind.
func ObserveIssue(kind, result string, duration time.Duration) {
	if kind == "" {
		kind = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if issueTotal != nil {
		issueTotal.WithLabelValues(kind, result).Inc()
	}
	if issueLatency != nil {
		issueLatency.WithLabelValues(kind, result).Observe(duration.Seconds())
	}
}

// IncLockConflict increments the lost lock race counter.
func IncLockConflict() {
	if lockConflicts != nil {
		lockConflicts.Inc()
	}
}

// IncCashAdjust increments the manual adjustment counter.
func IncCashAdjust(direction string) {
	if direction == "" {
		direction = "unknown"
	}
	if cashAdjustTotal != nil {
		cashAdjustTotal.WithLabelValues(direction).Inc()
	}
}

// ObserveExport records export latency and result.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// IncPublish increments the event publish counter.
func IncPublish(result string) {
	if result == "" {
		result = resultSuccess
	}
	if publishTotal != nil {
		publishTotal.WithLabelValues(result).Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
