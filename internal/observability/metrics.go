// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	MentionsIngested  *prometheus.CounterVec
	MentionsArchived  prometheus.Counter
	LaunchesDetected  *prometheus.CounterVec
	LaunchesDuplicate prometheus.Counter
	LaunchesDropped   prometheus.Counter

	// Scoring metrics
	StrongTrendSignals prometheus.Counter
	SafetyChecks       *prometheus.CounterVec
	SafetyCacheHits    prometheus.Counter
	SafetySkips        prometheus.Counter

	// Trading metrics
	OrdersPlaced   *prometheus.CounterVec
	OrdersFilled   *prometheus.CounterVec
	PositionExits  *prometheus.CounterVec
	OpenPositions  prometheus.Gauge
	PendingOrders  prometheus.Gauge
	PriorityFeeLam prometheus.Gauge

	// Alerting metrics
	NotificationsSent   prometheus.Counter
	NotificationsFailed prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastMentionIngested prometheus.Gauge
	LastLaunchDetected  prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "memecoin_sniper"
	}

	return &Metrics{
		MentionsIngested: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "mentions_ingested_total",
			Help:      "Total number of mention events ingested by source",
		}, []string{"source"}),
		MentionsArchived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "mentions_archived_total",
			Help:      "Total number of mention events written to the archive",
		}),
		LaunchesDetected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "launches_detected_total",
			Help:      "Total number of new launches detected by source",
		}, []string{"source"}),
		LaunchesDuplicate: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "launches_duplicate_total",
			Help:      "Total number of duplicate launch payloads ignored",
		}),
		LaunchesDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "launches_dropped_total",
			Help:      "Total number of malformed launch payloads dropped",
		}),

		StrongTrendSignals: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "strong_trend_signals_total",
			Help:      "Total number of strong trend signals emitted",
		}),
		SafetyChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "safety_checks_total",
			Help:      "Total number of safety checks by resulting status",
		}, []string{"status"}),
		SafetyCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "safety_cache_hits_total",
			Help:      "Total number of safety checks served from cache",
		}),
		SafetySkips: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "safety_skips_total",
			Help:      "Total number of candidates skipped as high risk",
		}),

		OrdersPlaced: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "orders_placed_total",
			Help:      "Total number of orders placed by action",
		}, []string{"action"}),
		OrdersFilled: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "orders_filled_total",
			Help:      "Total number of orders filled by action",
		}, []string{"action"}),
		PositionExits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "position_exits_total",
			Help:      "Total number of automatic position exits by reason",
		}, []string{"reason"}),
		OpenPositions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "open_positions",
			Help:      "Current number of open positions",
		}),
		PendingOrders: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "pending_orders",
			Help:      "Current number of pending orders",
		}),
		PriorityFeeLam: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "trading",
			Name:      "priority_fee_lamports",
			Help:      "Priority fee used by the most recent order",
		}),

		NotificationsSent: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerting",
			Name:      "notifications_sent_total",
			Help:      "Total number of notifications delivered",
		}),
		NotificationsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerting",
			Name:      "notifications_failed_total",
			Help:      "Total number of notification delivery failures",
		}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		LastMentionIngested: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_mention_ingested_timestamp",
			Help:      "Unix timestamp of the last ingested mention",
		}),
		LastLaunchDetected: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_launch_detected_timestamp",
			Help:      "Unix timestamp of the last detected launch",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordMentionIngested increments the mention counter for a source.
func RecordMentionIngested(source string) {
	DefaultMetrics.MentionsIngested.WithLabelValues(source).Inc()
}

// RecordLaunchDetected increments the launch counter for a source.
func RecordLaunchDetected(source string) {
	DefaultMetrics.LaunchesDetected.WithLabelValues(source).Inc()
}

// RecordSafetyCheck records a completed safety check.
func RecordSafetyCheck(status string) {
	DefaultMetrics.SafetyChecks.WithLabelValues(status).Inc()
}

// RecordOrderPlaced records a placed order and its priority fee.
func RecordOrderPlaced(action string, priorityFee uint64) {
	DefaultMetrics.OrdersPlaced.WithLabelValues(action).Inc()
	DefaultMetrics.PriorityFeeLam.Set(float64(priorityFee))
}

// RecordOrderFilled records a filled order.
func RecordOrderFilled(action string) {
	DefaultMetrics.OrdersFilled.WithLabelValues(action).Inc()
}

// RecordPositionExit records an automatic exit.
func RecordPositionExit(reason string) {
	DefaultMetrics.PositionExits.WithLabelValues(reason).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
