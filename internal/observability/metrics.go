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
	// Evaluation metrics
	OpportunitiesEvaluated prometheus.Counter
	WagersPlaced           prometheus.Counter
	Rejections             *prometheus.CounterVec
	EvaluationErrors       prometheus.Counter

	// Settlement metrics
	WagersSettled *prometheus.CounterVec
	ProfitLoss    prometheus.Counter
	StakeWagered  prometheus.Counter

	// Feed metrics
	QuotesReceived  prometheus.Counter
	QuotesMalformed prometheus.Counter

	// Bot metrics
	ActiveBots  prometheus.Gauge
	BotStatuses *prometheus.CounterVec

	// Backtest metrics
	BacktestRunsTotal *prometheus.CounterVec
	BacktestDuration  prometheus.Histogram

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "sportsbet_lab"
	}

	return &Metrics{
		OpportunitiesEvaluated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evaluation",
			Name:      "opportunities_total",
			Help:      "Total number of opportunities evaluated",
		}),
		WagersPlaced: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evaluation",
			Name:      "wagers_placed_total",
			Help:      "Total number of wagers placed",
		}),
		Rejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evaluation",
			Name:      "rejections_total",
			Help:      "Total number of rejected opportunities by reason",
		}, []string{"reason"}),
		EvaluationErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evaluation",
			Name:      "errors_total",
			Help:      "Total number of evaluation failures",
		}),

		WagersSettled: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settlement",
			Name:      "wagers_total",
			Help:      "Total number of settled wagers by outcome",
		}, []string{"outcome"}),
		ProfitLoss: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settlement",
			Name:      "profit_loss_total",
			Help:      "Cumulative realized profit and loss",
		}),
		StakeWagered: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settlement",
			Name:      "stake_wagered_total",
			Help:      "Cumulative stake across all placed wagers",
		}),

		QuotesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "quotes_received_total",
			Help:      "Total number of odds quotes received from the feed",
		}),
		QuotesMalformed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "quotes_malformed_total",
			Help:      "Total number of quotes dropped as malformed",
		}),

		ActiveBots: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "bots",
			Name:      "active",
			Help:      "Number of bots currently in ACTIVE status",
		}),
		BotStatuses: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bots",
			Name:      "transitions_total",
			Help:      "Total number of bot status transitions by target status",
		}, []string{"status"}),

		BacktestRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "runs_total",
			Help:      "Total number of backtest runs by status",
		}, []string{"status"}),
		BacktestDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "duration_seconds",
			Help:      "Backtest run duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordEvaluation records one evaluated opportunity and its decision.
func RecordEvaluation(approved bool, reason string, stake float64) {
	DefaultMetrics.OpportunitiesEvaluated.Inc()
	if approved {
		DefaultMetrics.WagersPlaced.Inc()
		DefaultMetrics.StakeWagered.Add(stake)
	} else {
		DefaultMetrics.Rejections.WithLabelValues(reason).Inc()
	}
}

// RecordEvaluationError increments the evaluation failure counter.
func RecordEvaluationError() {
	DefaultMetrics.EvaluationErrors.Inc()
}

// RecordSettlement records one settled wager.
func RecordSettlement(outcome string, profitLoss float64) {
	DefaultMetrics.WagersSettled.WithLabelValues(outcome).Inc()
	DefaultMetrics.ProfitLoss.Add(profitLoss)
}

// RecordQuote increments the received quotes counter.
func RecordQuote() {
	DefaultMetrics.QuotesReceived.Inc()
}

// RecordMalformedQuote increments the malformed quotes counter.
func RecordMalformedQuote() {
	DefaultMetrics.QuotesMalformed.Inc()
}

// RecordBotTransition records a bot status change.
func RecordBotTransition(status string) {
	DefaultMetrics.BotStatuses.WithLabelValues(status).Inc()
}

// UpdateActiveBots updates the active bot gauge.
func UpdateActiveBots(n int) {
	DefaultMetrics.ActiveBots.Set(float64(n))
}

// RecordBacktestRun records a backtest run.
func RecordBacktestRun(status string, durationSeconds float64) {
	DefaultMetrics.BacktestRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.BacktestDuration.Observe(durationSeconds)
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
