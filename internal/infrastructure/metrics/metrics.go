package metrics

import (
	"time"

	"github.com/ArkLabsHQ/sentinel/internal/core/domain"
	"github.com/ArkLabsHQ/sentinel/internal/core/ports"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "sentinel"

var (
	rpcCallsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "rpc",
		Name:      "calls_total",
		Help:      "Ledger RPC attempts by method and outcome.",
	}, []string{"method", "outcome"})

	indexPassDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "indexer",
		Name:      "pass_duration_seconds",
		Help:      "Duration of capsule indexing passes.",
		Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
	}, []string{"partial"})

	indexedTransactionsGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "indexer",
		Name:      "transactions",
		Help:      "Transactions seen by the latest indexing pass.",
	}, []string{"kind"})

	crankRunsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "crank",
		Name:      "runs_total",
		Help:      "Crank passes by trigger and result.",
	}, []string{"trigger", "result"})

	crankRunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "crank",
		Name:      "run_duration_seconds",
		Help:      "Duration of crank passes.",
		Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
	})

	executionsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "crank",
		Name:      "executions_total",
		Help:      "Capsule execution attempts by outcome.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(
		rpcCallsCounter,
		indexPassDuration,
		indexedTransactionsGauge,
		crankRunsCounter,
		crankRunDuration,
		executionsCounter,
	)
}

// RecordRPC counts one ledger RPC attempt.
func RecordRPC(method, outcome string) {
	rpcCallsCounter.WithLabelValues(method, outcome).Inc()
}

type recorder struct{}

// NewRecorder returns the prometheus backed metrics sink of the application.
func NewRecorder() ports.Metrics {
	return recorder{}
}

func (recorder) ObserveIndexPass(stats domain.IndexStats, partial bool, took time.Duration) {
	label := "false"
	if partial {
		label = "true"
	}
	indexPassDuration.WithLabelValues(label).Observe(took.Seconds())
	indexedTransactionsGauge.WithLabelValues("scanned").Set(float64(stats.Transactions))
	indexedTransactionsGauge.WithLabelValues("fetch_failed").Set(float64(stats.FetchFailures))
	indexedTransactionsGauge.WithLabelValues("execute_attempt").Set(float64(stats.ExecuteAttempts))
}

func (recorder) ObserveCrankRun(
	trigger domain.CrankTrigger, result domain.CrankResult, took time.Duration,
) {
	label := "ok"
	if !result.OK() {
		label = "errors"
	}
	crankRunsCounter.WithLabelValues(string(trigger), label).Inc()
	crankRunDuration.Observe(took.Seconds())
}

func (recorder) ObserveExecution(outcome string) {
	executionsCounter.WithLabelValues(outcome).Inc()
}
