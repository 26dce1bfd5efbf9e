package app

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const (
	// MetricsSubsystem is a subsystem shared by all metrics exposed by this
	// package.
	MetricsSubsystem = "app"
)

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Reports accepted.
	ReportsSubmitted metrics.Counter
	// Corroborating reports found per submitted report.
	Corroborations metrics.Histogram
	// Adjudications committed, by resulting status.
	Adjudications metrics.Counter `metrics_labels:"status"`
	// Transactions rejected by DeliverTx, by response code.
	RejectedTxs metrics.Counter `metrics_labels:"code"`
	// Reports awaiting adjudication.
	PendingReports metrics.Gauge
	// Height of the last committed block.
	BlockHeight metrics.Gauge
}

// PrometheusMetrics returns Metrics build using Prometheus client library.
// Optionally, labels can be provided along with their values ("foo",
// "fooValue").
func PrometheusMetrics(namespace string, labelsAndValues ...string) *Metrics {
	labels := []string{}
	for i := 0; i < len(labelsAndValues); i += 2 {
		labels = append(labels, labelsAndValues[i])
	}
	return &Metrics{
		ReportsSubmitted: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "reports_submitted",
			Help:      "Number of reports accepted.",
		}, labels).With(labelsAndValues...),
		Corroborations: prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "corroborations",
			Help:      "Number of corroborating reports found for a submitted report.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		}, labels).With(labelsAndValues...),
		Adjudications: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "adjudications",
			Help:      "Number of reports adjudicated by an RSU.",
		}, append(labels, "status")).With(labelsAndValues...),
		RejectedTxs: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "rejected_txs",
			Help:      "Number of transactions that failed in DeliverTx.",
		}, append(labels, "code")).With(labelsAndValues...),
		PendingReports: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "pending_reports",
			Help:      "Number of reports awaiting adjudication.",
		}, labels).With(labelsAndValues...),
		BlockHeight: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "block_height",
			Help:      "Height of the last committed block.",
		}, labels).With(labelsAndValues...),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		ReportsSubmitted: discard.NewCounter(),
		Corroborations:   discard.NewHistogram(),
		Adjudications:    discard.NewCounter(),
		RejectedTxs:      discard.NewCounter(),
		PendingReports:   discard.NewGauge(),
		BlockHeight:      discard.NewGauge(),
	}
}
