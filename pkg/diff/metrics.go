package diff

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"

	gdmetrics "github.com/fluxcd/graphdiff/pkg/metrics"
)

// Metrics are observed by InstrumentingMiddleware.
type Metrics struct {
	// Duration of calls, by method and success.
	Duration metrics.Histogram
	// Results, by method and status.
	Results metrics.Counter
}

// NewMetrics creates the engine collectors and registers them with
// reg.
func NewMetrics(reg stdprometheus.Registerer) Metrics {
	duration := stdprometheus.NewHistogramVec(stdprometheus.HistogramOpts{
		Namespace: "graphdiff",
		Subsystem: "engine",
		Name:      "duration_seconds",
		Help:      "Duration of diffs and comparisons, in seconds.",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{gdmetrics.LabelMethod, gdmetrics.LabelSuccess})
	results := stdprometheus.NewCounterVec(stdprometheus.CounterOpts{
		Namespace: "graphdiff",
		Subsystem: "engine",
		Name:      "results_total",
		Help:      "Count of diffs and comparisons, by whether the values were found equal.",
	}, []string{gdmetrics.LabelMethod, gdmetrics.LabelStatus})
	reg.MustRegister(duration, results)

	return Metrics{
		Duration: prometheus.NewHistogram(duration),
		Results:  prometheus.NewCounter(results),
	}
}
