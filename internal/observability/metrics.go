package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL run.
type Metrics struct {
	YearsLoaded          prometheus.Counter
	YearsSkipped         prometheus.Counter
	ExtractsWritten      prometheus.Counter
	PartitionsSkipped    prometheus.Counter
	ContributionWarnings prometheus.Counter
	PublishErrors        prometheus.Counter
	SourceErrors         *prometheus.CounterVec // labels: kind={not_found,mismatch,schema,other}
	PipelineRunning      prometheus.Gauge

	YearLoadDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.YearsLoaded,
		m.YearsSkipped,
		m.ExtractsWritten,
		m.PartitionsSkipped,
		m.ContributionWarnings,
		m.PublishErrors,
		m.SourceErrors,
		m.PipelineRunning,
		m.YearLoadDuration,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		YearsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mpi_etl",
			Name:      "years_loaded_total",
			Help:      "Vintage years loaded, reconciled and standardized.",
		}),
		YearsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mpi_etl",
			Name:      "years_skipped_total",
			Help:      "Vintage years skipped under the skip policy.",
		}),
		ExtractsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mpi_etl",
			Name:      "extracts_written_total",
			Help:      "Regional extracts persisted.",
		}),
		PartitionsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mpi_etl",
			Name:      "partitions_skipped_total",
			Help:      "Partitions skipped because their total population was not positive.",
		}),
		ContributionWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mpi_etl",
			Name:      "contribution_warnings_total",
			Help:      "Rows whose raw contribution percentages stray from 100.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mpi_etl",
			Name:      "publish_errors_total",
			Help:      "Extract notifications that failed to publish.",
		}),
		SourceErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mpi_etl",
			Name:      "source_errors_total",
			Help:      "Year load failures by kind.",
		}, []string{"kind"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mpi_etl",
			Name:      "pipeline_running",
			Help:      "1 while a run is in progress, 0 otherwise.",
		}),
		YearLoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mpi_etl",
			Name:      "year_load_duration_seconds",
			Help:      "Duration of loading, reconciling and standardizing one year.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}
