// Package observability provides logging and run metrics for the segmentation batch job.
package observability

import (
	"strconv"
	"time"

	"customer-segmentation/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics of one segmentation run.
// A batch job has no scrape endpoint, so the registry is written to a
// node-exporter textfile at the end of the run.
type Metrics struct {
	Registry *prometheus.Registry

	stageDuration  *prometheus.HistogramVec
	records        *prometheus.CounterVec
	segmentSize    *prometheus.GaugeVec
	clusterSize    *prometheus.GaugeVec
	silhouette     *prometheus.GaugeVec
	inertia        *prometheus.GaugeVec
	warnings       prometheus.Counter
	lastSuccessful prometheus.Gauge
}

// NewMetrics creates a dedicated registry so repeated construction (tests) never
// hits duplicate collector registration.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "segmenter_stage_duration_seconds",
				Help:    "Duration of pipeline stages.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		records: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "segmenter_records_total",
				Help: "Records handled per kind (transactions loaded, dropped, clipped, customers scored).",
			},
			[]string{"kind"},
		),
		segmentSize: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "segmenter_segment_customers",
				Help: "Customers per RFM segment.",
			},
			[]string{"segment"},
		),
		clusterSize: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "segmenter_cluster_customers",
				Help: "Customers per cluster.",
			},
			[]string{"cluster"},
		),
		silhouette: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "segmenter_silhouette_score",
				Help: "Mean silhouette score per candidate cluster count.",
			},
			[]string{"k"},
		),
		inertia: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "segmenter_inertia",
				Help: "Within-cluster sum of squares per candidate cluster count.",
			},
			[]string{"k"},
		),
		warnings: factory.NewCounter(prometheus.CounterOpts{
			Name: "segmenter_warnings_total",
			Help: "Degraded-mode warnings raised during the run.",
		}),
		lastSuccessful: factory.NewGauge(prometheus.GaugeOpts{
			Name: "segmenter_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run.",
		}),
	}
}

// RecordStage records how long a pipeline stage took.
func (m *Metrics) RecordStage(stage string, d time.Duration) {
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// AddRecords adds n to the counter for kind.
func (m *Metrics) AddRecords(kind string, n int) {
	m.records.WithLabelValues(kind).Add(float64(n))
}

// IncrWarning counts a degraded-mode warning.
func (m *Metrics) IncrWarning() {
	m.warnings.Inc()
}

// ObserveReport publishes the sizes and diagnostics of a finished run.
func (m *Metrics) ObserveReport(r *domain.SegmentationReport) {
	for seg, n := range r.SegmentCounts {
		m.segmentSize.WithLabelValues(string(seg)).Set(float64(n))
	}
	for _, p := range r.Clustering.Profiles {
		m.clusterSize.WithLabelValues(strconv.Itoa(p.Cluster)).Set(float64(p.Count))
	}
	if r.Selection != nil {
		for _, p := range r.Selection.Inertia {
			m.inertia.WithLabelValues(strconv.Itoa(p.K)).Set(p.Inertia)
		}
		for _, p := range r.Selection.Silhouette {
			m.silhouette.WithLabelValues(strconv.Itoa(p.K)).Set(p.Score)
		}
	}
	m.lastSuccessful.Set(float64(r.GeneratedAt.Unix()))
}

// WriteTextfile dumps the registry in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
