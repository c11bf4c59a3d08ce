package randsample

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts one run. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Probes         prometheus.Counter
	CoverageMisses prometheus.Counter
	ProbeFailures  prometheus.Counter
	Records        prometheus.Counter
	ExportDuration prometheus.Histogram
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		Probes: f.NewCounter(prometheus.CounterOpts{
			Namespace: "randsample",
			Subsystem: "probe",
			Name:      "points_total",
			Help:      "Points looked up on the raster",
		}),
		CoverageMisses: f.NewCounter(prometheus.CounterOpts{
			Namespace: "randsample",
			Subsystem: "probe",
			Name:      "off_raster_total",
			Help:      "Points that fell off the raster or on no-data",
		}),
		ProbeFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: "randsample",
			Subsystem: "probe",
			Name:      "failures_total",
			Help:      "Raster lookups that failed",
		}),
		Records: f.NewCounter(prometheus.CounterOpts{
			Namespace: "randsample",
			Subsystem: "export",
			Name:      "records_total",
			Help:      "Point records written",
		}),
		ExportDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "randsample",
			Subsystem: "export",
			Name:      "duration_seconds",
			Help:      "Duration of an export",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 30, 120, 600},
		}),
	}
}

func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile writes the metrics in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *Metrics) probe() {
	if m != nil {
		m.Probes.Inc()
	}
}

func (m *Metrics) miss() {
	if m != nil {
		m.CoverageMisses.Inc()
	}
}

func (m *Metrics) fail() {
	if m != nil {
		m.ProbeFailures.Inc()
	}
}

func (m *Metrics) record() {
	if m != nil {
		m.Records.Inc()
	}
}

func (m *Metrics) observeExport(seconds float64) {
	if m != nil {
		m.ExportDuration.Observe(seconds)
	}
}
