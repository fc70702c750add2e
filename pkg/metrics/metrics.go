// Package metrics exports the latest status report as Prometheus gauges.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/modoterra/igractl/pkg/monitor"
)

// Metrics holds the gauges updated from each report.
type Metrics struct {
	BlockHeight     prometheus.Gauge
	SyncPercent     prometheus.Gauge
	SyncKnown       prometheus.Gauge
	BlocksPerMinute prometheus.Gauge
	ServiceUp       *prometheus.GaugeVec
	ProbeFailures   *prometheus.CounterVec
	Checks          prometheus.Counter
}

// New registers the gauges on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		BlockHeight: f.NewGauge(prometheus.GaugeOpts{
			Name: "igra_block_height",
			Help: "Latest block built by block-builder",
		}),
		SyncPercent: f.NewGauge(prometheus.GaugeOpts{
			Name: "igra_sync_percent",
			Help: "Sync percentage reported by the sync source",
		}),
		SyncKnown: f.NewGauge(prometheus.GaugeOpts{
			Name: "igra_sync_known",
			Help: "1 if the sync percentage was read from logs, 0 if substituted",
		}),
		BlocksPerMinute: f.NewGauge(prometheus.GaugeOpts{
			Name: "igra_blocks_per_minute",
			Help: "Blocks built per minute over the rate window",
		}),
		ServiceUp: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "igra_service_up",
			Help: "1 if the service is running",
		}, []string{"service"}),
		ProbeFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "igra_probe_failures_total",
			Help: "Service probes that returned an error",
		}, []string{"service"}),
		Checks: f.NewCounter(prometheus.CounterOpts{
			Name: "igra_checks_total",
			Help: "Status checks performed",
		}),
	}
}

// Observe records a report. Block height keeps its previous value when the
// report has none.
func (m *Metrics) Observe(r monitor.Report) {
	m.Checks.Inc()
	if r.BlockHeightKnown {
		m.BlockHeight.Set(float64(r.BlockHeight))
	}
	m.SyncPercent.Set(r.Sync.Percent)
	if r.Sync.Known {
		m.SyncKnown.Set(1)
	} else {
		m.SyncKnown.Set(0)
	}
	m.BlocksPerMinute.Set(r.BlocksPerMinute)

	for _, h := range r.Health {
		up := 0.0
		if h.Running {
			up = 1
		}
		m.ServiceUp.WithLabelValues(h.Name).Set(up)
	}
	for _, name := range r.Unreachable {
		m.ServiceUp.DeleteLabelValues(name)
		m.ProbeFailures.WithLabelValues(name).Inc()
	}
}
