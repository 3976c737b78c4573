// Package metrics holds the prometheus counters for container persistence
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	savesTotal        prometheus.Counter
	savesSkippedTotal prometheus.Counter
	loadsTotal        prometheus.Counter
	bytesWrittenTotal prometheus.Counter
}

// New creates the counters and registers them with reg. A nil reg leaves
// them unregistered, which is what most tests want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		savesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vfs_container_saves_total",
			Help: "Total number of container writes.",
		}),
		savesSkippedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vfs_container_saves_skipped_total",
			Help: "Total number of saves skipped because the container was unchanged.",
		}),
		loadsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vfs_container_loads_total",
			Help: "Total number of containers loaded.",
		}),
		bytesWrittenTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vfs_container_bytes_written_total",
			Help: "Total number of container bytes written.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.savesTotal, m.savesSkippedTotal, m.loadsTotal, m.bytesWrittenTotal)
	}
	return m
}

func (m *Metrics) IncSaves(bytes int) {
	m.savesTotal.Inc()
	m.bytesWrittenTotal.Add(float64(bytes))
}

func (m *Metrics) IncSavesSkipped() {
	m.savesSkippedTotal.Inc()
}

func (m *Metrics) IncLoads() {
	m.loadsTotal.Inc()
}

// Handler serves the metrics gathered by g in the text exposition format
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
