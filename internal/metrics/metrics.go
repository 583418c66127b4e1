// Package metrics instruments batch runs with Prometheus collectors.
// Each Recorder owns its registry, so one process run exports one run.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "harvest"

// Recorder implements secondary.RunMetrics.
type Recorder struct {
	registry    *prometheus.Registry
	accounts    *prometheus.CounterVec
	items       *prometheus.CounterVec
	duration    *prometheus.GaugeVec
	interrupted *prometheus.GaugeVec
	lastRun     *prometheus.GaugeVec
	now         func() time.Time
}

// NewRecorder creates a Recorder with a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		accounts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accounts_total",
			Help:      "Accounts finished by family and outcome.",
		}, []string{"family", "outcome"}),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_total",
			Help:      "Item operations finished by family and result.",
		}, []string{"family", "result"}),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}, []string{"family"}),
		interrupted: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_interrupted",
			Help:      "1 if the last run was interrupted.",
		}, []string{"family"}),
		lastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_last_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}, []string{"family"}),
		now: time.Now,
	}
	r.registry.MustRegister(r.accounts, r.items, r.duration, r.interrupted, r.lastRun)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// AccountFinished counts one account outcome.
func (r *Recorder) AccountFinished(family, outcome string) {
	r.accounts.WithLabelValues(family, outcome).Inc()
}

// ItemsFinished counts item operations.
func (r *Recorder) ItemsFinished(family string, succeeded, failed int) {
	if succeeded > 0 {
		r.items.WithLabelValues(family, "succeeded").Add(float64(succeeded))
	}
	if failed > 0 {
		r.items.WithLabelValues(family, "failed").Add(float64(failed))
	}
}

// RunFinished records the run-level gauges.
func (r *Recorder) RunFinished(family string, d time.Duration, interrupted bool) {
	r.duration.WithLabelValues(family).Set(d.Seconds())
	v := 0.0
	if interrupted {
		v = 1
	}
	r.interrupted.WithLabelValues(family).Set(v)
	r.lastRun.WithLabelValues(family).Set(float64(r.now().Unix()))
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
