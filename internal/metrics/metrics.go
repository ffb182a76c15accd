// Package metrics holds the Prometheus instruments for pipeline runs. The
// server registers them with the default registry and exposes /metrics.
package metrics

import (
	"time"

	"github.com/AthlureSolutions/sitelure/internal/models"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records pipeline activity.
type Metrics struct {
	ActiveRuns    prometheus.Gauge
	RunsTotal     *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
	StageFailures *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ActiveRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sitelure_active_runs",
			Help: "Number of pipeline runs currently in progress.",
		}),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sitelure_runs_total",
			Help: "Cumulative number of finished pipeline runs by final stage.",
		}, []string{"outcome"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sitelure_stage_duration_seconds",
			Help:    "Time spent in each pipeline stage.",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"stage"}),
		StageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sitelure_stage_failures_total",
			Help: "Cumulative number of pipeline failures by stage and error kind.",
		}, []string{"stage", "kind"}),
	}
	if reg != nil {
		reg.MustRegister(m.ActiveRuns, m.RunsTotal, m.StageDuration, m.StageFailures)
	}
	return m
}

// RunStarted counts a run as in progress.
func (m *Metrics) RunStarted() {
	m.ActiveRuns.Inc()
}

// StageFinished observes how long a stage took.
func (m *Metrics) StageFinished(stage models.SiteStage, d time.Duration) {
	m.StageDuration.WithLabelValues(string(stage)).Observe(d.Seconds())
}

// RunFinished records the outcome. failedStage and kind are empty on success.
func (m *Metrics) RunFinished(outcome, failedStage models.SiteStage, kind string) {
	m.ActiveRuns.Dec()
	m.RunsTotal.WithLabelValues(string(outcome)).Inc()
	if outcome == models.StageFailed {
		m.StageFailures.WithLabelValues(string(failedStage), kind).Inc()
	}
}
