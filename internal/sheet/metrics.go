package sheet

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts compilations and evaluations done by a sheet.
type Metrics struct {
	Compiles    *prometheus.CounterVec
	Evaluations *prometheus.CounterVec
	Duration    prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Compiles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sheet_compiles_total",
				Help: "Cell inputs compiled, by result (formula, text, syntax_error)",
			},
			[]string{"result"},
		),
		Evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sheet_evaluations_total",
				Help: "Formula cells evaluated, by result (ok, eval_error)",
			},
			[]string{"result"},
		),
		Duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sheet_evaluation_duration_seconds",
				Help:    "Time spent evaluating a formula cell",
				Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Compiles, m.Evaluations, m.Duration)
	}
	return m
}

func (m *Metrics) compiled(result string) {
	if m == nil {
		return
	}
	m.Compiles.WithLabelValues(result).Inc()
}

func (m *Metrics) evaluated(result string, seconds float64) {
	if m == nil {
		return
	}
	m.Evaluations.WithLabelValues(result).Inc()
	m.Duration.Observe(seconds)
}
