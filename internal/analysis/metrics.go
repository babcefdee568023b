package analysis

import (
	"strconv"

	"github.com/HerbHall/coldtrace/pkg/coldchain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records analysis outcomes. A nil *Metrics records nothing.
type Metrics struct {
	runs         prometheus.Counter
	samples      prometheus.Histogram
	gaps         *prometheus.CounterVec
	violations   *prometheus.CounterVec
	dispositions *prometheus.CounterVec
}

// NewMetrics creates the analysis collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coldtrace_analysis_runs_total",
			Help: "Total number of completed analysis runs.",
		}),
		samples: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "coldtrace_analysis_samples",
			Help:    "Number of samples per analyzed series.",
			Buckets: prometheus.ExponentialBuckets(16, 4, 8),
		}),
		gaps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coldtrace_gaps_detected_total",
				Help: "Total number of detected acquisition gaps.",
			},
			[]string{"kind"},
		),
		violations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coldtrace_violations_detected_total",
				Help: "Total number of detected limit violations.",
			},
			[]string{"kind"},
		),
		dispositions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coldtrace_dispositions_total",
				Help: "Total number of recommended dispositions.",
			},
			[]string{"disposition", "rule"},
		),
	}
	reg.MustRegister(m.runs, m.samples, m.gaps, m.violations, m.dispositions)
	return m
}

func (m *Metrics) observe(r *coldchain.Report) {
	if m == nil {
		return
	}
	m.runs.Inc()
	m.samples.Observe(float64(r.Samples))
	for _, g := range r.Gaps {
		m.gaps.WithLabelValues(string(g.Kind)).Inc()
	}
	for _, v := range r.Violations {
		m.violations.WithLabelValues(string(v.Kind)).Inc()
	}
	m.dispositions.WithLabelValues(
		string(r.Decision.Disposition), strconv.Itoa(r.Decision.RuleID),
	).Inc()
}
