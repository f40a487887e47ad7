package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the Prometheus instrumentation for the analysis API.
type metrics struct {
	analyses *prometheus.CounterVec
	duration prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fairscore",
			Name:      "analyses_total",
			Help:      "Number of analysis requests by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fairscore",
			Name:      "analysis_duration_seconds",
			Help:      "Time spent computing decisions and fairness reports.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.analyses, m.duration)
	return m
}
