package expand

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	expandTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qexpand",
			Subsystem: "engine",
			Name:      "expansions_total",
			Help:      "Total query expansions by strategy",
		},
		[]string{"strategy", "degraded"},
	)

	expandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "qexpand",
			Subsystem: "engine",
			Name:      "expansion_duration_seconds",
			Help:      "Duration of query expansions in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"strategy"},
	)

	generationFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "qexpand",
			Subsystem: "engine",
			Name:      "generation_failures_total",
			Help:      "Real-model generations that fell back to the mock strategy",
		},
	)
)

func init() {
	prometheus.MustRegister(expandTotal, expandDuration, generationFailuresTotal)
}

func observeExpansion(strategy string, degraded bool, d time.Duration) {
	expandTotal.WithLabelValues(strategy, strconv.FormatBool(degraded)).Inc()
	expandDuration.WithLabelValues(strategy).Observe(d.Seconds())
}
