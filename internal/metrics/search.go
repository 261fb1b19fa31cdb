package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search pipeline metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stylequery",
			Name:      "search_requests_total",
			Help:      "Search pipeline outcomes",
		},
		[]string{"outcome"}, // "ok" / "declined" / "empty" / "error"
	)

	RecommendationFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "stylequery",
			Name:      "recommendation_failures_total",
			Help:      "Composer failures degraded to no-recommendation responses",
		},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers search pipeline metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(RecommendationFailuresTotal)
	searchMetricsRegistered = true
}
