package metrics

import "github.com/prometheus/client_golang/prometheus"

// Model-service Prometheus metrics, labeled by capability
// (extraction, embedding, composition).
var (
	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stylequery",
			Name:      "llm_requests_total",
			Help:      "Total number of model-service requests",
		},
		[]string{"capability", "model", "status"},
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "stylequery",
			Name:      "llm_request_duration_seconds",
			Help:      "Model-service request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"capability", "model"},
	)

	LLMTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stylequery",
			Name:      "llm_tokens_total",
			Help:      "Total model-service tokens consumed",
		},
		[]string{"capability", "model", "type"},
	)

	LLMErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stylequery",
			Name:      "llm_errors_total",
			Help:      "Total model-service errors",
		},
		[]string{"capability", "model", "error_type"},
	)
)

var llmMetricsRegistered bool

// RegisterLLMMetrics registers model-service metrics. Must be called once from main.
func RegisterLLMMetrics() {
	if llmMetricsRegistered {
		return
	}
	prometheus.MustRegister(LLMRequestsTotal)
	prometheus.MustRegister(LLMRequestDuration)
	prometheus.MustRegister(LLMTokensTotal)
	prometheus.MustRegister(LLMErrorsTotal)
	llmMetricsRegistered = true
}
