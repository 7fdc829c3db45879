package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CallsTotal tracks call outcomes per call name, kind and reason
	CallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callguard_calls_total",
			Help: "Total number of wrapped remote calls by outcome",
		},
		[]string{"call", "kind", "reason"},
	)

	// CallAttempts tracks how many invocations each call needed
	CallAttempts = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "callguard_call_attempts",
			Help:    "Number of attempts made per wrapped call",
			Buckets: []float64{1, 2, 3, 4, 5, 8},
		},
		[]string{"call"},
	)

	// CallLatency tracks wall time across all attempts of a call
	CallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "callguard_call_latency_seconds",
			Help:    "Wrapped call latency in seconds, across attempts",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"call", "kind"},
	)

	// ComponentUp reports the last probe result per component (1 = healthy)
	ComponentUp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "callguard_component_up",
			Help: "Whether the last probe of a component succeeded",
		},
		[]string{"component"},
	)

	// ProviderErrorRate tracks the HTTP provider error rate
	ProviderErrorRate = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "callguard_provider_error_rate",
			Help: "Fraction of failed requests per HTTP provider",
		},
		[]string{"provider"},
	)

	// DBConnectionPoolUsage tracks journal database pool usage in percent
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "callguard_db_connection_pool_usage_percent",
			Help: "Journal database connection pool usage",
		},
	)
)
