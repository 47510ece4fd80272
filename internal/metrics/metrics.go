package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"aquatech-monitor/internal/models"
)

const (
	metricPrefix = "aquatech_"

	ResultOK    = "ok"
	ResultEmpty = "empty"
	ResultError = "error"
)

var (
	registerOnce sync.Once

	storeQueries      *prometheus.CounterVec
	storeQueryLatency *prometheus.HistogramVec
	storeHealth       prometheus.Gauge
	fallbackTotal     *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
)

// Init registers the collectors with the default registry. Calls after the first are
// no-ops, and every recorder below is a no-op until Init has run.
func Init() {
	registerOnce.Do(func() {
		storeQueries = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "store_queries_total",
				Help: "Store gateway operations by operation and result",
			},
			[]string{"op", "result"},
		)
		storeQueryLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "store_query_latency_seconds",
				Help:    "Store gateway operation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		)
		storeHealth = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "store_connected",
				Help: "1 when the store gateway is connected, 0 when degraded",
			},
		)
		fallbackTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "fallback_substitutions_total",
				Help: "Responses served from synthetic data by kind and reason",
			},
			[]string{"kind", "reason"},
		)
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		)

		prometheus.MustRegister(storeQueries, storeQueryLatency, storeHealth, fallbackTotal, httpRequests)
	})
}

// ObserveStoreQuery records one store gateway operation.
func ObserveStoreQuery(op, result string, elapsed time.Duration) {
	if storeQueries == nil {
		return
	}
	storeQueries.WithLabelValues(op, result).Inc()
	storeQueryLatency.WithLabelValues(op).Observe(elapsed.Seconds())
}

// SetStoreHealth mirrors the gateway health state.
func SetStoreHealth(state models.HealthState) {
	if storeHealth == nil {
		return
	}
	if state == models.Connected {
		storeHealth.Set(1)
		return
	}
	storeHealth.Set(0)
}

// FallbackUsed counts a synthetic substitution.
func FallbackUsed(kind, reason string) {
	if fallbackTotal == nil {
		return
	}
	fallbackTotal.WithLabelValues(kind, reason).Inc()
}

// ObserveHTTP counts a served request.
func ObserveHTTP(route, code string) {
	if httpRequests == nil {
		return
	}
	httpRequests.WithLabelValues(route, code).Inc()
}
