package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"aquatech-monitor/internal/models"
)

func TestRecordersBeforeInit(t *testing.T) {
	// Must not panic while the collectors are unregistered.
	ObserveStoreQuery("latest_reading", ResultOK, time.Millisecond)
	SetStoreHealth(models.Connected)
	FallbackUsed("chart", "empty")
	ObserveHTTP("/health", "200")
}

func TestInitRegistersCollectors(t *testing.T) {
	Init()
	Init()

	ObserveStoreQuery("latest_reading", ResultOK, time.Millisecond)
	SetStoreHealth(models.Connected)
	FallbackUsed("chart", "degraded")
	ObserveHTTP("/health", "200")

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	want := map[string]bool{
		"aquatech_store_queries_total":          false,
		"aquatech_store_query_latency_seconds":  false,
		"aquatech_store_connected":              false,
		"aquatech_fallback_substitutions_total": false,
		"aquatech_http_requests_total":          false,
	}
	for _, f := range families {
		if _, ok := want[f.GetName()]; ok {
			want[f.GetName()] = true
		}
		if f.GetName() == "aquatech_store_connected" {
			if v := f.GetMetric()[0].GetGauge().GetValue(); v != 1 {
				t.Fatalf("store_connected = %v, want 1", v)
			}
		}
	}
	for name, seen := range want {
		if !seen {
			t.Fatalf("metric %s not registered", name)
		}
	}
}
