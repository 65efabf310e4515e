package metrics_test

import (
	"testing"

	"github.com/argus-crm/argus/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

func TestNewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()

	m := metrics.NewMetrics(reg)
	if m == nil {
		t.Fatal("expected metrics instance")
	}

	// double registration must panic, proving everything registered once
	defer func() {
		if recover() == nil {
			t.Fatal("expected duplicate registration to panic")
		}
	}()
	metrics.NewMetrics(reg)
}
