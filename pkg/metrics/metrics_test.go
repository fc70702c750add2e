package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/modoterra/igractl/pkg/core"
	"github.com/modoterra/igractl/pkg/monitor"
)

func TestObserve(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Observe(monitor.Report{
		BlockHeight:      1234,
		BlockHeightKnown: true,
		Sync:             monitor.SyncStatus{Percent: 99.5, Known: true},
		BlocksPerMinute:  2,
		Health: core.HealthReport{
			{Name: "execution-layer", Running: true},
			{Name: "block-builder", Running: false},
		},
		Unreachable: []string{"viaduct"},
	})

	if got := testutil.ToFloat64(m.BlockHeight); got != 1234 {
		t.Errorf("block height: got %v", got)
	}
	if got := testutil.ToFloat64(m.SyncPercent); got != 99.5 {
		t.Errorf("sync: got %v", got)
	}
	if got := testutil.ToFloat64(m.SyncKnown); got != 1 {
		t.Errorf("sync known: got %v", got)
	}
	if got := testutil.ToFloat64(m.ServiceUp.WithLabelValues("execution-layer")); got != 1 {
		t.Errorf("execution-layer up: got %v", got)
	}
	if got := testutil.ToFloat64(m.ServiceUp.WithLabelValues("block-builder")); got != 0 {
		t.Errorf("block-builder up: got %v", got)
	}
	if got := testutil.ToFloat64(m.ProbeFailures.WithLabelValues("viaduct")); got != 1 {
		t.Errorf("viaduct failures: got %v", got)
	}
}

func TestObserveKeepsHeightWhenUnknown(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.Observe(monitor.Report{BlockHeight: 10, BlockHeightKnown: true})
	m.Observe(monitor.Report{})

	if got := testutil.ToFloat64(m.BlockHeight); got != 10 {
		t.Errorf("block height: got %v, want 10", got)
	}
	if got := testutil.ToFloat64(m.Checks); got != 2 {
		t.Errorf("checks: got %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.SyncKnown); got != 0 {
		t.Errorf("sync known: got %v, want 0", got)
	}
}
