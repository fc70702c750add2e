package monitor

import (
	"context"
	"errors"
	"testing"
)

func TestAggregateHealthPartialFailure(t *testing.T) {
	probe := func(_ context.Context, name string) (bool, error) {
		switch name {
		case "a":
			return true, nil
		case "b":
			return false, errors.New("daemon unreachable")
		default:
			return false, nil
		}
	}

	report, failures := AggregateHealth(context.Background(), []string{"a", "b", "c"}, probe)

	if len(report) != 2 {
		t.Fatalf("report: got %d entries, want 2", len(report))
	}
	if report[0].Name != "a" || !report[0].Running {
		t.Errorf("report[0]: got %+v", report[0])
	}
	if report[1].Name != "c" || report[1].Running {
		t.Errorf("report[1]: got %+v", report[1])
	}
	if _, ok := report.Lookup("b"); ok {
		t.Error("b should not be in the report")
	}

	if len(failures) != 1 || failures[0].Name != "b" {
		t.Fatalf("failures: got %+v", failures)
	}
}

func TestAggregateHealthOrder(t *testing.T) {
	names := []string{"viaduct", "execution-layer", "block-builder"}
	probe := func(context.Context, string) (bool, error) { return true, nil }

	report, failures := AggregateHealth(context.Background(), names, probe)
	if len(failures) != 0 {
		t.Fatalf("unexpected failures: %v", failures)
	}
	for i, name := range names {
		if report[i].Name != name {
			t.Errorf("report[%d]: got %q, want %q", i, report[i].Name, name)
		}
	}
}
