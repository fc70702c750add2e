package core

import (
	"errors"
	"testing"
)

func TestNewServiceRecord(t *testing.T) {
	tests := []struct {
		status      Status
		wantStatus  Status
		wantRunning bool
	}{
		{StatusRunning, StatusRunning, true},
		{StatusExited, StatusExited, false},
		{StatusStopped, StatusStopped, false},
		{StatusUnknown, StatusUnknown, false},
		{Status("paused"), StatusUnknown, false},
		{Status(""), StatusUnknown, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			r := NewServiceRecord("viaduct", tt.status)
			if r.Status != tt.wantStatus {
				t.Errorf("status: got %q, want %q", r.Status, tt.wantStatus)
			}
			if r.Running != tt.wantRunning {
				t.Errorf("running: got %v, want %v", r.Running, tt.wantRunning)
			}
		})
	}
}

func TestHealthReportLookup(t *testing.T) {
	r := HealthReport{{Name: "a", Running: true}, {Name: "b", Running: false}}

	if running, ok := r.Lookup("a"); !ok || !running {
		t.Errorf("a: got running=%v ok=%v", running, ok)
	}
	if running, ok := r.Lookup("b"); !ok || running {
		t.Errorf("b: got running=%v ok=%v", running, ok)
	}
	if _, ok := r.Lookup("c"); ok {
		t.Error("c should not be present")
	}
}

func TestHealthReportAllRunning(t *testing.T) {
	if (HealthReport{}).AllRunning() {
		t.Error("empty report should not be healthy")
	}
	if !(HealthReport{{Name: "a", Running: true}}).AllRunning() {
		t.Error("expected healthy")
	}
	if (HealthReport{{Name: "a", Running: true}, {Name: "b"}}).AllRunning() {
		t.Error("expected unhealthy")
	}
}

func TestProbeFailureUnwrap(t *testing.T) {
	base := errors.New("boom")
	f := ProbeFailure{Name: "viaduct", Err: base}
	if !errors.Is(f, base) {
		t.Error("expected ProbeFailure to unwrap to base error")
	}
	if f.Error() != "probe viaduct: boom" {
		t.Errorf("message: got %q", f.Error())
	}
}
