package monitor

import (
	"context"
	"errors"
	"testing"

	"github.com/modoterra/igractl/pkg/core"
)

var known = core.KnownServices()

func TestParseComposePSArray(t *testing.T) {
	blob := []byte(`[{"Name":"igra-block-builder-1","Service":"block-builder","State":"running"},
{"Name":"igra-viaduct-1","Service":"viaduct","State":"exited"}]`)
	entries, err := ParseComposePS(blob)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries: got %d, want 2", len(entries))
	}
	if entries[1].State != "exited" {
		t.Errorf("state: got %q", entries[1].State)
	}
}

func TestParseComposePSLines(t *testing.T) {
	blob := []byte("{\"Service\":\"execution-layer\",\"State\":\"running\"}\n{\"Service\":\"viaduct\",  \"State\":\"running\"}\n")
	entries, err := ParseComposePS(blob)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries: got %d, want 2", len(entries))
	}
}

func TestParseComposePSErrors(t *testing.T) {
	if _, err := ParseComposePS([]byte("   \n")); !errors.Is(err, ErrEmptyStatus) {
		t.Errorf("blank: got %v, want ErrEmptyStatus", err)
	}
	if _, err := ParseComposePS([]byte("execution-layer running")); err == nil {
		t.Error("expected error for non-JSON blob")
	}
}

func TestReconcilePrimary(t *testing.T) {
	blob := []byte(`[
  {"Name":"viaduct","Service":"viaduct","State":"restarting"},
  {"Name":"block-builder","Service":"block-builder","State":"exited"},
  {"Name":"execution-layer","Service":"execution-layer","State":"running"}
]`)
	probe := func(context.Context, string) (bool, error) {
		t.Fatal("fallback probe should not be called")
		return false, nil
	}

	records, err := Reconcile(context.Background(), blob, known, known, probe)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	want := []core.ServiceRecord{
		{Name: "execution-layer", Running: true, Status: core.StatusRunning},
		{Name: "block-builder", Running: false, Status: core.StatusExited},
		{Name: "viaduct", Running: false, Status: core.StatusUnknown},
	}
	if len(records) != len(want) {
		t.Fatalf("records: got %d, want %d", len(records), len(want))
	}
	for i := range want {
		if records[i] != want[i] {
			t.Errorf("records[%d]: got %+v, want %+v", i, records[i], want[i])
		}
	}
}

func TestReconcileMatchesByContainerName(t *testing.T) {
	blob := []byte(`{"Name":"igra-orchestra-viaduct-1","State":"running"}`)
	records, err := Reconcile(context.Background(), blob, known, known, nil)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(records) != 1 || records[0].Name != "viaduct" || !records[0].Running {
		t.Errorf("records: got %+v", records)
	}
}

func TestReconcileFallback(t *testing.T) {
	blobs := map[string][]byte{
		"empty":     nil,
		"malformed": []byte("{not json"),
		"unrelated": []byte(`[{"Service":"redis","State":"running"}]`),
	}
	running := map[string]bool{"execution-layer": true, "viaduct": true}
	probe := func(_ context.Context, name string) (bool, error) {
		return running[name], nil
	}

	for name, blob := range blobs {
		t.Run(name, func(t *testing.T) {
			records, err := Reconcile(context.Background(), blob, known, known, probe)
			if err != nil {
				t.Fatalf("reconcile: %v", err)
			}
			if len(records) != len(known) {
				t.Fatalf("records: got %d, want %d", len(records), len(known))
			}
			for i, r := range records {
				if r.Name != known[i] {
					t.Errorf("records[%d].Name: got %q, want %q", i, r.Name, known[i])
				}
				if r.Status == core.StatusExited {
					t.Errorf("%s: fallback must not report exited", r.Name)
				}
				want := core.StatusStopped
				if running[r.Name] {
					want = core.StatusRunning
				}
				if r.Status != want || r.Running != running[r.Name] {
					t.Errorf("%s: got %+v", r.Name, r)
				}
			}
		})
	}
}

func TestReconcileFallbackProbeError(t *testing.T) {
	probe := func(_ context.Context, name string) (bool, error) {
		if name == "block-builder" {
			return false, errors.New("timeout")
		}
		return true, nil
	}

	records, err := Reconcile(context.Background(), nil, known, known, probe)
	if err == nil {
		t.Fatal("expected joined probe error")
	}
	var pf core.ProbeFailure
	if !errors.As(err, &pf) || pf.Name != "block-builder" {
		t.Errorf("error: got %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records: got %d, want 3", len(records))
	}
	if records[1].Status != core.StatusUnknown || records[1].Running {
		t.Errorf("block-builder: got %+v", records[1])
	}
}
