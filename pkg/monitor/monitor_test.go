package monitor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

type fakeLogs struct {
	tails    map[string][]string
	since    []string
	sinceErr error
	tailErr  error
	gotTail  map[string]int
}

func (f *fakeLogs) Tail(_ context.Context, source string, n int) ([]string, error) {
	if f.gotTail == nil {
		f.gotTail = make(map[string]int)
	}
	f.gotTail[source] = n
	if f.tailErr != nil {
		return nil, f.tailErr
	}
	return f.tails[source], nil
}

func (f *fakeLogs) Since(context.Context, string, time.Duration) ([]string, error) {
	return f.since, f.sinceErr
}

type fakeProber map[string]error

func (f fakeProber) Probe(_ context.Context, name string) (bool, error) {
	err, ok := f[name]
	if !ok {
		return false, nil
	}
	return err == nil, err
}

type fakeStatus struct {
	blob []byte
	err  error
}

func (f fakeStatus) ComposePS(context.Context) ([]byte, error) { return f.blob, f.err }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMonitorBlockHeight(t *testing.T) {
	logs := &fakeLogs{tails: map[string][]string{
		"block-builder": {"Built block #10", "Built block #11"},
	}}
	m := New(logs, fakeProber{}, fakeStatus{}, Options{}, quietLogger())

	h, err := m.BlockHeight(context.Background())
	if err != nil {
		t.Fatalf("block height: %v", err)
	}
	if h != 11 {
		t.Errorf("height: got %d, want 11", h)
	}
	if logs.gotTail["block-builder"] != 10 {
		t.Errorf("tail size: got %d, want 10", logs.gotTail["block-builder"])
	}
}

func TestMonitorBlockHeightNotFound(t *testing.T) {
	logs := &fakeLogs{tails: map[string][]string{"block-builder": {"idle"}}}
	m := New(logs, fakeProber{}, fakeStatus{}, Options{}, quietLogger())

	if _, err := m.BlockHeight(context.Background()); !errors.Is(err, ErrNoBlockHeight) {
		t.Errorf("got %v, want ErrNoBlockHeight", err)
	}
}

func TestMonitorBlockHeightFetchError(t *testing.T) {
	base := errors.New("docker not running")
	m := New(&fakeLogs{tailErr: base}, fakeProber{}, fakeStatus{}, Options{}, quietLogger())

	_, err := m.BlockHeight(context.Background())
	if !errors.Is(err, base) {
		t.Errorf("got %v, want wrapped fetch error", err)
	}
	if errors.Is(err, ErrNoBlockHeight) {
		t.Error("fetch failure must not look like a parse miss")
	}
}

func TestMonitorSyncStatus(t *testing.T) {
	ctx := context.Background()

	logs := &fakeLogs{tails: map[string][]string{"viaduct": {"sync 42.5%"}}}
	m := New(logs, fakeProber{}, fakeStatus{}, Options{}, quietLogger())
	got, err := m.SyncStatus(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != (SyncStatus{Percent: 42.5, Known: true}) {
		t.Errorf("got %+v", got)
	}
	if logs.gotTail["viaduct"] != 20 {
		t.Errorf("tail size: got %d, want 20", logs.gotTail["viaduct"])
	}

	empty := &fakeLogs{tails: map[string][]string{"viaduct": {"started"}}}
	m = New(empty, fakeProber{}, fakeStatus{}, Options{}, quietLogger())
	got, _ = m.SyncStatus(ctx)
	if got != (SyncStatus{Percent: DefaultSyncPercent, Known: false}) {
		t.Errorf("default: got %+v", got)
	}

	m = New(empty, fakeProber{}, fakeStatus{}, Options{StrictSync: true}, quietLogger())
	got, _ = m.SyncStatus(ctx)
	if got != (SyncStatus{}) {
		t.Errorf("strict: got %+v", got)
	}
}

func TestMonitorProductionRate(t *testing.T) {
	lines := []string{"Built block #1", "Built block #2", "Built block #3", "Built block #4", "Built block #5"}
	m := New(&fakeLogs{since: lines}, fakeProber{}, fakeStatus{}, Options{}, quietLogger())
	if got := m.ProductionRate(context.Background()); got != 1.0 {
		t.Errorf("rate: got %v, want 1.0", got)
	}

	m = New(&fakeLogs{sinceErr: errors.New("boom")}, fakeProber{}, fakeStatus{}, Options{}, quietLogger())
	if got := m.ProductionRate(context.Background()); got != 0 {
		t.Errorf("rate on error: got %v, want 0", got)
	}
}

func TestMonitorHealthWithHostUnits(t *testing.T) {
	prober := fakeProber{"execution-layer": nil, "block-builder": nil, "viaduct": errors.New("timeout")}
	m := New(&fakeLogs{}, prober, fakeStatus{}, Options{HostUnits: []string{"kaspad.service"}}, quietLogger())
	m.SetHostProber(fakeProber{"kaspad.service": nil})

	report, failures := m.Health(context.Background())
	if len(report) != 3 {
		t.Fatalf("report: got %+v", report)
	}
	if report[2].Name != "kaspad.service" || !report[2].Running {
		t.Errorf("host unit: got %+v", report[2])
	}
	if len(failures) != 1 || failures[0].Name != "viaduct" {
		t.Errorf("failures: got %+v", failures)
	}
}

func TestMonitorServicesFallsBackWhenComposeFails(t *testing.T) {
	prober := fakeProber{"execution-layer": nil}
	m := New(&fakeLogs{}, prober, fakeStatus{err: errors.New("compose missing")}, Options{}, quietLogger())

	records, err := m.Services(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("records: got %d", len(records))
	}
	if !records[0].Running || records[1].Running || records[2].Running {
		t.Errorf("records: got %+v", records)
	}
}

func TestMonitorCheck(t *testing.T) {
	logs := &fakeLogs{
		tails: map[string][]string{
			"block-builder": {"Built block #500"},
			"viaduct":       {"nothing here"},
		},
		since: []string{"Built block #499", "Built block #500"},
	}
	prober := fakeProber{"execution-layer": nil, "block-builder": nil, "viaduct": nil}
	status := fakeStatus{blob: []byte(`[{"Service":"execution-layer","State":"running"},{"Service":"block-builder","State":"running"},{"Service":"viaduct","State":"running"}]`)}

	m := New(logs, prober, status, Options{}, quietLogger())
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	r := m.Check(context.Background())
	if !r.CheckedAt.Equal(fixed) {
		t.Errorf("checked at: got %v", r.CheckedAt)
	}
	if !r.BlockHeightKnown || r.BlockHeight != 500 {
		t.Errorf("height: got %d known=%v", r.BlockHeight, r.BlockHeightKnown)
	}
	if r.Sync.Known || r.Sync.Percent != DefaultSyncPercent {
		t.Errorf("sync: got %+v", r.Sync)
	}
	if r.BlocksPerMinute != 0.4 {
		t.Errorf("rate: got %v, want 0.4", r.BlocksPerMinute)
	}
	if len(r.Services) != 3 || !r.Healthy() {
		t.Errorf("services: %+v healthy=%v", r.Services, r.Healthy())
	}
	if len(r.Errors) != 0 {
		t.Errorf("errors: %v", r.Errors)
	}
}

func TestMonitorCheckCollectsErrors(t *testing.T) {
	logs := &fakeLogs{tailErr: errors.New("no such container")}
	prober := fakeProber{"execution-layer": errors.New("docker down")}
	m := New(logs, prober, fakeStatus{}, Options{Services: []string{"execution-layer"}}, quietLogger())

	r := m.Check(context.Background())
	if r.Healthy() {
		t.Error("report should not be healthy")
	}
	if len(r.Unreachable) != 1 || r.Unreachable[0] != "execution-layer" {
		t.Errorf("unreachable: got %v", r.Unreachable)
	}
	if r.BlockHeightKnown {
		t.Error("height should be unknown")
	}
	if len(r.Errors) < 3 {
		t.Errorf("expected errors for services, health, height and sync; got %v", r.Errors)
	}
}
