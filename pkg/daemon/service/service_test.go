package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type recorder struct {
	calls []string
	out   map[string]string
	err   map[string]error
}

func (r *recorder) systemctl(_ context.Context, args ...string) ([]byte, error) {
	key := strings.Join(args, " ")
	r.calls = append(r.calls, key)
	return []byte(r.out[key]), r.err[key]
}

func newTestManager(t *testing.T) (*Manager, *recorder) {
	rec := &recorder{out: map[string]string{}, err: map[string]error{}}
	return &Manager{UnitDir: filepath.Join(t.TempDir(), "systemd", "user"), Systemctl: rec.systemctl}, rec
}

func TestUnitContents(t *testing.T) {
	got := UnitContents("/usr/local/bin/igrad", "/etc/igra.yaml")

	for _, want := range []string{
		"ExecStart=/usr/local/bin/igrad --config /etc/igra.yaml",
		"Type=simple",
		"Restart=on-failure",
		"[Install]",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("unit file missing %q", want)
		}
	}

	if got := UnitContents("/usr/local/bin/igrad", ""); !strings.Contains(got, "ExecStart=/usr/local/bin/igrad\n") {
		t.Error("unit without config should not pass --config")
	}
}

func TestInstall(t *testing.T) {
	m, rec := newTestManager(t)

	if err := m.Install(context.Background(), "/usr/local/bin/igrad", "/etc/igra.yaml"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(m.UnitPath())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "ExecStart=/usr/local/bin/igrad --config /etc/igra.yaml") {
		t.Errorf("unexpected unit file:\n%s", data)
	}
	want := []string{"daemon-reload", "enable --now igrad.service"}
	if strings.Join(rec.calls, ",") != strings.Join(want, ",") {
		t.Errorf("calls: got %v, want %v", rec.calls, want)
	}
}

func TestInstallReloadFailure(t *testing.T) {
	m, rec := newTestManager(t)
	rec.err["daemon-reload"] = errors.New("no user bus")

	if err := m.Install(context.Background(), "/usr/local/bin/igrad", ""); err == nil {
		t.Fatal("expected error")
	}
	if len(rec.calls) != 1 {
		t.Errorf("enable should not run after reload failure, calls %v", rec.calls)
	}
}

func TestUninstall(t *testing.T) {
	m, rec := newTestManager(t)
	if err := m.Install(context.Background(), "/usr/local/bin/igrad", ""); err != nil {
		t.Fatal(err)
	}
	rec.calls = nil
	rec.err["disable --now igrad.service"] = errors.New("not loaded")

	if err := m.Uninstall(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(m.UnitPath()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("unit file should be gone, stat err %v", err)
	}
	if rec.calls[len(rec.calls)-1] != "daemon-reload" {
		t.Errorf("expected reload last, calls %v", rec.calls)
	}
}

func TestStatus(t *testing.T) {
	m, rec := newTestManager(t)
	ctx := context.Background()
	sock := filepath.Join(t.TempDir(), "igrad.sock")

	got := m.Status(ctx, sock)
	if !strings.Contains(got, "socket: inactive") || !strings.Contains(got, "not installed") {
		t.Errorf("unexpected status:\n%s", got)
	}

	if err := os.WriteFile(sock, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := m.Install(ctx, "/usr/local/bin/igrad", ""); err != nil {
		t.Fatal(err)
	}
	rec.out["is-active igrad.service"] = "active\n"

	got = m.Status(ctx, sock)
	if !strings.Contains(got, "socket: active") || !strings.Contains(got, "systemd user service: active") {
		t.Errorf("unexpected status:\n%s", got)
	}
}
