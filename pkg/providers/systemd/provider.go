// Package systemd probes host units that the orchestra depends on, such as
// a kaspad node running outside docker.
package systemd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/coreos/go-systemd/v22/dbus"

	"github.com/modoterra/igractl/pkg/core"
)

// Provider queries systemd units via D-Bus.
type Provider struct {
	logger *slog.Logger
}

var _ core.Prober = (*Provider)(nil)

// New creates a new systemd provider.
func New(logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{logger: logger}
}

func (p *Provider) Name() string { return "systemd" }

// Records returns one record per unit, in the order given.
func (p *Provider) Records(ctx context.Context, units []string) ([]core.ServiceRecord, error) {
	conn, err := dbus.NewWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("dbus connect: %w", err)
	}
	defer conn.Close()

	statuses, err := conn.ListUnitsByNamesContext(ctx, units)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}

	byName := make(map[string]dbus.UnitStatus, len(statuses))
	for _, u := range statuses {
		byName[u.Name] = u
	}

	records := make([]core.ServiceRecord, 0, len(units))
	for _, name := range units {
		status := core.StatusUnknown
		if u, ok := byName[name]; ok && u.LoadState != "not-found" {
			status = mapStatus(u.ActiveState, u.SubState)
		}
		records = append(records, core.NewServiceRecord(name, status))
	}
	return records, nil
}

// Probe reports whether unit is active and running.
func (p *Provider) Probe(ctx context.Context, unit string) (bool, error) {
	records, err := p.Records(ctx, []string{unit})
	if err != nil {
		return false, fmt.Errorf("check %s: %w", unit, err)
	}
	return len(records) == 1 && records[0].Running, nil
}

// Restart restarts unit and waits for the job to finish.
func (p *Provider) Restart(ctx context.Context, unit string) error {
	conn, err := dbus.NewWithContext(ctx)
	if err != nil {
		return fmt.Errorf("dbus connect: %w", err)
	}
	defer conn.Close()

	ch := make(chan string, 1)
	if _, err := conn.RestartUnitContext(ctx, unit, "replace", ch); err != nil {
		return fmt.Errorf("systemd restart %s: %w", unit, err)
	}

	select {
	case result := <-ch:
		if result != "done" {
			return fmt.Errorf("systemd restart %s: job result %q", unit, result)
		}
	case <-ctx.Done():
		return fmt.Errorf("systemd restart %s: %w", unit, ctx.Err())
	}
	p.logger.Info("unit restarted", "unit", unit)
	return nil
}

func mapStatus(active, sub string) core.Status {
	switch {
	case active == "active" && sub == "running":
		return core.StatusRunning
	case active == "active":
		// exited oneshot or similar: active but no process
		return core.StatusExited
	case active == "inactive", active == "deactivating":
		return core.StatusStopped
	case active == "failed":
		return core.StatusExited
	default:
		return core.StatusUnknown
	}
}
