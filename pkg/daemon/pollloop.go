package daemon

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/modoterra/igractl/pkg/monitor"
	"github.com/modoterra/igractl/pkg/transport/uds"
)

// PollLoop refreshes the report every interval and broadcasts it when it
// changes.
type PollLoop struct {
	daemon   *Daemon
	interval time.Duration
	logger   *slog.Logger
}

// NewPollLoop creates a poll loop for the given daemon.
func NewPollLoop(d *Daemon, interval time.Duration, logger *slog.Logger) *PollLoop {
	if logger == nil {
		logger = slog.Default()
	}
	return &PollLoop{daemon: d, interval: interval, logger: logger}
}

// Run checks once immediately, then on every tick and after every action.
// Blocks until ctx is cancelled.
func (pl *PollLoop) Run(ctx context.Context) {
	ticker := time.NewTicker(pl.interval)
	defer ticker.Stop()

	pl.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pl.tick(ctx)
		case <-pl.daemon.Poked():
			pl.tick(ctx)
		}
	}
}

func (pl *PollLoop) tick(ctx context.Context) {
	r, changed := pl.daemon.Refresh(ctx)
	if ctx.Err() != nil {
		return
	}
	for _, e := range r.Errors {
		pl.logger.Debug("check error", "err", e)
	}
	if !changed {
		return
	}

	pl.logger.Info("status changed",
		"height", r.BlockHeight,
		"sync", r.Sync.Percent,
		"healthy", r.Healthy(),
	)
	evt, err := uds.NewEvent(uds.EventStatusChanged, r)
	if err != nil {
		pl.logger.Error("encode status event", "err", err)
		return
	}
	pl.daemon.Server().Broadcast(evt)
}

// reportChanged compares everything but the check time.
func reportChanged(a, b monitor.Report) bool {
	return a.BlockHeight != b.BlockHeight ||
		a.BlockHeightKnown != b.BlockHeightKnown ||
		a.Sync != b.Sync ||
		a.BlocksPerMinute != b.BlocksPerMinute ||
		!slices.Equal(a.Services, b.Services) ||
		!slices.Equal(a.Health, b.Health) ||
		!slices.Equal(a.Unreachable, b.Unreachable) ||
		!slices.Equal(a.Errors, b.Errors)
}
