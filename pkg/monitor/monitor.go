package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/modoterra/igractl/pkg/core"
)

// ErrNoBlockHeight is returned when the block-builder tail has no usable
// "Built block #N" line.
var ErrNoBlockHeight = errors.New("no block height found in logs")

// DefaultSyncPercent is reported when the sync source logs no percentage.
const DefaultSyncPercent = 100.0

// Options tunes which sources the Monitor reads and how much of them.
type Options struct {
	Services     []string      // compose services probed for health, in display order
	HostUnits    []string      // host units probed through HostProber
	BlockBuilder string        // source carrying "Built block" lines
	SyncSource   string        // source carrying sync percentages
	HeightTail   int           // lines fetched for block height
	SyncTail     int           // lines fetched for sync status
	RateWindow   time.Duration // window for production rate
	StrictSync   bool          // report 0% instead of 100% when sync is unknown
}

// DefaultOptions matches the stock backend profile.
func DefaultOptions() Options {
	return Options{
		Services:     core.KnownServices(),
		BlockBuilder: core.ServiceBlockBuilder,
		SyncSource:   core.ServiceViaduct,
		HeightTail:   10,
		SyncTail:     20,
		RateWindow:   5 * time.Minute,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if len(o.Services) == 0 {
		o.Services = d.Services
	}
	if o.BlockBuilder == "" {
		o.BlockBuilder = d.BlockBuilder
	}
	if o.SyncSource == "" {
		o.SyncSource = d.SyncSource
	}
	if o.HeightTail <= 0 {
		o.HeightTail = d.HeightTail
	}
	if o.SyncTail <= 0 {
		o.SyncTail = d.SyncTail
	}
	if o.RateWindow <= 0 {
		o.RateWindow = d.RateWindow
	}
	return o
}

// SyncStatus is the sync percentage with a flag telling whether it was
// actually read from logs or substituted.
type SyncStatus struct {
	Percent float64 `json:"percent"`
	Known   bool    `json:"known"`
}

// Report is the aggregate result of one status check.
type Report struct {
	CheckedAt        time.Time            `json:"checked_at"`
	Services         []core.ServiceRecord `json:"services"`
	Health           core.HealthReport    `json:"health"`
	Unreachable      []string             `json:"unreachable,omitempty"`
	BlockHeight      uint64               `json:"block_height"`
	BlockHeightKnown bool                 `json:"block_height_known"`
	Sync             SyncStatus           `json:"sync"`
	BlocksPerMinute  float64              `json:"blocks_per_minute"`
	Errors           []string             `json:"errors,omitempty"`
}

// Healthy reports whether every probed service runs and no probe failed.
func (r Report) Healthy() bool {
	return len(r.Unreachable) == 0 && r.Health.AllRunning()
}

// Monitor combines the collaborators into status queries.
type Monitor struct {
	logs       core.LogFetcher
	prober     core.Prober
	hostProber core.Prober
	status     core.StatusSource
	opts       Options
	logger     *slog.Logger
	now        func() time.Time
}

// New creates a Monitor. status and prober are usually the same docker provider.
func New(logs core.LogFetcher, prober core.Prober, status core.StatusSource, opts Options, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		logs:   logs,
		prober: prober,
		status: status,
		opts:   opts.withDefaults(),
		logger: logger,
		now:    time.Now,
	}
}

// SetHostProber registers the prober used for Options.HostUnits.
func (m *Monitor) SetHostProber(p core.Prober) {
	m.hostProber = p
}

// Options returns the effective options.
func (m *Monitor) Options() Options {
	return m.opts
}

// BlockHeight returns the latest block built by the block builder.
func (m *Monitor) BlockHeight(ctx context.Context) (uint64, error) {
	lines, err := m.logs.Tail(ctx, m.opts.BlockBuilder, m.opts.HeightTail)
	if err != nil {
		return 0, fmt.Errorf("get block height: %w", err)
	}
	height, ok := ExtractBlockHeight(lines)
	if !ok {
		return 0, ErrNoBlockHeight
	}
	return height, nil
}

// SyncStatus returns the sync percentage of the sync source. Absent any sync
// line it reports DefaultSyncPercent (0 with StrictSync) and Known=false.
func (m *Monitor) SyncStatus(ctx context.Context) (SyncStatus, error) {
	lines, err := m.logs.Tail(ctx, m.opts.SyncSource, m.opts.SyncTail)
	if err != nil {
		return SyncStatus{}, fmt.Errorf("get sync status: %w", err)
	}
	if pct, ok := ExtractSyncPercentage(lines); ok {
		return SyncStatus{Percent: pct, Known: true}, nil
	}
	if m.opts.StrictSync {
		return SyncStatus{}, nil
	}
	return SyncStatus{Percent: DefaultSyncPercent}, nil
}

// ProductionRate returns blocks per minute over the rate window. Fetch
// failures are logged and count as zero production.
func (m *Monitor) ProductionRate(ctx context.Context) float64 {
	lines, err := m.logs.Since(ctx, m.opts.BlockBuilder, m.opts.RateWindow)
	if err != nil {
		m.logger.Warn("block rate unavailable", "source", m.opts.BlockBuilder, "err", err)
		return 0
	}
	return ProductionRate(lines, m.opts.RateWindow)
}

// Health probes the configured services and host units.
func (m *Monitor) Health(ctx context.Context) (core.HealthReport, []core.ProbeFailure) {
	report, failures := AggregateHealth(ctx, m.opts.Services, ProbeWith(m.prober))
	if m.hostProber != nil && len(m.opts.HostUnits) > 0 {
		hostReport, hostFailures := AggregateHealth(ctx, m.opts.HostUnits, ProbeWith(m.hostProber))
		report = append(report, hostReport...)
		failures = append(failures, hostFailures...)
	}
	return report, failures
}

// Services returns a status record per configured service.
func (m *Monitor) Services(ctx context.Context) ([]core.ServiceRecord, error) {
	blob, err := m.status.ComposePS(ctx)
	if err != nil {
		// compose ps failing is a parse failure for the primary tier
		m.logger.Debug("compose ps failed, probing individually", "err", err)
		blob = nil
	}
	return Reconcile(ctx, blob, m.opts.Services, m.opts.Services, ProbeWith(m.prober))
}

// Check runs every query and collects the results. It never fails as a
// whole; per-query errors are listed in Report.Errors.
func (m *Monitor) Check(ctx context.Context) Report {
	r := Report{CheckedAt: m.now()}

	services, err := m.Services(ctx)
	r.Services = services
	if err != nil {
		r.Errors = append(r.Errors, err.Error())
	}

	health, failures := m.Health(ctx)
	r.Health = health
	for _, f := range failures {
		r.Unreachable = append(r.Unreachable, f.Name)
		r.Errors = append(r.Errors, f.Error())
	}

	if height, err := m.BlockHeight(ctx); err == nil {
		r.BlockHeight = height
		r.BlockHeightKnown = true
	} else {
		r.Errors = append(r.Errors, err.Error())
	}

	if sync, err := m.SyncStatus(ctx); err == nil {
		r.Sync = sync
	} else {
		r.Errors = append(r.Errors, err.Error())
	}

	r.BlocksPerMinute = m.ProductionRate(ctx)
	return r
}
