package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/modoterra/igractl/pkg/core"
	"github.com/modoterra/igractl/pkg/metrics"
	"github.com/modoterra/igractl/pkg/monitor"
	"github.com/modoterra/igractl/pkg/transport/uds"
)

// DefaultLogTail is used when a Logs request does not set Tail.
const DefaultLogTail = 100

// Checker produces a status report. *monitor.Monitor satisfies it.
type Checker interface {
	Check(ctx context.Context) monitor.Report
}

// LogSource returns the last n lines of a named service or unit.
type LogSource interface {
	Logs(ctx context.Context, name string, n int) ([]core.LogLine, error)
}

// HealthResponse is the payload of a Health request.
type HealthResponse struct {
	Healthy     bool              `json:"healthy"`
	Health      core.HealthReport `json:"health"`
	Unreachable []string          `json:"unreachable,omitempty"`
}

// Daemon is the igrad process state: the last report, the collaborators
// that serve requests, and the UDS server.
type Daemon struct {
	server   *uds.Server
	checker  Checker
	control  core.Controller
	logs     LogSource
	unitLogs LogSource
	metrics  *metrics.Metrics
	profile  string
	version  string
	poke     chan struct{}

	mu      sync.RWMutex
	last    monitor.Report
	hasLast bool

	logger *slog.Logger
}

// New creates a daemon serving on socketPath.
func New(socketPath string, checker Checker, control core.Controller, logger *slog.Logger) *Daemon {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Daemon{
		server:  uds.NewServer(socketPath, logger),
		checker: checker,
		control: control,
		poke:    make(chan struct{}, 1),
		logger:  logger,
	}
	d.registerHandlers()
	return d
}

// SetLogSources sets where container and host unit logs are read from.
// Either may be nil.
func (d *Daemon) SetLogSources(containers, units LogSource) {
	d.logs = containers
	d.unitLogs = units
}

// SetMetrics makes every refresh update m.
func (d *Daemon) SetMetrics(m *metrics.Metrics) {
	d.metrics = m
}

// SetDefaultProfile is the compose profile used by a start action that
// names none.
func (d *Daemon) SetDefaultProfile(profile string) {
	d.profile = profile
}

// SetVersion is reported in Ping responses.
func (d *Daemon) SetVersion(v string) {
	d.version = v
}

// Run serves the socket until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	return d.server.Start(ctx)
}

// Shutdown cleans up resources.
func (d *Daemon) Shutdown() {
	d.server.Shutdown()
}

// Server returns the underlying UDS server.
func (d *Daemon) Server() *uds.Server {
	return d.server
}

// Report returns the last stored report.
func (d *Daemon) Report() (monitor.Report, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.last, d.hasLast
}

// Refresh runs a check, stores it and reports whether it differs from the
// previous one.
func (d *Daemon) Refresh(ctx context.Context) (monitor.Report, bool) {
	r := d.checker.Check(ctx)

	d.mu.Lock()
	changed := !d.hasLast || reportChanged(d.last, r)
	d.last = r
	d.hasLast = true
	d.mu.Unlock()

	if d.metrics != nil {
		d.metrics.Observe(r)
	}
	return r, changed
}

// Poked delivers a value after an action asks for an early refresh.
func (d *Daemon) Poked() <-chan struct{} {
	return d.poke
}

func (d *Daemon) requestRefresh() {
	select {
	case d.poke <- struct{}{}:
	default:
	}
}

func (d *Daemon) current(ctx context.Context) monitor.Report {
	if r, ok := d.Report(); ok {
		return r
	}
	r, _ := d.Refresh(ctx)
	return r
}

func (d *Daemon) registerHandlers() {
	d.server.Handle(uds.MethodPing, d.handlePing)
	d.server.Handle(uds.MethodStatus, d.handleStatus)
	d.server.Handle(uds.MethodServices, d.handleServices)
	d.server.Handle(uds.MethodHealth, d.handleHealth)
	d.server.Handle(uds.MethodLogs, d.handleLogs)
	d.server.Handle(uds.MethodAction, d.handleAction)
}

func (d *Daemon) handlePing(_ context.Context, _ uds.Message) (any, error) {
	return uds.PingResponse{Pong: true, Version: d.version}, nil
}

func (d *Daemon) handleStatus(ctx context.Context, _ uds.Message) (any, error) {
	return d.current(ctx), nil
}

func (d *Daemon) handleServices(ctx context.Context, _ uds.Message) (any, error) {
	services := d.current(ctx).Services
	if services == nil {
		services = []core.ServiceRecord{}
	}
	return services, nil
}

func (d *Daemon) handleHealth(ctx context.Context, _ uds.Message) (any, error) {
	r := d.current(ctx)
	return HealthResponse{Healthy: r.Healthy(), Health: r.Health, Unreachable: r.Unreachable}, nil
}

func (d *Daemon) handleLogs(ctx context.Context, msg uds.Message) (any, error) {
	var req uds.LogsRequest
	if err := msg.UnmarshalData(&req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if req.Service == "" {
		return nil, errors.New("service is required")
	}
	if req.Tail <= 0 {
		req.Tail = DefaultLogTail
	}

	src := d.logs
	if req.Unit {
		src = d.unitLogs
	}
	if src == nil {
		return nil, errors.New("no log source configured")
	}
	lines, err := src.Logs(ctx, req.Service, req.Tail)
	if err != nil {
		return nil, err
	}
	if lines == nil {
		lines = []core.LogLine{}
	}
	return lines, nil
}

func (d *Daemon) handleAction(ctx context.Context, msg uds.Message) (any, error) {
	var req uds.ActionRequest
	if err := msg.UnmarshalData(&req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if d.control == nil {
		return nil, errors.New("no controller configured")
	}

	var err error
	switch req.Action {
	case uds.ActionStart:
		profile := req.Profile
		if profile == "" {
			profile = d.profile
		}
		err = d.control.Up(ctx, profile)
	case uds.ActionStop:
		err = d.control.Down(ctx)
	case uds.ActionRestart:
		err = d.control.Restart(ctx, req.Service)
	}
	if err != nil {
		d.logger.Warn("action failed", "action", req.Action, "service", req.Service, "err", err)
		return nil, err
	}

	d.logger.Info("action done", "action", req.Action, "service", req.Service)
	d.requestRefresh()
	return uds.ActionResponse{OK: true}, nil
}
