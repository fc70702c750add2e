// Package docker drives the IGRA Orchestra stack through the docker CLI.
package docker

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/modoterra/igractl/pkg/core"
)

// DefaultTimeout bounds every docker invocation.
const DefaultTimeout = 30 * time.Second

// Options configures a Provider.
type Options struct {
	Dir     string        // orchestra directory holding docker-compose.yml and .env
	Binary  string        // docker binary, "docker" when empty
	Timeout time.Duration // per-command timeout
	Runner  Runner        // overrides the exec runner (tests)
}

// Provider implements the log fetcher, prober, status source and controller
// on top of the docker CLI.
type Provider struct {
	dir     string
	runner  Runner
	timeout time.Duration
	logger  *slog.Logger
}

var (
	_ core.LogFetcher   = (*Provider)(nil)
	_ core.Prober       = (*Provider)(nil)
	_ core.StatusSource = (*Provider)(nil)
	_ core.Controller   = (*Provider)(nil)
)

// New creates a docker provider.
func New(opts Options, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	runner := opts.Runner
	if runner == nil {
		runner = ExecRunner{Binary: opts.Binary}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Provider{
		dir:     opts.Dir,
		runner:  runner,
		timeout: timeout,
		logger:  logger,
	}
}

func (p *Provider) Name() string { return "docker" }

// Dir returns the orchestra directory compose commands run in.
func (p *Provider) Dir() string { return p.dir }

func (p *Provider) run(ctx context.Context, op string, cmd Command) (Output, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	out, err := p.runner.Run(ctx, cmd)
	p.logger.Debug("docker", "op", op, "args", cmd.Args, "took", time.Since(start), "err", err)
	if err != nil {
		return out, classify(ctx, op, cmd.Args, out, err)
	}
	return out, nil
}

// Up starts the given compose profile detached.
func (p *Provider) Up(ctx context.Context, profile string) error {
	_, err := p.run(ctx, "compose up", Command{
		Dir:  p.dir,
		Args: []string{"compose", "--profile", profile, "up", "-d"},
	})
	if err == nil {
		p.logger.Info("services started", "profile", profile, "dir", p.dir)
	}
	return err
}

// Down stops and removes the stack's containers.
func (p *Provider) Down(ctx context.Context) error {
	_, err := p.run(ctx, "compose down", Command{
		Dir:  p.dir,
		Args: []string{"compose", "down"},
	})
	if err == nil {
		p.logger.Info("services stopped", "dir", p.dir)
	}
	return err
}

// ComposePS returns the raw `docker compose ps --format json` output.
func (p *Provider) ComposePS(ctx context.Context) ([]byte, error) {
	out, err := p.run(ctx, "compose ps", Command{
		Dir:  p.dir,
		Args: []string{"compose", "ps", "--format", "json"},
	})
	if err != nil {
		return nil, err
	}
	return out.Stdout, nil
}

// Restart restarts a single container.
func (p *Provider) Restart(ctx context.Context, name string) error {
	_, err := p.run(ctx, "restart "+name, Command{
		Args: []string{"restart", name},
	})
	if err == nil {
		p.logger.Info("service restarted", "service", name)
	}
	return err
}

// Tail returns the last n log lines of a container, both streams merged.
func (p *Provider) Tail(ctx context.Context, name string, n int) ([]string, error) {
	out, err := p.run(ctx, "logs "+name, Command{
		Args:        []string{"logs", name, "--tail", strconv.Itoa(n)},
		MergeStderr: true,
	})
	if err != nil {
		return nil, err
	}
	return splitLines(out.Stdout), nil
}

// Since returns the log lines a container emitted within window.
func (p *Provider) Since(ctx context.Context, name string, window time.Duration) ([]string, error) {
	secs := int64(window / time.Second)
	if secs < 1 {
		secs = 1
	}
	out, err := p.run(ctx, "logs "+name, Command{
		Args:        []string{"logs", name, "--since", fmt.Sprintf("%ds", secs)},
		MergeStderr: true,
	})
	if err != nil {
		return nil, err
	}
	return splitLines(out.Stdout), nil
}

// Logs is Tail wrapped into core.LogLine values.
func (p *Provider) Logs(ctx context.Context, name string, n int) ([]core.LogLine, error) {
	lines, err := p.Tail(ctx, name, n)
	if err != nil {
		return nil, err
	}
	return core.NewLogLines(name, "docker", time.Now().UnixMilli(), lines), nil
}

// Probe reports whether a container whose name matches is running.
func (p *Provider) Probe(ctx context.Context, name string) (bool, error) {
	out, err := p.run(ctx, "check "+name, Command{
		Args: []string{"ps", "-q", "-f", "name=" + name},
	})
	if err != nil {
		return false, err
	}
	return len(bytes.TrimSpace(out.Stdout)) > 0, nil
}
