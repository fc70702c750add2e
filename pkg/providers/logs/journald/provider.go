// Package journald fetches recent journal output for host units.
package journald

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"time"

	"github.com/modoterra/igractl/pkg/core"
)

// ErrNotInstalled is returned when journalctl cannot be found.
var ErrNotInstalled = errors.New("journalctl not found")

// Provider reads unit logs with one-shot journalctl invocations.
type Provider struct {
	binary  string
	timeout time.Duration
	logger  *slog.Logger
}

var _ core.LogFetcher = (*Provider)(nil)

// New creates a journald log fetcher bounded by timeout per call.
func New(timeout time.Duration, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Provider{binary: "journalctl", timeout: timeout, logger: logger}
}

// Tail returns the last n journal lines of unit.
func (p *Provider) Tail(ctx context.Context, unit string, n int) ([]string, error) {
	return p.read(ctx, unit, TailArgs(unit, n))
}

// Since returns the journal lines unit logged within window.
func (p *Provider) Since(ctx context.Context, unit string, window time.Duration) ([]string, error) {
	return p.read(ctx, unit, SinceArgs(unit, window))
}

// Logs is Tail wrapped into core.LogLine values.
func (p *Provider) Logs(ctx context.Context, unit string, n int) ([]core.LogLine, error) {
	lines, err := p.Tail(ctx, unit, n)
	if err != nil {
		return nil, err
	}
	return core.NewLogLines(unit, "journal", time.Now().UnixMilli(), lines), nil
}

// TailArgs builds the journalctl arguments for the last n lines of unit.
func TailArgs(unit string, n int) []string {
	return []string{"-u", unit, "-o", "cat", "--no-pager", "-n", strconv.Itoa(n)}
}

// SinceArgs builds the journalctl arguments for lines newer than window.
func SinceArgs(unit string, window time.Duration) []string {
	secs := int64(window / time.Second)
	if secs < 1 {
		secs = 1
	}
	return []string{"-u", unit, "-o", "cat", "--no-pager", "--since", fmt.Sprintf("-%ds", secs)}
}

func (p *Provider) read(ctx context.Context, unit string, args []string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		switch {
		case errors.Is(err, exec.ErrNotFound):
			return nil, ErrNotInstalled
		case ctx.Err() != nil:
			return nil, fmt.Errorf("journal %s: %w", unit, ctx.Err())
		}
		return nil, fmt.Errorf("journal %s: %v: %s", unit, err, bytes.TrimSpace(stderr.Bytes()))
	}
	p.logger.Debug("journal read", "unit", unit, "bytes", stdout.Len())
	return scanLines(&stdout), nil
}

func scanLines(b *bytes.Buffer) []string {
	var lines []string
	scanner := bufio.NewScanner(b)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
