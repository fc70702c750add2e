package core

import (
	"context"
	"time"
)

// LogFetcher retrieves recent log output from a named source.
type LogFetcher interface {
	// Tail returns the last n lines of the source, oldest first.
	Tail(ctx context.Context, source string, n int) ([]string, error)

	// Since returns every line the source emitted within window, oldest first.
	Since(ctx context.Context, source string, window time.Duration) ([]string, error)
}

// Prober answers whether a named service is currently running.
type Prober interface {
	Probe(ctx context.Context, name string) (bool, error)
}

// StatusSource returns the raw structured status blob of the stack.
type StatusSource interface {
	ComposePS(ctx context.Context) ([]byte, error)
}

// Controller issues lifecycle commands to the container runtime.
type Controller interface {
	Up(ctx context.Context, profile string) error
	Down(ctx context.Context) error
	Restart(ctx context.Context, name string) error
}
