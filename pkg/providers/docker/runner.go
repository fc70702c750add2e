package docker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
)

var (
	// ErrTimeout is returned when a docker command exceeds the call timeout.
	ErrTimeout = errors.New("docker command timed out")

	// ErrNotInstalled is returned when the docker binary cannot be found.
	ErrNotInstalled = errors.New("docker binary not found")
)

// CommandError is a docker invocation that exited non-zero.
type CommandError struct {
	Op     string
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s failed: %s", e.Op, e.Stderr)
}

func (e *CommandError) Unwrap() error { return e.Err }

// Command is one docker invocation.
type Command struct {
	Dir         string
	Args        []string
	MergeStderr bool // write stderr into Stdout, like 2>&1
}

// Output holds the captured streams of a Command.
type Output struct {
	Stdout []byte
	Stderr []byte
}

// Runner executes docker commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Output, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, cmd Command) (Output, error)

func (f RunnerFunc) Run(ctx context.Context, cmd Command) (Output, error) { return f(ctx, cmd) }

// ExecRunner runs the docker binary as a child process.
type ExecRunner struct {
	Binary string
}

func (r ExecRunner) Run(ctx context.Context, c Command) (Output, error) {
	bin := r.Binary
	if bin == "" {
		bin = "docker"
	}
	cmd := exec.CommandContext(ctx, bin, c.Args...)
	cmd.Dir = c.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	if c.MergeStderr {
		cmd.Stderr = &stdout
	} else {
		cmd.Stderr = &stderr
	}

	err := cmd.Run()
	return Output{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, err
}

// classify turns a runner error into ErrTimeout, ErrNotInstalled or a
// CommandError.
func classify(ctx context.Context, op string, args []string, out Output, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, ErrTimeout)
	case ctx.Err() != nil:
		return fmt.Errorf("%s: %w", op, ctx.Err())
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%s: %w", op, ErrNotInstalled)
	}
	stderr := out.Stderr
	if len(stderr) == 0 {
		stderr = out.Stdout
	}
	return &CommandError{
		Op:     op,
		Args:   args,
		Stderr: strings.TrimSpace(string(stderr)),
		Err:    err,
	}
}
