// Package service installs igrad as a systemd user service.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// UnitName is the file name of the installed unit.
const UnitName = "igrad.service"

// UnitContents returns the unit file for binaryPath. configPath is passed
// with --config when non-empty.
func UnitContents(binaryPath, configPath string) string {
	execStart := binaryPath
	if configPath != "" {
		execStart += " --config " + configPath
	}
	return fmt.Sprintf(`[Unit]
Description=IGRA Orchestra status daemon
After=network-online.target docker.service

[Service]
Type=simple
ExecStart=%s
Restart=on-failure
RestartSec=5

[Install]
WantedBy=default.target
`, execStart)
}

// Systemctl runs "systemctl --user" with args.
type Systemctl func(ctx context.Context, args ...string) ([]byte, error)

func runSystemctl(ctx context.Context, args ...string) ([]byte, error) {
	full := append([]string{"--user"}, args...)
	out, err := exec.CommandContext(ctx, "systemctl", full...).CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("systemctl %s: %w: %s", strings.Join(full, " "), err, strings.TrimSpace(string(out)))
	}
	return out, nil
}

// Manager installs and removes the unit file.
type Manager struct {
	// UnitDir defaults to $XDG_CONFIG_HOME/systemd/user.
	UnitDir   string
	Systemctl Systemctl
}

// NewManager returns a manager for the current user.
func NewManager() (*Manager, error) {
	dir, err := userUnitDir()
	if err != nil {
		return nil, err
	}
	return &Manager{UnitDir: dir, Systemctl: runSystemctl}, nil
}

func userUnitDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine user config directory: %w", err)
	}
	return filepath.Join(configDir, "systemd", "user"), nil
}

// UnitPath returns the path of the unit file.
func (m *Manager) UnitPath() string {
	return filepath.Join(m.UnitDir, UnitName)
}

// Install writes the unit file, reloads systemd and enables the service.
func (m *Manager) Install(ctx context.Context, binaryPath, configPath string) error {
	bin, err := filepath.Abs(binaryPath)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", binaryPath, err)
	}
	if configPath != "" {
		if configPath, err = filepath.Abs(configPath); err != nil {
			return fmt.Errorf("resolve %s: %w", configPath, err)
		}
	}

	if err := os.MkdirAll(m.UnitDir, 0o755); err != nil {
		return fmt.Errorf("create unit dir: %w", err)
	}
	if err := os.WriteFile(m.UnitPath(), []byte(UnitContents(bin, configPath)), 0o644); err != nil {
		return fmt.Errorf("write unit file: %w", err)
	}

	if _, err := m.Systemctl(ctx, "daemon-reload"); err != nil {
		return err
	}
	_, err = m.Systemctl(ctx, "enable", "--now", UnitName)
	return err
}

// Uninstall stops and disables the service and removes the unit file.
func (m *Manager) Uninstall(ctx context.Context) error {
	// The unit may already be stopped or disabled.
	_, _ = m.Systemctl(ctx, "disable", "--now", UnitName)

	if err := os.Remove(m.UnitPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove unit file: %w", err)
	}
	_, err := m.Systemctl(ctx, "daemon-reload")
	return err
}

// Status describes the socket and the unit state, one fact per line.
func (m *Manager) Status(ctx context.Context, socketPath string) string {
	var lines []string

	if _, err := os.Stat(socketPath); err == nil {
		lines = append(lines, "socket: active ("+socketPath+")")
	} else {
		lines = append(lines, "socket: inactive ("+socketPath+")")
	}

	if _, err := os.Stat(m.UnitPath()); err != nil {
		lines = append(lines, "systemd user service: not installed")
		return strings.Join(lines, "\n")
	}

	// is-active exits non-zero for every state but active.
	out, _ := m.Systemctl(ctx, "is-active", UnitName)
	state := strings.TrimSpace(string(out))
	if i := strings.IndexByte(state, '\n'); i >= 0 {
		state = state[:i]
	}
	if state == "" {
		state = "unknown"
	}
	lines = append(lines, "systemd user service: "+state)
	return strings.Join(lines, "\n")
}
