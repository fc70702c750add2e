package config

import (
	"fmt"
	"path/filepath"
)

// Validate checks the config for structural correctness.
func Validate(c *Config) []error {
	var errs []error

	if c.Version != 1 {
		errs = append(errs, fmt.Errorf("version must be 1, got %d", c.Version))
	}

	if c.Orchestra == "" {
		errs = append(errs, fmt.Errorf("orchestra is required"))
	} else if !filepath.IsAbs(c.Orchestra) {
		errs = append(errs, fmt.Errorf("orchestra must be an absolute path, got %q", c.Orchestra))
	}

	if c.EnvFile == "" {
		errs = append(errs, fmt.Errorf("env_file is required"))
	}
	if c.Profile == "" {
		errs = append(errs, fmt.Errorf("profile is required"))
	}

	if len(c.Services) == 0 {
		errs = append(errs, fmt.Errorf("config must list at least one service"))
	}
	seen := make(map[string]bool)
	for _, s := range c.Services {
		if s == "" {
			errs = append(errs, fmt.Errorf("services: empty service name"))
			continue
		}
		if seen[s] {
			errs = append(errs, fmt.Errorf("services: duplicate service %q", s))
		}
		seen[s] = true
	}
	for _, u := range c.HostUnits {
		if u == "" {
			errs = append(errs, fmt.Errorf("host_units: empty unit name"))
		}
	}

	if c.BlockBuilder == "" {
		errs = append(errs, fmt.Errorf("block_builder is required"))
	}
	if c.SyncSource == "" {
		errs = append(errs, fmt.Errorf("sync_source is required"))
	}
	if c.HeightTail <= 0 {
		errs = append(errs, fmt.Errorf("height_tail must be positive, got %d", c.HeightTail))
	}
	if c.SyncTail <= 0 {
		errs = append(errs, fmt.Errorf("sync_tail must be positive, got %d", c.SyncTail))
	}
	if c.RateWindow <= 0 {
		errs = append(errs, fmt.Errorf("rate_window must be positive"))
	}
	if c.CommandTimeout <= 0 {
		errs = append(errs, fmt.Errorf("command_timeout must be positive"))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll_interval must be positive"))
	}
	if c.Socket == "" {
		errs = append(errs, fmt.Errorf("socket is required"))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level must be debug, info, warn, or error; got %q", c.LogLevel))
	}

	return errs
}
