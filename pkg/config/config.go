// Package config loads the igra.yaml settings shared by igractl and igrad.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/modoterra/igractl/pkg/core"
	"github.com/modoterra/igractl/pkg/monitor"
)

// DefaultPath is where igractl looks for its config when --config is unset.
const DefaultPath = "igra.yaml"

// DefaultOrchestra is the stock install location of IGRA Orchestra.
const DefaultOrchestra = "/home/kaspa/igra/igra-orchestra-public"

// ErrNotInstalled is returned when the orchestra directory does not exist.
var ErrNotInstalled = errors.New("IGRA Orchestra not found")

// Config represents an igra.yaml file.
type Config struct {
	Version        int           `yaml:"version"         json:"version"`
	Orchestra      string        `yaml:"orchestra"       json:"orchestra"`
	EnvFile        string        `yaml:"env_file"        json:"env_file"`
	Profile        string        `yaml:"profile"         json:"profile"`
	Services       []string      `yaml:"services"        json:"services"`
	BlockBuilder   string        `yaml:"block_builder"   json:"block_builder"`
	SyncSource     string        `yaml:"sync_source"     json:"sync_source"`
	HeightTail     int           `yaml:"height_tail"     json:"height_tail"`
	SyncTail       int           `yaml:"sync_tail"       json:"sync_tail"`
	RateWindow     time.Duration `yaml:"rate_window"     json:"rate_window"`
	StrictSync     bool          `yaml:"strict_sync"     json:"strict_sync"`
	CommandTimeout time.Duration `yaml:"command_timeout" json:"command_timeout"`
	HostUnits      []string      `yaml:"host_units,omitempty" json:"host_units,omitempty"` // systemd units on the host, e.g. kaspad.service
	PollInterval   time.Duration `yaml:"poll_interval"   json:"poll_interval"`
	Socket         string        `yaml:"socket"          json:"socket"`
	HTTPAddr       string        `yaml:"http_addr,omitempty" json:"http_addr,omitempty"`
	LogLevel       string        `yaml:"log_level"       json:"log_level"`

	// FilePath is the file the config was loaded from.
	FilePath string `yaml:"-" json:"-"`
}

// Default returns the configuration for a stock backend install.
func Default() *Config {
	return &Config{
		Version:        1,
		Orchestra:      DefaultOrchestra,
		EnvFile:        "${orchestra}/.env",
		Profile:        "backend",
		Services:       core.KnownServices(),
		BlockBuilder:   core.ServiceBlockBuilder,
		SyncSource:     core.ServiceViaduct,
		HeightTail:     10,
		SyncTail:       20,
		RateWindow:     5 * time.Minute,
		CommandTimeout: 30 * time.Second,
		PollInterval:   5 * time.Second,
		Socket:         "/tmp/igrad.sock",
		HTTPAddr:       "127.0.0.1:9108",
		LogLevel:       "info",
	}
}

// Parse decodes YAML over the defaults and expands ${orchestra}.
func Parse(data []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.interpolate()
	return c, nil
}

// Load reads and parses the config at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, err
	}
	c.FilePath = path
	return c, nil
}

// LoadOrDefault is Load, except a missing file yields Default.
func LoadOrDefault(path string) (*Config, error) {
	c, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		c = Default()
		c.interpolate()
		c.FilePath = path
		return c, nil
	}
	return c, err
}

// Save writes the config as YAML.
func Save(c *Config, path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) interpolate() {
	c.EnvFile = strings.ReplaceAll(c.EnvFile, "${orchestra}", c.Orchestra)
}

// CheckInstalled returns ErrNotInstalled unless the orchestra directory exists.
func (c *Config) CheckInstalled() error {
	info, err := os.Stat(c.Orchestra)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w at %s", ErrNotInstalled, c.Orchestra)
	}
	return nil
}

// MonitorOptions maps the config onto monitor.Options.
func (c *Config) MonitorOptions() monitor.Options {
	return monitor.Options{
		Services:     c.Services,
		HostUnits:    c.HostUnits,
		BlockBuilder: c.BlockBuilder,
		SyncSource:   c.SyncSource,
		HeightTail:   c.HeightTail,
		SyncTail:     c.SyncTail,
		RateWindow:   c.RateWindow,
		StrictSync:   c.StrictSync,
	}
}
