package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/modoterra/igractl/pkg/config"
	"github.com/modoterra/igractl/pkg/monitor"
	"github.com/modoterra/igractl/pkg/providers/docker"
	"github.com/modoterra/igractl/pkg/providers/logs/journald"
	"github.com/modoterra/igractl/pkg/providers/systemd"
	"github.com/modoterra/igractl/pkg/transport/uds"
	tuimodel "github.com/modoterra/igractl/pkg/tui/model"
)

var (
	configPath string
	socketPath string
	debug      bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "igractl",
	Short:        "Operate an IGRA Orchestra node",
	Long:         "igractl monitors and controls the docker services of an IGRA Orchestra install: block height, sync progress, production rate and service health.",
	SilenceUsage: true,
	RunE:         runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "path to igra.yaml")
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", "", "daemon socket path (default from config)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd)
}

// --- Root: TUI ---

func runTUI(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	app := tuimodel.New(cfg.Socket, cfg.Profile)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// loadConfig reads --config, falling back to defaults when the file is
// missing, and applies --socket.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, err
	}
	if socketPath != "" {
		cfg.Socket = socketPath
	}
	return cfg, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	if debug {
		lvl = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      lvl,
		TimeFormat: time.Kitchen,
	}))
}

// local bundles the collaborators for commands that talk to docker directly.
type local struct {
	cfg     *config.Config
	docker  *docker.Provider
	units   *systemd.Provider
	journal *journald.Provider
	monitor *monitor.Monitor
	logger  *slog.Logger
}

func newLocal() (*local, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.CheckInstalled(); err != nil {
		return nil, err
	}
	logger := newLogger(cfg.LogLevel)

	dp := docker.New(docker.Options{Dir: cfg.Orchestra, Timeout: cfg.CommandTimeout}, logger)
	mon := monitor.New(dp, dp, dp, cfg.MonitorOptions(), logger)
	units := systemd.New(logger)
	if len(cfg.HostUnits) > 0 {
		mon.SetHostProber(units)
	}

	return &local{
		cfg:     cfg,
		docker:  dp,
		units:   units,
		journal: journald.New(cfg.CommandTimeout, logger),
		monitor: mon,
		logger:  logger,
	}, nil
}

func dialDaemon(ctx context.Context, path string) (*uds.Client, error) {
	client, err := uds.Dial(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to daemon at %s: %w", path, err)
	}
	return client, nil
}

func commandContext(cmd *cobra.Command, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, timeout)
}
