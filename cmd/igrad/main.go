package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/modoterra/igractl/internal/buildinfo"
	"github.com/modoterra/igractl/pkg/config"
	"github.com/modoterra/igractl/pkg/daemon"
	"github.com/modoterra/igractl/pkg/metrics"
	"github.com/modoterra/igractl/pkg/monitor"
	"github.com/modoterra/igractl/pkg/providers/docker"
	"github.com/modoterra/igractl/pkg/providers/logs/journald"
	"github.com/modoterra/igractl/pkg/providers/systemd"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("igrad %s\n", buildinfo.String())
		return
	}

	configPath := flag.String("config", config.DefaultPath, "path to igra.yaml")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	}))
	slog.SetDefault(logger)

	if errs := config.Validate(cfg); len(errs) > 0 {
		for _, e := range errs {
			logger.Error("invalid config", "path", cfg.FilePath, "err", e)
		}
		os.Exit(1)
	}
	if err := cfg.CheckInstalled(); err != nil {
		// The orchestra may be installed later; checks report docker errors meanwhile.
		logger.Warn("orchestra directory missing", "err", err)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("daemon error", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dp := docker.New(docker.Options{Dir: cfg.Orchestra, Timeout: cfg.CommandTimeout}, logger)
	mon := monitor.New(dp, dp, dp, cfg.MonitorOptions(), logger)
	if len(cfg.HostUnits) > 0 {
		mon.SetHostProber(systemd.New(logger))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	d := daemon.New(cfg.Socket, mon, dp, logger)
	d.SetLogSources(dp, journald.New(cfg.CommandTimeout, logger))
	d.SetMetrics(metrics.New(reg))
	d.SetDefaultProfile(cfg.Profile)
	d.SetVersion(buildinfo.Version)
	defer d.Shutdown()

	if cfg.HTTPAddr != "" {
		hs := daemon.NewHTTPServer(cfg.HTTPAddr, d, reg)
		go func() {
			logger.Info("http listening", "addr", cfg.HTTPAddr)
			if err := hs.Start(); err != nil {
				logger.Error("http server", "err", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := hs.Stop(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
				logger.Warn("http shutdown", "err", err)
			}
		}()
	}

	go daemon.NewPollLoop(d, cfg.PollInterval, logger).Run(ctx)

	logger.Info("starting igrad",
		"version", buildinfo.Version,
		"orchestra", cfg.Orchestra,
		"socket", cfg.Socket,
		"poll", cfg.PollInterval,
	)
	err := d.Run(ctx)
	logger.Info("shutting down")
	return err
}
