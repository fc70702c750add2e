package main

import (
	"fmt"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/modoterra/igractl/internal/buildinfo"
	"github.com/modoterra/igractl/pkg/daemon/service"
	"github.com/modoterra/igractl/pkg/transport/uds"
)

func init() {
	daemonInstallCmd.Flags().StringVar(&daemonBinary, "binary", "", "igrad binary (default: igrad from PATH)")
	daemonCmd.AddCommand(daemonInstallCmd, daemonUninstallCmd, daemonStatusCmd)

	rootCmd.AddCommand(pingCmd, daemonCmd)
}

// --- Ping ---

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check if the daemon is running",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd, requestTimeout)
		defer cancel()

		client, err := dialDaemon(ctx, cfg.Socket)
		if err != nil {
			return err
		}
		defer client.Close()

		var pong uds.PingResponse
		if err := client.Call(ctx, uds.MethodPing, nil, &pong); err != nil {
			return err
		}
		if pong.Pong {
			fmt.Fprintf(cmd.OutOrStdout(), "pong ✓ (igrad %s)\n", pong.Version)
		}
		return nil
	},
}

// --- Version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "igractl %s\n", buildinfo.String())
	},
}

// --- Daemon ---

var daemonBinary string

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Manage the igrad systemd user service",
}

var daemonInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install and start igrad as a systemd user service",
	RunE: func(cmd *cobra.Command, _ []string) error {
		bin := daemonBinary
		if bin == "" {
			found, err := exec.LookPath("igrad")
			if err != nil {
				return fmt.Errorf("igrad not found in PATH: %w", err)
			}
			bin = found
		}
		m, err := service.NewManager()
		if err != nil {
			return err
		}
		if err := m.Install(cmd.Context(), bin, configPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "installed %s\n", m.UnitPath())
		return nil
	},
}

var daemonUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Stop and remove the igrad user service",
	RunE: func(cmd *cobra.Command, _ []string) error {
		m, err := service.NewManager()
		if err != nil {
			return err
		}
		if err := m.Uninstall(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "uninstalled")
		return nil
	},
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon socket and service state",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		m, err := service.NewManager()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), m.Status(cmd.Context(), cfg.Socket))
		return nil
	},
}
