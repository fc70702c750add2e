package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	startProfile string
	restartUnit  bool
)

func init() {
	startCmd.Flags().StringVar(&startProfile, "profile", "", "compose profile (default from config)")
	restartCmd.Flags().BoolVar(&restartUnit, "unit", false, "restart a host systemd unit instead of a container")

	rootCmd.AddCommand(startCmd, stopCmd, restartCmd)
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the orchestra stack with docker compose",
	RunE: func(cmd *cobra.Command, _ []string) error {
		l, err := newLocal()
		if err != nil {
			return err
		}
		profile := startProfile
		if profile == "" {
			profile = l.cfg.Profile
		}
		if err := l.docker.Up(cmd.Context(), profile); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "started profile %s\n", profile)
		return nil
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the orchestra stack",
	RunE: func(cmd *cobra.Command, _ []string) error {
		l, err := newLocal()
		if err != nil {
			return err
		}
		if err := l.docker.Down(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "stopped")
		return nil
	},
}

var restartCmd = &cobra.Command{
	Use:   "restart <service>",
	Short: "Restart one container or host unit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLocal()
		if err != nil {
			return err
		}
		name := args[0]
		if restartUnit {
			err = l.units.Restart(cmd.Context(), name)
		} else {
			err = l.docker.Restart(cmd.Context(), name)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "restarted %s\n", name)
		return nil
	},
}
