package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/modoterra/igractl/pkg/core"
	"github.com/modoterra/igractl/pkg/monitor"
	"github.com/modoterra/igractl/pkg/transport/uds"
)

const requestTimeout = 5 * time.Second

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
	statusCmd.Flags().BoolVar(&statusLocal, "local", false, "check directly instead of asking the daemon")
	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 50, "number of lines")
	logsCmd.Flags().BoolVar(&logsUnit, "unit", false, "read a host systemd unit from the journal")

	rootCmd.AddCommand(statusCmd, servicesCmd, healthCmd, heightCmd, syncCmd, rateCmd, logsCmd)
}

// --- Status ---

var (
	statusJSON  bool
	statusLocal bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the full node report",
	Long:  "Asks igrad for its last report; runs the checks locally when the daemon is not reachable.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		r, err := fetchReport(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if statusJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(r)
		}
		printReport(out, r)
		return nil
	},
}

func fetchReport(cmd *cobra.Command) (monitor.Report, error) {
	cfg, err := loadConfig()
	if err != nil {
		return monitor.Report{}, err
	}
	if !statusLocal {
		ctx, cancel := commandContext(cmd, requestTimeout)
		defer cancel()
		if r, err := daemonReport(ctx, cfg.Socket); err == nil {
			return r, nil
		}
	}

	l, err := newLocal()
	if err != nil {
		return monitor.Report{}, err
	}
	return l.monitor.Check(cmd.Context()), nil
}

func daemonReport(ctx context.Context, socket string) (monitor.Report, error) {
	client, err := dialDaemon(ctx, socket)
	if err != nil {
		return monitor.Report{}, err
	}
	defer client.Close()

	var r monitor.Report
	err = client.Call(ctx, uds.MethodStatus, nil, &r)
	return r, err
}

func printReport(w io.Writer, r monitor.Report) {
	if r.BlockHeightKnown {
		fmt.Fprintf(w, "Block height:  %d\n", r.BlockHeight)
	} else {
		fmt.Fprintln(w, "Block height:  unknown")
	}
	fmt.Fprintf(w, "Sync:          %s\n", formatSync(r.Sync))
	fmt.Fprintf(w, "Rate:          %.2f blocks/min\n", r.BlocksPerMinute)
	if r.Healthy() {
		fmt.Fprintln(w, "Health:        all services running")
	} else {
		fmt.Fprintln(w, "Health:        degraded")
	}
	fmt.Fprintln(w)
	printServices(w, r.Services)
	for _, e := range r.Errors {
		fmt.Fprintf(w, "warning: %s\n", e)
	}
}

func formatSync(s monitor.SyncStatus) string {
	out := fmt.Sprintf("%.2f%%", s.Percent)
	if !s.Known {
		out += " (not reported)"
	}
	return out
}

func printServices(w io.Writer, services []core.ServiceRecord) {
	if len(services) == 0 {
		fmt.Fprintln(w, "no services")
		return
	}
	fmt.Fprintf(w, "%-20s %-8s %s\n", "SERVICE", "RUNNING", "STATUS")
	for _, s := range services {
		fmt.Fprintf(w, "%-20s %-8t %s\n", s.Name, s.Running, s.Status)
	}
}

// --- Services ---

var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "List compose services and host units with their status",
	RunE: func(cmd *cobra.Command, _ []string) error {
		l, err := newLocal()
		if err != nil {
			return err
		}
		records, err := l.monitor.Services(cmd.Context())
		if len(l.cfg.HostUnits) > 0 {
			units, uerr := l.units.Records(cmd.Context(), l.cfg.HostUnits)
			records = append(records, units...)
			err = errors.Join(err, uerr)
		}
		printServices(cmd.OutOrStdout(), records)
		return err
	},
}

// --- Health ---

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe every service and report which are running",
	RunE: func(cmd *cobra.Command, _ []string) error {
		l, err := newLocal()
		if err != nil {
			return err
		}
		report, failures := l.monitor.Health(cmd.Context())
		out := cmd.OutOrStdout()
		for _, h := range report {
			mark := "down"
			if h.Running {
				mark = "up"
			}
			fmt.Fprintf(out, "%-20s %s\n", h.Name, mark)
		}
		for _, f := range failures {
			fmt.Fprintf(out, "%-20s unreachable: %v\n", f.Name, f.Err)
		}
		if len(failures) > 0 || !report.AllRunning() {
			return errors.New("not all services are running")
		}
		return nil
	},
}

// --- Height / Sync / Rate ---

var heightCmd = &cobra.Command{
	Use:   "height",
	Short: "Print the latest block built by block-builder",
	RunE: func(cmd *cobra.Command, _ []string) error {
		l, err := newLocal()
		if err != nil {
			return err
		}
		h, err := l.monitor.BlockHeight(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), h)
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Print the sync percentage",
	RunE: func(cmd *cobra.Command, _ []string) error {
		l, err := newLocal()
		if err != nil {
			return err
		}
		s, err := l.monitor.SyncStatus(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), formatSync(s))
		return nil
	},
}

var rateCmd = &cobra.Command{
	Use:   "rate",
	Short: "Print blocks built per minute over the rate window",
	RunE: func(cmd *cobra.Command, _ []string) error {
		l, err := newLocal()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%.2f blocks/min over %s\n",
			l.monitor.ProductionRate(cmd.Context()), l.monitor.Options().RateWindow)
		return nil
	},
}

// --- Logs ---

var (
	logsTail int
	logsUnit bool
)

var logsCmd = &cobra.Command{
	Use:   "logs <service>",
	Short: "Print the last lines of a service's logs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLocal()
		if err != nil {
			return err
		}
		var lines []core.LogLine
		if logsUnit {
			lines, err = l.journal.Logs(cmd.Context(), args[0], logsTail)
		} else {
			lines, err = l.docker.Logs(cmd.Context(), args[0], logsTail)
		}
		if err != nil {
			return err
		}
		var b strings.Builder
		for _, line := range lines {
			b.WriteString(line.Line)
			b.WriteByte('\n')
		}
		_, err = io.WriteString(cmd.OutOrStdout(), b.String())
		return err
	},
}
