package monitor

import (
	"context"

	"github.com/modoterra/igractl/pkg/core"
)

// ProbeFunc reports whether the named service is running.
type ProbeFunc func(ctx context.Context, name string) (bool, error)

// ProbeWith adapts a core.Prober to a ProbeFunc.
func ProbeWith(p core.Prober) ProbeFunc {
	return p.Probe
}

// AggregateHealth probes every name in order. A failing probe is recorded in
// the failure list and left out of the report; the other probes still run.
func AggregateHealth(ctx context.Context, names []string, probe ProbeFunc) (core.HealthReport, []core.ProbeFailure) {
	report := make(core.HealthReport, 0, len(names))
	var failures []core.ProbeFailure

	for _, name := range names {
		running, err := probe(ctx, name)
		if err != nil {
			failures = append(failures, core.ProbeFailure{Name: name, Err: err})
			continue
		}
		report = append(report, core.ServiceHealth{Name: name, Running: running})
	}
	return report, failures
}
