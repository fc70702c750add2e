package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/moby/moby/api/types/container"

	"github.com/modoterra/igractl/pkg/core"
)

// ErrEmptyStatus is returned by ParseComposePS for a blank status blob.
var ErrEmptyStatus = errors.New("empty compose status")

// ComposeEntry is the subset of a `docker compose ps --format json` row we use.
type ComposeEntry struct {
	Name    string `json:"Name"`
	Service string `json:"Service"`
	State   string `json:"State"`
	Status  string `json:"Status"`
	Health  string `json:"Health"`
}

// ParseComposePS decodes compose ps output. Newer compose releases print a
// JSON array, older ones one object per line; both are accepted.
func ParseComposePS(blob []byte) ([]ComposeEntry, error) {
	blob = bytes.TrimSpace(blob)
	if len(blob) == 0 {
		return nil, ErrEmptyStatus
	}

	if blob[0] == '[' {
		var entries []ComposeEntry
		if err := json.Unmarshal(blob, &entries); err != nil {
			return nil, fmt.Errorf("decode compose ps: %w", err)
		}
		return entries, nil
	}

	var entries []ComposeEntry
	dec := json.NewDecoder(bytes.NewReader(blob))
	for {
		var e ComposeEntry
		err := dec.Decode(&e)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode compose ps: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// RecordsFromCompose maps compose entries onto the known service names,
// keeping the order of known. Services with no entry are omitted.
func RecordsFromCompose(entries []ComposeEntry, known []string) []core.ServiceRecord {
	var records []core.ServiceRecord
	for _, name := range known {
		e, ok := findEntry(entries, name)
		if !ok {
			continue
		}
		records = append(records, core.NewServiceRecord(name, mapContainerState(container.ContainerState(strings.ToLower(e.State)))))
	}
	return records
}

func findEntry(entries []ComposeEntry, name string) (ComposeEntry, bool) {
	for _, e := range entries {
		if e.Service == name {
			return e, true
		}
	}
	for _, e := range entries {
		if e.Service == "" && strings.Contains(e.Name, name) {
			return e, true
		}
	}
	return ComposeEntry{}, false
}

func mapContainerState(s container.ContainerState) core.Status {
	switch s {
	case container.StateRunning:
		return core.StatusRunning
	case container.StateExited, container.StateDead:
		return core.StatusExited
	default:
		return core.StatusUnknown
	}
}

// Reconcile derives service records from the compose status blob. When the
// blob cannot be parsed or names none of the known services, each fallback
// name is probed individually instead, producing running/stopped records.
// Probe errors on that path yield unknown records and are joined into err.
func Reconcile(ctx context.Context, primary []byte, known, fallbackNames []string, probe ProbeFunc) ([]core.ServiceRecord, error) {
	if entries, err := ParseComposePS(primary); err == nil {
		if records := RecordsFromCompose(entries, known); len(records) > 0 {
			return records, nil
		}
	}

	records := make([]core.ServiceRecord, 0, len(fallbackNames))
	var errs []error
	for _, name := range fallbackNames {
		running, err := probe(ctx, name)
		if err != nil {
			errs = append(errs, core.ProbeFailure{Name: name, Err: err})
			records = append(records, core.NewServiceRecord(name, core.StatusUnknown))
			continue
		}
		status := core.StatusStopped
		if running {
			status = core.StatusRunning
		}
		records = append(records, core.NewServiceRecord(name, status))
	}
	return records, errors.Join(errs...)
}
