package core

import "fmt"

// Status represents the observed state of a service.
type Status string

const (
	StatusRunning Status = "running"
	StatusExited  Status = "exited"
	StatusStopped Status = "stopped"
	StatusUnknown Status = "unknown"
)

// Well-known IGRA Orchestra services.
const (
	ServiceExecutionLayer = "execution-layer"
	ServiceBlockBuilder   = "block-builder"
	ServiceViaduct        = "viaduct"
)

// KnownServices lists the backend profile services in display order.
func KnownServices() []string {
	return []string{ServiceExecutionLayer, ServiceBlockBuilder, ServiceViaduct}
}

// ServiceRecord is the status of one service at poll time.
type ServiceRecord struct {
	Name    string `json:"name"`
	Running bool   `json:"running"`
	Status  Status `json:"status"`
}

// NewServiceRecord builds a record whose Running flag is derived from status.
func NewServiceRecord(name string, status Status) ServiceRecord {
	switch status {
	case StatusRunning, StatusExited, StatusStopped:
	default:
		status = StatusUnknown
	}
	return ServiceRecord{
		Name:    name,
		Running: status == StatusRunning,
		Status:  status,
	}
}

// ServiceHealth is a single entry of a HealthReport.
type ServiceHealth struct {
	Name    string `json:"name"`
	Running bool   `json:"running"`
}

// HealthReport lists probed services in the order they were requested.
type HealthReport []ServiceHealth

// Lookup returns the running flag for name and whether it was probed.
func (r HealthReport) Lookup(name string) (running, ok bool) {
	for _, h := range r {
		if h.Name == name {
			return h.Running, true
		}
	}
	return false, false
}

// AllRunning reports whether every probed service is running.
// An empty report is not healthy.
func (r HealthReport) AllRunning() bool {
	if len(r) == 0 {
		return false
	}
	for _, h := range r {
		if !h.Running {
			return false
		}
	}
	return true
}

// ProbeFailure records a service whose probe returned an error.
type ProbeFailure struct {
	Name string `json:"name"`
	Err  error  `json:"-"`
}

func (f ProbeFailure) Error() string {
	return fmt.Sprintf("probe %s: %v", f.Name, f.Err)
}

func (f ProbeFailure) Unwrap() error { return f.Err }
