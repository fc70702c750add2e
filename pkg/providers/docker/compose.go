package docker

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"
)

// ComposeFileName is the compose file shipped with IGRA Orchestra.
const ComposeFileName = "docker-compose.yml"

// ComposeFile represents a minimal Docker Compose file.
type ComposeFile struct {
	Services map[string]ComposeService `yaml:"services"`
}

// ComposeService is a minimal service definition from a compose file.
type ComposeService struct {
	Image         string   `yaml:"image"`
	ContainerName string   `yaml:"container_name"`
	Profiles      []string `yaml:"profiles"`
}

// ParseComposeFile reads a compose file and returns service definitions.
func ParseComposeFile(path string) (*ComposeFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read compose file: %w", err)
	}

	var cf ComposeFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse compose file: %w", err)
	}
	return &cf, nil
}

// LoadCompose parses the compose file in the orchestra directory.
func LoadCompose(dir string) (*ComposeFile, error) {
	return ParseComposeFile(filepath.Join(dir, ComposeFileName))
}

// ServiceNames returns the sorted service names in the compose file.
func (cf *ComposeFile) ServiceNames() []string {
	names := make([]string, 0, len(cf.Services))
	for name := range cf.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ProfileServices returns the sorted services started by `--profile profile`:
// those listing the profile plus those with no profiles at all.
func (cf *ComposeFile) ProfileServices(profile string) []string {
	var names []string
	for name, svc := range cf.Services {
		if len(svc.Profiles) == 0 || slices.Contains(svc.Profiles, profile) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Missing returns the names not defined as services, in input order.
func (cf *ComposeFile) Missing(names []string) []string {
	var missing []string
	for _, name := range names {
		if _, ok := cf.Services[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
