// Package envfile reads and rewrites the IGRA Orchestra .env file.
package envfile

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Recognized keys.
const (
	KeyNodeID       = "NODE_ID"
	KeyHealthAPIKey = "HEALTH_CHECK_API_KEY"
	KeyKaspadHost   = "KASPAD_HOST"
	KeyKaspadPort   = "KASPAD_BORSH_PORT"
	KeyNetwork      = "NETWORK"
)

// UnsetAPIKey is the placeholder shipped in the orchestra's example env.
const UnsetAPIKey = "<your-api-key>"

// Env holds the settings this tool manages.
type Env struct {
	NodeName     string `json:"node_name"`
	HealthAPIKey string `json:"health_api_key,omitempty"` // empty when unset
	KaspadHost   string `json:"kaspad_host"`
	KaspadPort   uint16 `json:"kaspad_port"`
	Network      string `json:"network"`
}

// Default returns the values used when a key is absent.
func Default() Env {
	return Env{
		NodeName:   "merlin",
		KaspadHost: "host.docker.internal",
		KaspadPort: 17110,
		Network:    "testnet",
	}
}

// HasAPIKey reports whether a health check API key is configured.
func (e Env) HasAPIKey() bool { return e.HealthAPIKey != "" }

// Load reads path and overlays recognized keys onto Default.
func Load(path string) (Env, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Env{}, fmt.Errorf("read env file: %w", err)
	}
	return Parse(string(data))
}

// Parse decodes .env content. Lines that are not KEY=value pairs are
// skipped, an unparsable port keeps the default and the API key placeholder
// counts as unset.
func Parse(content string) (Env, error) {
	vals, err := unmarshal(content)
	if err != nil {
		return Env{}, fmt.Errorf("parse env file: %w", err)
	}

	env := Default()
	if v, ok := vals[KeyNodeID]; ok {
		env.NodeName = strings.TrimSpace(v)
	}
	if v := strings.TrimSpace(vals[KeyHealthAPIKey]); v != "" && v != UnsetAPIKey {
		env.HealthAPIKey = v
	}
	if v, ok := vals[KeyKaspadHost]; ok {
		env.KaspadHost = strings.TrimSpace(v)
	}
	if v, ok := vals[KeyKaspadPort]; ok {
		if port, err := strconv.ParseUint(strings.TrimSpace(v), 10, 16); err == nil {
			env.KaspadPort = uint16(port)
		}
	}
	if v, ok := vals[KeyNetwork]; ok {
		env.Network = strings.TrimSpace(v)
	}
	return env, nil
}

// unmarshal drops lines without '=' before handing the content to godotenv.
// If the rest still does not parse, each line is decoded on its own and the
// ones godotenv rejects are skipped.
func unmarshal(content string) (map[string]string, error) {
	var kept []string
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || !strings.Contains(trimmed, "=") {
			continue
		}
		kept = append(kept, line)
	}

	vals, err := godotenv.Unmarshal(strings.Join(kept, "\n"))
	if err == nil {
		return vals, nil
	}

	vals = make(map[string]string, len(kept))
	for _, line := range kept {
		one, lerr := godotenv.Unmarshal(line)
		if lerr != nil {
			continue
		}
		for k, v := range one {
			vals[k] = v
		}
	}
	return vals, nil
}

// Values returns the env as key=value pairs.
func (e Env) Values() map[string]string {
	return map[string]string{
		KeyNodeID:       e.NodeName,
		KeyHealthAPIKey: e.HealthAPIKey,
		KeyKaspadHost:   e.KaspadHost,
		KeyKaspadPort:   strconv.FormatUint(uint64(e.KaspadPort), 10),
		KeyNetwork:      e.Network,
	}
}

// Rewrite replaces the value of every line starting with a recognized
// "KEY=". Other lines, including comments, pass through in order.
func Rewrite(content string, e Env) string {
	vals := e.Values()
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		key, _, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		if v, ok := vals[key]; ok {
			lines[i] = key + "=" + v
		}
	}
	return strings.Join(lines, "\n")
}

// Save rewrites the recognized keys of the existing file at path.
func Save(path string, e Env) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("read env file: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read env file: %w", err)
	}
	if err := os.WriteFile(path, []byte(Rewrite(string(data), e)), info.Mode().Perm()); err != nil {
		return fmt.Errorf("write env file: %w", err)
	}
	return nil
}

// Set assigns a recognized key by name.
func (e *Env) Set(key, value string) error {
	switch key {
	case KeyNodeID:
		e.NodeName = value
	case KeyHealthAPIKey:
		if value == UnsetAPIKey {
			value = ""
		}
		e.HealthAPIKey = value
	case KeyKaspadHost:
		e.KaspadHost = value
	case KeyKaspadPort:
		port, err := strconv.ParseUint(value, 10, 16)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", KeyKaspadPort, value, err)
		}
		e.KaspadPort = uint16(port)
	case KeyNetwork:
		e.Network = value
	default:
		return fmt.Errorf("unknown key %q", key)
	}
	return nil
}
