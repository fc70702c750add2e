package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modoterra/igractl/pkg/config"
)

// run executes the root command with args and resets the flags it touches.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() {
		configPath = config.DefaultPath
		socketPath = ""
		initForce = false
		initOrchestra = config.DefaultOrchestra
		statusJSON, statusLocal = false, false
	})
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "igractl dev") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	dir := t.TempDir()
	orchestra := filepath.Join(dir, "orchestra")
	if err := os.Mkdir(orchestra, 0o755); err != nil {
		t.Fatal(err)
	}
	compose := `services:
  execution-layer:
    image: igranetwork/reth
    profiles: [backend]
  block-builder:
    image: igranetwork/block-builder
    profiles: [backend]
  viaduct:
    image: igranetwork/viaduct
    profiles: [backend]
`
	if err := os.WriteFile(filepath.Join(orchestra, "docker-compose.yml"), []byte(compose), 0o644); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(dir, "igra.yaml")

	if _, err := run(t, "--config", cfgPath, "config", "init", "--orchestra", orchestra); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := run(t, "--config", cfgPath, "config", "init"); err == nil {
		t.Error("second init without --force should fail")
	}

	out, err := run(t, "--config", cfgPath, "config", "validate")
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "valid") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestConfigValidateInvalid(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "igra.yaml")
	if err := os.WriteFile(cfgPath, []byte("version: 2\norchestra: relative/path\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "config", "validate", cfgPath)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(out, "version must be 1") || !strings.Contains(out, "absolute path") {
		t.Errorf("missing errors in output:\n%s", out)
	}
}

func TestConfigShowAppliesSocketFlag(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "missing.yaml")
	out, err := run(t, "--config", cfgPath, "--socket", "/run/user/1000/igrad.sock", "config", "show")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "socket: /run/user/1000/igrad.sock") {
		t.Errorf("socket override missing:\n%s", out)
	}
}

func TestEnvShowAndSet(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	env := "# node settings\nNODE_ID=merlin\nHEALTH_CHECK_API_KEY=<your-api-key>\nKASPAD_BORSH_PORT=17110\n"
	if err := os.WriteFile(envPath, []byte(env), 0o600); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(dir, "igra.yaml")
	cfg := "version: 1\norchestra: " + dir + "\nenv_file: ${orchestra}/.env\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "--config", cfgPath, "env", "show")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "HEALTH_CHECK_API_KEY=(unset)") || !strings.Contains(out, "NODE_ID=merlin") {
		t.Errorf("unexpected env output:\n%s", out)
	}

	if _, err := run(t, "--config", cfgPath, "env", "set", "NODE_ID", "arthur"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(envPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "NODE_ID=arthur\n") || !strings.HasPrefix(string(data), "# node settings\n") {
		t.Errorf("unexpected env file:\n%s", data)
	}

	if _, err := run(t, "--config", cfgPath, "env", "set", "NETWORK", "mainnet"); err == nil {
		t.Error("expected error for key without a line in the file")
	}
	if _, err := run(t, "--config", cfgPath, "env", "set", "BOGUS", "x"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestLocalCommandsRequireInstall(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "igra.yaml")
	if err := os.WriteFile(cfgPath, []byte("version: 1\norchestra: /nonexistent/igra\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := run(t, "--config", cfgPath, "height")
	if err == nil || !strings.Contains(err.Error(), config.ErrNotInstalled.Error()) {
		t.Errorf("expected not-installed error, got %v", err)
	}
}
