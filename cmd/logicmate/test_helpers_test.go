package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"logicmate/internal/config"
	"logicmate/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := testsupport.NewConfig(t, opts...)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	configPath := filepath.Join(home, ".config", "logicmate", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()

	var b strings.Builder
	fmt.Fprintf(&b, "[paths]\n")
	fmt.Fprintf(&b, "models_dir = %q\n", cfg.Paths.ModelsDir)
	fmt.Fprintf(&b, "datasets_dir = %q\n", cfg.Paths.DatasetsDir)
	fmt.Fprintf(&b, "output_dir = %q\n", cfg.Paths.OutputDir)
	fmt.Fprintf(&b, "log_dir = %q\n", cfg.Paths.LogDir)
	if cfg.Provider.Project != "" {
		fmt.Fprintf(&b, "\n[provider]\n")
		fmt.Fprintf(&b, "api_key = %q\n", cfg.Provider.APIKey)
		fmt.Fprintf(&b, "workspace = %q\n", cfg.Provider.Workspace)
		fmt.Fprintf(&b, "project = %q\n", cfg.Provider.Project)
		fmt.Fprintf(&b, "version = %d\n", cfg.Provider.Version)
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
