package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"logicmate/internal/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.toml")

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.Detection.InputSize != 640 {
		t.Fatalf("default input size = %d, want 640", cfg.Detection.InputSize)
	}
	if cfg.Detection.CodeThreshold != 3 || cfg.Detection.DiagramThreshold != 3 {
		t.Fatalf("default thresholds = %d/%d, want 3/3",
			cfg.Detection.CodeThreshold, cfg.Detection.DiagramThreshold)
	}
	if cfg.Training.Weights != "yolov8s.pt" {
		t.Fatalf("default weights = %q", cfg.Training.Weights)
	}
}

func TestLoadParsesAndExpandsPaths(t *testing.T) {
	base := t.TempDir()
	path := writeConfig(t, `
[paths]
models_dir = "`+base+`/models"
datasets_dir = "~/lm-datasets"

[detection]
code_threshold = 5
device = "CPU"

[training]
epochs = 10
`)

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if cfg.Paths.ModelsDir != filepath.Join(base, "models") {
		t.Fatalf("models dir = %q", cfg.Paths.ModelsDir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("UserHomeDir: %v", err)
	}
	if cfg.Paths.DatasetsDir != filepath.Join(home, "lm-datasets") {
		t.Fatalf("datasets dir = %q, want tilde expanded", cfg.Paths.DatasetsDir)
	}
	if cfg.Detection.CodeThreshold != 5 {
		t.Fatalf("code threshold = %d, want 5", cfg.Detection.CodeThreshold)
	}
	if cfg.Detection.Device != "cpu" {
		t.Fatalf("device = %q, want lowercased cpu", cfg.Detection.Device)
	}
	if cfg.Training.Epochs != 10 {
		t.Fatalf("epochs = %d, want 10", cfg.Training.Epochs)
	}
	// Untouched sections keep their defaults.
	if cfg.Training.Batch != 16 {
		t.Fatalf("batch = %d, want default 16", cfg.Training.Batch)
	}
}

func TestLoadAPIKeyEnvironmentOverride(t *testing.T) {
	path := writeConfig(t, `
[provider]
api_key = "from-file"
workspace = "acme"
project = "screens"
version = 2
`)

	t.Setenv("LOGICMATE_API_KEY", "from-env")
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider.APIKey != "from-env" {
		t.Fatalf("api key = %q, want environment value", cfg.Provider.APIKey)
	}
}

func TestLoadFallbackAPIKeyEnvironment(t *testing.T) {
	path := writeConfig(t, `
[provider]
workspace = "acme"
project = "screens"
version = 2
`)

	t.Setenv("LOGICMATE_API_KEY", "")
	t.Setenv("ROBOFLOW_API_KEY", "fallback-key")
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider.APIKey != "fallback-key" {
		t.Fatalf("api key = %q, want fallback environment value", cfg.Provider.APIKey)
	}
}

func TestLoadRejectsProjectWithoutAPIKey(t *testing.T) {
	path := writeConfig(t, `
[provider]
workspace = "acme"
project = "screens"
version = 2
`)

	t.Setenv("LOGICMATE_API_KEY", "")
	t.Setenv("ROBOFLOW_API_KEY", "")
	_, _, _, err := config.Load(path)
	if err == nil {
		t.Fatal("expected validation error when project set without api key")
	}
	if !strings.Contains(err.Error(), "provider.api_key") {
		t.Fatalf("error should name provider.api_key, got %v", err)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"score out of range": `
[detection]
score_threshold = 1.5
`,
		"bad device": `
[detection]
device = "tpu"
`,
		"negative momentum": `
[training]
momentum = -0.5
`,
	}
	for name, contents := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeConfig(t, contents)
			if _, _, _, err := config.Load(path); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ModelsDir = filepath.Join(base, "m")
	cfg.Paths.DatasetsDir = filepath.Join(base, "d")
	cfg.Paths.OutputDir = filepath.Join(base, "o")
	cfg.Paths.LogDir = filepath.Join(base, "l")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.ModelsDir, cfg.Paths.DatasetsDir, cfg.Paths.OutputDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
	// Running twice is fine.
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("second EnsureDirectories: %v", err)
	}
}

func TestWeightsPathAndSubjectThreshold(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.ModelsDir = "/srv/models"
	cfg.Training.Weights = "base.pt"
	if got := cfg.WeightsPath(); got != filepath.Join("/srv/models", "base.pt") {
		t.Fatalf("WeightsPath = %q", got)
	}

	cfg.Detection.CodeThreshold = 4
	cfg.Detection.DiagramThreshold = 7
	if got := cfg.SubjectThreshold("diagram"); got != 7 {
		t.Fatalf("diagram threshold = %d", got)
	}
	if got := cfg.SubjectThreshold("code"); got != 4 {
		t.Fatalf("code threshold = %d", got)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("sample config should load cleanly, exists=%v err=%v", exists, err)
	}
}
