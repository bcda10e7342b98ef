package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration for the workspace.
type Paths struct {
	ModelsDir   string `toml:"models_dir"`
	DatasetsDir string `toml:"datasets_dir"`
	OutputDir   string `toml:"output_dir"`
	LogDir      string `toml:"log_dir"`
}

// Provider contains configuration for the dataset hosting service API.
type Provider struct {
	BaseURL         string `toml:"base_url"`
	APIKey          string `toml:"api_key"`
	Workspace       string `toml:"workspace"`
	Project         string `toml:"project"`
	Version         int    `toml:"version"`
	Format          string `toml:"format"`
	DownloadTimeout int    `toml:"download_timeout"`
}

// Detection contains configuration for model inference and image filtering.
type Detection struct {
	InputSize        int     `toml:"input_size"`
	ScoreThreshold   float64 `toml:"score_threshold"`
	NMSThreshold     float64 `toml:"nms_threshold"`
	Device           string  `toml:"device"`
	CodeThreshold    int     `toml:"code_threshold"`
	DiagramThreshold int     `toml:"diagram_threshold"`
	CodeLabel        string  `toml:"code_label"`
	DiagramLabel     string  `toml:"diagram_label"`
}

// Training contains configuration for fine-tuning runs.
//
// The pointer-typed hyperparameters are deliberate: a nil value means "not
// configured" and the argument is omitted from the trainer invocation so the
// external tool applies its own default.
type Training struct {
	Epochs       int    `toml:"epochs"`
	Batch        int    `toml:"batch"`
	ImageSize    int    `toml:"image_size"`
	Optimizer    string `toml:"optimizer"`
	Device       string `toml:"device"`
	Weights      string `toml:"weights"`
	WeightsURL   string `toml:"weights_url"`
	TrainTimeout int    `toml:"train_timeout"`

	Patience     *int     `toml:"patience"`
	WeightDecay  *float64 `toml:"weight_decay"`
	Momentum     *float64 `toml:"momentum"`
	WarmupEpochs *float64 `toml:"warmup_epochs"`
	Mixup        *float64 `toml:"mixup"`
	Mosaic       *float64 `toml:"mosaic"`
	CopyPaste    *float64 `toml:"copy_paste"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for LogicMate.
//
// Configuration sections by subsystem:
//   - Paths: workspace directories (models, datasets, filter output, logs)
//   - Provider: dataset hosting service credentials and project coordinates
//   - Detection: inference tuning and per-subject filter thresholds
//   - Training: fine-tuning parameters passed to the external trainer
//   - Logging: log format, level, and retention
type Config struct {
	Paths     Paths     `toml:"paths"`
	Provider  Provider  `toml:"provider"`
	Detection Detection `toml:"detection"`
	Training  Training  `toml:"training"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/logicmate/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/logicmate/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("logicmate.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required workspace directories. "Already exists"
// is success; any other failure propagates so callers never run against a
// half-created workspace.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.ModelsDir, c.Paths.DatasetsDir, c.Paths.OutputDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// TrainerBinary returns the external trainer executable name.
func (c *Config) TrainerBinary() string {
	return "yolo"
}

// WeightsPath returns the absolute path of the base model weights file.
func (c *Config) WeightsPath() string {
	return filepath.Join(c.Paths.ModelsDir, c.Training.Weights)
}

// SubjectThreshold returns the detection-count threshold for a subject label.
// Unknown labels fall back to the code threshold; callers validate subjects
// before reaching here.
func (c *Config) SubjectThreshold(subject string) int {
	if subject == "diagram" {
		return c.Detection.DiagramThreshold
	}
	return c.Detection.CodeThreshold
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
