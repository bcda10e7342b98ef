package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeProvider(); err != nil {
		return err
	}
	c.normalizeDetection()
	c.normalizeTraining()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.ModelsDir) == "" {
		c.Paths.ModelsDir = defaultModelsDir
	}
	if c.Paths.ModelsDir, err = expandPath(c.Paths.ModelsDir); err != nil {
		return fmt.Errorf("paths.models_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DatasetsDir) == "" {
		c.Paths.DatasetsDir = defaultDatasetsDir
	}
	if c.Paths.DatasetsDir, err = expandPath(c.Paths.DatasetsDir); err != nil {
		return fmt.Errorf("paths.datasets_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeProvider() error {
	c.Provider.APIKey = strings.TrimSpace(c.Provider.APIKey)
	// Environment wins over the config file so keys stay out of dotfiles.
	if value, ok := os.LookupEnv("LOGICMATE_API_KEY"); ok && strings.TrimSpace(value) != "" {
		c.Provider.APIKey = strings.TrimSpace(value)
	} else if value, ok := os.LookupEnv("ROBOFLOW_API_KEY"); ok && strings.TrimSpace(value) != "" {
		c.Provider.APIKey = strings.TrimSpace(value)
	}
	c.Provider.BaseURL = strings.TrimRight(strings.TrimSpace(c.Provider.BaseURL), "/")
	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = defaultProviderBaseURL
	}
	c.Provider.Workspace = strings.TrimSpace(c.Provider.Workspace)
	c.Provider.Project = strings.TrimSpace(c.Provider.Project)
	c.Provider.Format = strings.ToLower(strings.TrimSpace(c.Provider.Format))
	if c.Provider.Format == "" {
		c.Provider.Format = defaultProviderFormat
	}
	if c.Provider.DownloadTimeout <= 0 {
		c.Provider.DownloadTimeout = defaultProviderDownloadTimeout
	}
	return nil
}

func (c *Config) normalizeDetection() {
	if c.Detection.InputSize <= 0 {
		c.Detection.InputSize = defaultDetectionInputSize
	}
	if c.Detection.ScoreThreshold <= 0 {
		c.Detection.ScoreThreshold = defaultDetectionScoreThreshold
	}
	if c.Detection.NMSThreshold <= 0 {
		c.Detection.NMSThreshold = defaultDetectionNMSThreshold
	}
	c.Detection.Device = strings.ToLower(strings.TrimSpace(c.Detection.Device))
	if c.Detection.Device == "" {
		c.Detection.Device = defaultDetectionDevice
	}
	if c.Detection.CodeThreshold <= 0 {
		c.Detection.CodeThreshold = defaultSubjectThreshold
	}
	if c.Detection.DiagramThreshold <= 0 {
		c.Detection.DiagramThreshold = defaultSubjectThreshold
	}
	c.Detection.CodeLabel = strings.TrimSpace(c.Detection.CodeLabel)
	if c.Detection.CodeLabel == "" {
		c.Detection.CodeLabel = defaultCodeLabel
	}
	c.Detection.DiagramLabel = strings.TrimSpace(c.Detection.DiagramLabel)
	if c.Detection.DiagramLabel == "" {
		c.Detection.DiagramLabel = defaultDiagramLabel
	}
}

func (c *Config) normalizeTraining() {
	if c.Training.Epochs <= 0 {
		c.Training.Epochs = defaultTrainingEpochs
	}
	if c.Training.Batch <= 0 {
		c.Training.Batch = defaultTrainingBatch
	}
	if c.Training.ImageSize <= 0 {
		c.Training.ImageSize = defaultTrainingImageSize
	}
	c.Training.Optimizer = strings.TrimSpace(c.Training.Optimizer)
	if c.Training.Optimizer == "" {
		c.Training.Optimizer = defaultTrainingOptimizer
	}
	c.Training.Device = strings.ToLower(strings.TrimSpace(c.Training.Device))
	if c.Training.Device == "" {
		c.Training.Device = c.Detection.Device
	}
	c.Training.Weights = strings.TrimSpace(c.Training.Weights)
	if c.Training.Weights == "" {
		c.Training.Weights = defaultTrainingWeights
	}
	c.Training.WeightsURL = strings.TrimSpace(c.Training.WeightsURL)
	if c.Training.WeightsURL == "" {
		c.Training.WeightsURL = defaultWeightsURL
	}
	if c.Training.TrainTimeout <= 0 {
		c.Training.TrainTimeout = defaultTrainTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
