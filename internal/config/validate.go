package config

import (
	"errors"
	"fmt"
	"strings"
)

var validDevices = map[string]struct{}{
	"auto": {},
	"cpu":  {},
	"cuda": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateProvider(); err != nil {
		return err
	}
	if err := c.validateDetection(); err != nil {
		return err
	}
	if err := c.validateTraining(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateProvider() error {
	if c.Provider.Project != "" && c.Provider.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/logicmate/config.toml"
		}
		return fmt.Errorf("provider.api_key is required when provider.project is set. Set LOGICMATE_API_KEY env var or edit %s (create with 'logicmate config init')", defaultPath)
	}
	if c.Provider.Project != "" && c.Provider.Workspace == "" {
		return errors.New("provider.workspace must be set when provider.project is set")
	}
	if c.Provider.Project != "" && c.Provider.Version <= 0 {
		return errors.New("provider.version must be positive when provider.project is set")
	}
	if c.Provider.DownloadTimeout <= 0 {
		return errors.New("provider.download_timeout must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateDetection() error {
	if c.Detection.InputSize <= 0 {
		return errors.New("detection.input_size must be positive")
	}
	if c.Detection.ScoreThreshold <= 0 || c.Detection.ScoreThreshold > 1 {
		return errors.New("detection.score_threshold must be between 0 and 1")
	}
	if c.Detection.NMSThreshold <= 0 || c.Detection.NMSThreshold > 1 {
		return errors.New("detection.nms_threshold must be between 0 and 1")
	}
	if _, ok := validDevices[c.Detection.Device]; !ok {
		return fmt.Errorf("detection.device must be one of auto, cpu, cuda (got %q)", c.Detection.Device)
	}
	if c.Detection.CodeThreshold < 0 {
		return errors.New("detection.code_threshold must be >= 0")
	}
	if c.Detection.DiagramThreshold < 0 {
		return errors.New("detection.diagram_threshold must be >= 0")
	}
	return nil
}

func (c *Config) validateTraining() error {
	if err := ensurePositiveMap(map[string]int{
		"training.epochs":        c.Training.Epochs,
		"training.batch":         c.Training.Batch,
		"training.image_size":    c.Training.ImageSize,
		"training.train_timeout": c.Training.TrainTimeout,
	}); err != nil {
		return err
	}
	if _, ok := validDevices[c.Training.Device]; !ok {
		return fmt.Errorf("training.device must be one of auto, cpu, cuda (got %q)", c.Training.Device)
	}
	if strings.TrimSpace(c.Training.Weights) == "" {
		return errors.New("training.weights must be set")
	}
	if c.Training.Patience != nil && *c.Training.Patience < 0 {
		return errors.New("training.patience must be >= 0")
	}
	if c.Training.WeightDecay != nil && *c.Training.WeightDecay < 0 {
		return errors.New("training.weight_decay must be >= 0")
	}
	if c.Training.Momentum != nil && (*c.Training.Momentum < 0 || *c.Training.Momentum > 1) {
		return errors.New("training.momentum must be between 0 and 1")
	}
	if c.Training.WarmupEpochs != nil && *c.Training.WarmupEpochs < 0 {
		return errors.New("training.warmup_epochs must be >= 0")
	}
	for name, value := range map[string]*float64{
		"training.mixup":      c.Training.Mixup,
		"training.mosaic":     c.Training.Mosaic,
		"training.copy_paste": c.Training.CopyPaste,
	} {
		if value != nil && (*value < 0 || *value > 1) {
			return fmt.Errorf("%s must be between 0 and 1", name)
		}
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
