package config

const (
	defaultModelsDir   = "~/.local/share/logicmate/models"
	defaultDatasetsDir = "~/.local/share/logicmate/datasets"
	defaultOutputDir   = "~/.local/share/logicmate/filtered"
	defaultLogDir      = "~/.local/share/logicmate/logs"

	defaultProviderBaseURL         = "https://api.roboflow.com"
	defaultProviderFormat          = "yolov8"
	defaultProviderDownloadTimeout = 600

	defaultDetectionInputSize      = 640
	defaultDetectionScoreThreshold = 0.25
	defaultDetectionNMSThreshold   = 0.45
	defaultDetectionDevice         = "auto"
	defaultSubjectThreshold        = 3
	defaultCodeLabel               = "code snippet"
	defaultDiagramLabel            = "diagram"

	defaultTrainingEpochs    = 100
	defaultTrainingBatch     = 16
	defaultTrainingImageSize = 640
	defaultTrainingOptimizer = "auto"
	defaultTrainingWeights   = "yolov8s.pt"
	defaultWeightsURL        = "https://github.com/ultralytics/assets/releases/download/v8.2.0/yolov8s.pt"
	defaultTrainTimeout      = 7200

	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ModelsDir:   defaultModelsDir,
			DatasetsDir: defaultDatasetsDir,
			OutputDir:   defaultOutputDir,
			LogDir:      defaultLogDir,
		},
		Provider: Provider{
			BaseURL:         defaultProviderBaseURL,
			Format:          defaultProviderFormat,
			DownloadTimeout: defaultProviderDownloadTimeout,
		},
		Detection: Detection{
			InputSize:        defaultDetectionInputSize,
			ScoreThreshold:   defaultDetectionScoreThreshold,
			NMSThreshold:     defaultDetectionNMSThreshold,
			Device:           defaultDetectionDevice,
			CodeThreshold:    defaultSubjectThreshold,
			DiagramThreshold: defaultSubjectThreshold,
			CodeLabel:        defaultCodeLabel,
			DiagramLabel:     defaultDiagramLabel,
		},
		Training: Training{
			Epochs:       defaultTrainingEpochs,
			Batch:        defaultTrainingBatch,
			ImageSize:    defaultTrainingImageSize,
			Optimizer:    defaultTrainingOptimizer,
			Device:       defaultDetectionDevice,
			Weights:      defaultTrainingWeights,
			WeightsURL:   defaultWeightsURL,
			TrainTimeout: defaultTrainTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
