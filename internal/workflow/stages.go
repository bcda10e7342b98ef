package workflow

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"logicmate/internal/classifier"
	"logicmate/internal/config"
	"logicmate/internal/dataset"
	"logicmate/internal/runs"
	"logicmate/internal/services"
	"logicmate/internal/services/roboflow"
	"logicmate/internal/services/yolo"
	"logicmate/internal/stage"
)

// WeightsEnsurer guarantees the base checkpoint exists locally.
type WeightsEnsurer interface {
	Ensure(ctx context.Context, cfg *config.Config) (string, error)
}

// Binder is the model-session behaviour the bind and filter stages need.
type Binder interface {
	SetModel(subject classifier.Subject, modelPath string) error
	Filter(subject classifier.Subject, imagesDir, outputDir string) ([]classifier.ImageRecord, error)
}

// Deps carries the stage dependencies the manager wires into handlers.
type Deps struct {
	Fetcher roboflow.Fetcher
	Weights WeightsEnsurer
	Trainer yolo.Trainer
	Binder  Binder

	// ImagesDir is the directory the filter stage reads. OutputDir defaults
	// to the configured filter output when empty.
	ImagesDir string
	OutputDir string
}

// fetchStage downloads the dataset export and ensures base weights exist.
type fetchStage struct {
	cfg     *config.Config
	fetcher roboflow.Fetcher
	weights WeightsEnsurer
}

func (s *fetchStage) Prepare(ctx context.Context, run *runs.Run) error {
	if s.fetcher == nil {
		return services.Wrap(services.ErrConfiguration, "fetch", "prepare",
			"dataset provider not configured; set provider.workspace/project/version and the api key", nil)
	}
	return s.cfg.EnsureDirectories()
}

func (s *fetchStage) Execute(ctx context.Context, run *runs.Run) error {
	if s.weights != nil {
		if _, err := s.weights.Ensure(ctx, s.cfg); err != nil {
			return err
		}
	}
	path, err := s.fetcher.Fetch(ctx, s.cfg.Paths.DatasetsDir)
	if err != nil {
		return err
	}
	run.DatasetPath = path
	return nil
}

func (s *fetchStage) HealthCheck(ctx context.Context) stage.Health {
	if s.fetcher == nil {
		return stage.Unhealthy("fetch", "dataset provider not configured")
	}
	return stage.Healthy("fetch")
}

// locateStage resolves the dataset directory for the run's project version.
type locateStage struct {
	cfg *config.Config
}

func (s *locateStage) Prepare(ctx context.Context, run *runs.Run) error { return nil }

func (s *locateStage) Execute(ctx context.Context, run *runs.Run) error {
	path, err := dataset.FindDataset(s.cfg.Paths.DatasetsDir, run.Project, run.Version)
	if err != nil {
		return err
	}
	run.DatasetPath = path
	return nil
}

func (s *locateStage) HealthCheck(ctx context.Context) stage.Health {
	return stage.Healthy("locate")
}

// prepareStage rewrites the dataset manifest for local training.
type prepareStage struct{}

func (s *prepareStage) Prepare(ctx context.Context, run *runs.Run) error {
	if strings.TrimSpace(run.DatasetPath) == "" {
		return services.Wrap(services.ErrPrecondition, "prepare", "prepare",
			"run carries no dataset path; fetch or locate the dataset first", nil)
	}
	return nil
}

func (s *prepareStage) Execute(ctx context.Context, run *runs.Run) error {
	return dataset.Prepare(run.DatasetPath)
}

func (s *prepareStage) HealthCheck(ctx context.Context) stage.Health {
	return stage.Healthy("prepare")
}

// trainStage invokes the external trainer and records the best checkpoint.
type trainStage struct {
	cfg     *config.Config
	weights WeightsEnsurer
	trainer yolo.Trainer
	store   *runs.Store
}

func (s *trainStage) Prepare(ctx context.Context, run *runs.Run) error {
	if s.trainer == nil {
		return services.Wrap(services.ErrConfiguration, "train", "prepare",
			"trainer unavailable", nil)
	}
	return nil
}

func (s *trainStage) Execute(ctx context.Context, run *runs.Run) error {
	req := yolo.RequestFromConfig(s.cfg)
	if s.weights != nil {
		weightsPath, err := s.weights.Ensure(ctx, s.cfg)
		if err != nil {
			return err
		}
		req.WeightsPath = weightsPath
	}
	req.DataPath = dataset.ManifestPath(run.DatasetPath)
	req.RunsDir = filepath.Join(s.cfg.Paths.ModelsDir, "runs")
	req.RunName = fmt.Sprintf("%s-%d-%s", run.Project, run.Version, run.Subject)

	best, err := s.trainer.Train(ctx, req, func(update yolo.ProgressUpdate) {
		percent := float64(update.Epoch) / float64(update.TotalEpochs) * 100
		_ = s.store.SetProgress(ctx, run.ID, "train", percent,
			fmt.Sprintf("epoch %d/%d", update.Epoch, update.TotalEpochs))
	})
	if err != nil {
		return err
	}
	run.ModelPath = best
	return nil
}

func (s *trainStage) HealthCheck(ctx context.Context) stage.Health {
	if s.trainer == nil {
		return stage.Unhealthy("train", "trainer unavailable")
	}
	return stage.Healthy("train")
}

// bindStage loads the trained model into the classifier session.
type bindStage struct {
	binder Binder
}

func (s *bindStage) Prepare(ctx context.Context, run *runs.Run) error {
	if s.binder == nil {
		return services.Wrap(services.ErrConfiguration, "bind", "prepare",
			"classifier session unavailable", nil)
	}
	if strings.TrimSpace(run.ModelPath) == "" {
		return services.Wrap(services.ErrPrecondition, "bind", "prepare",
			"run carries no trained model path", nil)
	}
	return nil
}

func (s *bindStage) Execute(ctx context.Context, run *runs.Run) error {
	subject, err := classifier.ParseSubject(run.Subject)
	if err != nil {
		return err
	}
	return s.binder.SetModel(subject, run.ModelPath)
}

func (s *bindStage) HealthCheck(ctx context.Context) stage.Health {
	if s.binder == nil {
		return stage.Unhealthy("bind", "classifier session unavailable")
	}
	return stage.Healthy("bind")
}

// filterStage runs the bound model over the target images directory.
type filterStage struct {
	binder    Binder
	imagesDir string
	outputDir string
}

func (s *filterStage) Prepare(ctx context.Context, run *runs.Run) error {
	if s.binder == nil {
		return services.Wrap(services.ErrConfiguration, "filter", "prepare",
			"classifier session unavailable", nil)
	}
	if strings.TrimSpace(s.imagesDir) == "" {
		return services.Wrap(services.ErrConfiguration, "filter", "prepare",
			"no images directory configured for filtering", nil)
	}
	return nil
}

func (s *filterStage) Execute(ctx context.Context, run *runs.Run) error {
	subject, err := classifier.ParseSubject(run.Subject)
	if err != nil {
		return err
	}
	kept, err := s.binder.Filter(subject, s.imagesDir, s.outputDir)
	if err != nil {
		return err
	}
	run.ProgressStage = "filter"
	run.ProgressPercent = 100
	run.ProgressMessage = fmt.Sprintf("kept %d images", len(kept))
	return nil
}

func (s *filterStage) HealthCheck(ctx context.Context) stage.Health {
	if s.binder == nil {
		return stage.Unhealthy("filter", "classifier session unavailable")
	}
	if strings.TrimSpace(s.imagesDir) == "" {
		return stage.Unhealthy("filter", "no images directory configured")
	}
	return stage.Healthy("filter")
}
