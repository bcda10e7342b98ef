package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"logicmate/internal/config"
	"logicmate/internal/logging"
	"logicmate/internal/runs"
	"logicmate/internal/services"
	"logicmate/internal/stage"
)

// LockFileName is the workspace lock file under the log directory.
const LockFileName = "workflow.lock"

// pipelineStage binds a handler to the statuses it moves between.
type pipelineStage struct {
	name       string
	processing runs.Status // optional intermediate status
	done       runs.Status
	handler    stage.Handler
}

// Manager sequences the pipeline stages for a run.
type Manager struct {
	cfg    *config.Config
	store  *runs.Store
	logger *slog.Logger
	lock   *flock.Flock

	stages     map[runs.Status]pipelineStage
	stageOrder []string
}

// NewManager constructs a workflow manager with the given stage
// dependencies.
func NewManager(cfg *config.Config, store *runs.Store, logger *slog.Logger, deps Deps) *Manager {
	if strings.TrimSpace(deps.OutputDir) == "" {
		deps.OutputDir = cfg.Paths.OutputDir
	}
	manager := &Manager{
		cfg:    cfg,
		store:  store,
		logger: logging.WithComponent(logger, "workflow"),
		lock:   flock.New(filepath.Join(cfg.Paths.LogDir, LockFileName)),
		stages: make(map[runs.Status]pipelineStage),
	}
	manager.register(runs.StatusIdle, pipelineStage{
		name: "fetch", done: runs.StatusDatasetDownloaded,
		handler: &fetchStage{cfg: cfg, fetcher: deps.Fetcher, weights: deps.Weights},
	})
	manager.register(runs.StatusDatasetDownloaded, pipelineStage{
		name: "locate", done: runs.StatusDatasetLocated,
		handler: &locateStage{cfg: cfg},
	})
	manager.register(runs.StatusDatasetLocated, pipelineStage{
		name: "prepare", done: runs.StatusManifestPrepared,
		handler: &prepareStage{},
	})
	manager.register(runs.StatusManifestPrepared, pipelineStage{
		name: "train", done: runs.StatusTrained,
		handler: &trainStage{cfg: cfg, weights: deps.Weights, trainer: deps.Trainer, store: store},
	})
	manager.register(runs.StatusTrained, pipelineStage{
		name: "bind", done: runs.StatusModelBound,
		handler: &bindStage{binder: deps.Binder},
	})
	manager.register(runs.StatusModelBound, pipelineStage{
		name: "filter", processing: runs.StatusFiltering, done: runs.StatusDone,
		handler: &filterStage{binder: deps.Binder, imagesDir: deps.ImagesDir, outputDir: deps.OutputDir},
	})
	return manager
}

func (m *Manager) register(from runs.Status, ps pipelineStage) {
	m.stages[from] = ps
	m.stageOrder = append(m.stageOrder, ps.name)
}

// Process drives the run from its current status to completion, holding
// the workspace lock for the duration. A run already terminal is a no-op.
func (m *Manager) Process(ctx context.Context, runID int64) error {
	acquired, err := m.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire workspace lock: %w", err)
	}
	if !acquired {
		return services.Wrap(services.ErrPrecondition, "workflow", "process",
			fmt.Sprintf("another workflow holds %s", m.lock.Path()), nil)
	}
	defer func() { _ = m.lock.Unlock() }()

	run, err := m.store.GetByID(ctx, runID)
	if err != nil {
		return err
	}

	for !run.Status.Terminal() {
		if err := ctx.Err(); err != nil {
			return err
		}
		ps, ok := m.stages[run.Status]
		if !ok {
			return services.Wrap(services.ErrPrecondition, "workflow", "process",
				fmt.Sprintf("no stage advances status %s", run.Status), nil)
		}
		if err := m.executeStage(ctx, run, ps); err != nil {
			return err
		}
		if run, err = m.store.GetByID(ctx, run.ID); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) executeStage(ctx context.Context, run *runs.Run, ps pipelineStage) error {
	stageCtx := services.WithStage(services.WithRunID(ctx, run.ID), ps.name)
	if run.Subject != "" {
		stageCtx = services.WithSubject(stageCtx, run.Subject)
	}
	logger := logging.WithContext(stageCtx, m.logger)

	stageStart := time.Now()
	logger.Info("stage started", logging.String("from_status", string(run.Status)))

	if err := ps.handler.Prepare(stageCtx, run); err != nil {
		return m.failStage(stageCtx, logger, run, ps, err)
	}
	if err := m.store.Update(stageCtx, run); err != nil {
		return fmt.Errorf("persist stage preparation: %w", err)
	}

	if ps.processing != "" {
		updated, err := m.store.Transition(stageCtx, run.ID, ps.processing)
		if err != nil {
			return err
		}
		*run = *updated
	}

	if err := ps.handler.Execute(stageCtx, run); err != nil {
		return m.failStage(stageCtx, logger, run, ps, err)
	}
	if err := m.store.Update(stageCtx, run); err != nil {
		return fmt.Errorf("persist stage result: %w", err)
	}
	if _, err := m.store.Transition(stageCtx, run.ID, ps.done); err != nil {
		return err
	}

	logger.Info("stage completed",
		logging.String("next_status", string(ps.done)),
		logging.Duration("stage_duration", time.Since(stageStart)),
	)
	return nil
}

func (m *Manager) failStage(ctx context.Context, logger *slog.Logger, run *runs.Run, ps pipelineStage, stageErr error) error {
	message := strings.TrimSpace(stageErr.Error())
	if message == "" {
		message = fmt.Sprintf("%s failed without error detail", ps.name)
	}
	logger.Error("stage failed",
		logging.String(logging.FieldStage, ps.name),
		logging.String("error_kind", services.Kind(stageErr)),
		logging.Error(stageErr),
	)
	if _, err := m.store.MarkFailed(ctx, run.ID, ps.name, message); err != nil {
		logger.Error("failed to persist stage failure", logging.Error(err))
	}
	return stageErr
}

// HealthCheck reports readiness of every registered stage in pipeline
// order.
func (m *Manager) HealthCheck(ctx context.Context) []stage.Health {
	out := make([]stage.Health, 0, len(m.stageOrder))
	seen := make(map[string]struct{}, len(m.stageOrder))
	for _, status := range runs.AllStatuses() {
		ps, ok := m.stages[status]
		if !ok {
			continue
		}
		if _, dup := seen[ps.name]; dup {
			continue
		}
		seen[ps.name] = struct{}{}
		out = append(out, ps.handler.HealthCheck(ctx))
	}
	return out
}
