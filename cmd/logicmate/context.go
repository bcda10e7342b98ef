package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"logicmate/internal/config"
	"logicmate/internal/logging"
	"logicmate/internal/runs"
	"logicmate/internal/services"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.loggerOnce.Do(func() {
		logger, logErr := logging.NewFromConfig(cfg)
		if logErr != nil {
			logger = logging.NewNop()
		}
		logging.CleanupOldLogs(logger, cfg.Paths.LogDir, logging.LogFilePattern, cfg.Logging.RetentionDays)
		c.logger = logger
	})
	return c.logger, nil
}

// withStore opens the run store for the duration of fn.
func (c *commandContext) withStore(fn func(*config.Config, *runs.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := runs.Open(cfg)
	if err != nil {
		return fmt.Errorf("open run store: %w", err)
	}
	defer store.Close()
	return fn(cfg, store)
}

// currentRun returns the newest non-terminal run for the configured project
// and subject, creating one when none exists.
func currentRun(ctx context.Context, cfg *config.Config, store *runs.Store, subject string) (*runs.Run, error) {
	if strings.TrimSpace(cfg.Provider.Project) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "cli", "current run",
			"provider.project is not configured; set provider coordinates in the config file", nil)
	}
	all, err := store.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, run := range all {
		if run.Project == cfg.Provider.Project && run.Version == cfg.Provider.Version &&
			run.Subject == subject && !run.Status.Terminal() {
			return run, nil
		}
	}
	return store.NewRun(ctx, cfg.Provider.Project, cfg.Provider.Version, subject)
}

// advance transitions a run when the edge is legal and leaves it untouched
// otherwise, so standalone command use never fights the state machine.
func advance(ctx context.Context, store *runs.Store, run *runs.Run, to runs.Status) {
	if run == nil || !runs.CanTransition(run.Status, to) {
		return
	}
	if updated, err := store.Transition(ctx, run.ID, to); err == nil {
		*run = *updated
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
