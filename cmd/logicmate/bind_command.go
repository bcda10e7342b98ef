package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"logicmate/internal/classifier"
	"logicmate/internal/config"
	"logicmate/internal/runs"
	"logicmate/internal/services"
)

func newBindCommand(ctx *commandContext) *cobra.Command {
	var subjectFlag string
	var modelFlag string

	cmd := &cobra.Command{
		Use:   "bind",
		Short: "Load a trained model for a subject and record the binding",
		RunE: func(cmd *cobra.Command, args []string) error {
			subject, err := classifier.ParseSubject(subjectFlag)
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, store *runs.Store) error {
				run, err := currentRun(cmd.Context(), cfg, store, subject.String())
				if err != nil {
					return err
				}

				modelPath := strings.TrimSpace(modelFlag)
				if modelPath == "" {
					modelPath = run.ModelPath
				}
				if modelPath == "" {
					return services.Wrap(services.ErrPrecondition, "cli", "bind",
						fmt.Sprintf("run %d carries no trained model; pass --model or train first", run.ID), nil)
				}

				logger, err := ctx.ensureLogger()
				if err != nil {
					return err
				}
				session := classifier.NewSession(cfg, logger)
				defer session.ClearCache()
				if err := session.SetModel(subject, modelPath); err != nil {
					return err
				}

				run.ModelPath = modelPath
				if err := store.Update(cmd.Context(), run); err != nil {
					return err
				}
				advance(cmd.Context(), store, run, runs.StatusModelBound)

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Bound %s model: %s\n", subject, modelPath)
				fmt.Fprintf(out, "Run %d is now %s\n", run.ID, run.Status)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&subjectFlag, "subject", "code", "Subject to bind (code or diagram)")
	cmd.Flags().StringVar(&modelFlag, "model", "", "Model file to bind (defaults to the run's trained model)")
	return cmd
}
