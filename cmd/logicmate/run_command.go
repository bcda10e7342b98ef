package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"logicmate/internal/classifier"
	"logicmate/internal/config"
	"logicmate/internal/runs"
	"logicmate/internal/services"
	"logicmate/internal/services/weights"
	"logicmate/internal/services/yolo"
	"logicmate/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var subjectFlag string
	var imagesDir string
	var outputDir string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the full pipeline: fetch, prepare, train, bind, filter",
		RunE: func(cmd *cobra.Command, args []string) error {
			subject, err := classifier.ParseSubject(subjectFlag)
			if err != nil {
				return err
			}
			if strings.TrimSpace(imagesDir) == "" {
				return services.Wrap(services.ErrInvalidArgument, "cli", "run",
					"--images is required", nil)
			}
			return ctx.withStore(func(cfg *config.Config, store *runs.Store) error {
				run, err := currentRun(cmd.Context(), cfg, store, subject.String())
				if err != nil {
					return err
				}

				images, err := config.ExpandPath(imagesDir)
				if err != nil {
					return err
				}
				output := strings.TrimSpace(outputDir)
				if output == "" {
					output = filepath.Join(cfg.Paths.OutputDir, subject.String())
				} else if output, err = config.ExpandPath(output); err != nil {
					return err
				}

				logger, err := ctx.ensureLogger()
				if err != nil {
					return err
				}

				trainer, err := yolo.NewFromConfig(cfg)
				if err != nil {
					return err
				}
				session := classifier.NewSession(cfg, logger)
				defer session.ClearCache()

				deps := workflow.Deps{
					Weights:   weights.NewFetcher(),
					Trainer:   trainer,
					Binder:    session,
					ImagesDir: images,
					OutputDir: output,
				}
				if cfg.Provider.Project != "" {
					fetcher, err := providerClient(cfg)
					if err != nil {
						return err
					}
					deps.Fetcher = fetcher
				}

				manager := workflow.NewManager(cfg, store, logger, deps)
				if err := manager.Process(cmd.Context(), run.ID); err != nil {
					return err
				}

				final, err := store.GetByID(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run %d finished with status %s\n", final.ID, final.Status)
				if final.ProgressMessage != "" {
					fmt.Fprintln(out, final.ProgressMessage)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&subjectFlag, "subject", "code", "Subject the run targets (code or diagram)")
	cmd.Flags().StringVar(&imagesDir, "images", "", "Directory of images to filter after training")
	cmd.Flags().StringVar(&outputDir, "out", "", "Directory receiving kept images (default <output_dir>/<subject>)")
	return cmd
}
