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
)

func newFilterCommand(ctx *commandContext) *cobra.Command {
	var subjectFlag string
	var modelFlag string
	var imagesDir string
	var outputDir string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Filter an image directory with the bound model",
		RunE: func(cmd *cobra.Command, args []string) error {
			subject, err := classifier.ParseSubject(subjectFlag)
			if err != nil {
				return err
			}
			if strings.TrimSpace(imagesDir) == "" {
				return services.Wrap(services.ErrInvalidArgument, "cli", "filter",
					"--images is required", nil)
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
					return services.Wrap(services.ErrPrecondition, "cli", "filter",
						fmt.Sprintf("run %d carries no model; pass --model or bind first", run.ID), nil)
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
				session := classifier.NewSession(cfg, logger)
				defer session.ClearCache()
				if err := session.SetModel(subject, modelPath); err != nil {
					return err
				}

				advance(cmd.Context(), store, run, runs.StatusFiltering)
				kept, err := session.Filter(subject, images, output)
				if err != nil {
					return err
				}
				advance(cmd.Context(), store, run, runs.StatusDone)

				if jsonOut {
					return writeJSON(cmd, kept)
				}
				out := cmd.OutOrStdout()
				if len(kept) == 0 {
					fmt.Fprintf(out, "No images exceeded the %s threshold (%d)\n",
						subject, session.Threshold(subject))
					return nil
				}
				rows := make([][]string, 0, len(kept))
				for _, record := range kept {
					rows = append(rows, []string{filepath.Base(record.Path), record.Extension})
				}
				fmt.Fprintln(out, renderTable([]string{"Image", "Extension"}, rows, nil))
				fmt.Fprintf(out, "Kept %d images in %s\n", len(kept), output)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&subjectFlag, "subject", "code", "Subject to filter for (code or diagram)")
	cmd.Flags().StringVar(&modelFlag, "model", "", "Model file to use (defaults to the run's trained model)")
	cmd.Flags().StringVar(&imagesDir, "images", "", "Directory of images to filter")
	cmd.Flags().StringVar(&outputDir, "out", "", "Directory receiving kept images (default <output_dir>/<subject>)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit kept records as JSON")
	return cmd
}
