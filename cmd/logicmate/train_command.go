package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"logicmate/internal/config"
	"logicmate/internal/dataset"
	"logicmate/internal/runs"
	"logicmate/internal/services"
	"logicmate/internal/services/weights"
	"logicmate/internal/services/yolo"
)

func newTrainCommand(ctx *commandContext) *cobra.Command {
	var subject string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fine-tune the detection model on the prepared dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *runs.Store) error {
				run, err := currentRun(cmd.Context(), cfg, store, subject)
				if err != nil {
					return err
				}
				if run.Status != runs.StatusManifestPrepared {
					return services.Wrap(services.ErrPrecondition, "cli", "train",
						fmt.Sprintf("run %d is %s; prepare the dataset first", run.ID, run.Status), nil)
				}

				weightsPath, err := weights.NewFetcher().Ensure(cmd.Context(), cfg)
				if err != nil {
					return err
				}

				client, err := yolo.NewFromConfig(cfg)
				if err != nil {
					return err
				}
				req := yolo.RequestFromConfig(cfg)
				req.WeightsPath = weightsPath
				req.DataPath = dataset.ManifestPath(run.DatasetPath)
				req.RunsDir = filepath.Join(cfg.Paths.ModelsDir, "runs")
				req.RunName = fmt.Sprintf("%s-%d-%s", run.Project, run.Version, run.Subject)

				out := cmd.OutOrStdout()
				best, err := client.Train(cmd.Context(), req, func(update yolo.ProgressUpdate) {
					fmt.Fprintf(out, "epoch %d/%d\n", update.Epoch, update.TotalEpochs)
				})
				if err != nil {
					return err
				}

				run.ModelPath = best
				if err := store.Update(cmd.Context(), run); err != nil {
					return err
				}
				advance(cmd.Context(), store, run, runs.StatusTrained)

				fmt.Fprintf(out, "Best checkpoint: %s\n", best)
				printTrainingMetrics(cmd, yolo.RunDir(req.RunsDir, req.RunName), jsonOut)
				fmt.Fprintf(out, "Run %d is now %s\n", run.ID, run.Status)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "code", "Subject the run targets (code or diagram)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit metrics as JSON")
	return cmd
}

// printTrainingMetrics renders the final epoch metrics. Missing metrics are
// not fatal; some trainer versions skip results.csv on tiny datasets.
func printTrainingMetrics(cmd *cobra.Command, runDir string, jsonOut bool) {
	final, err := yolo.FinalMetrics(runDir)
	if err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "No training metrics available (%v)\n", err)
		return
	}
	if jsonOut {
		_ = writeJSON(cmd, final)
		return
	}
	headers := []string{"Epoch", "Box Loss", "Precision", "Recall", "mAP50", "mAP50-95"}
	rows := [][]string{{
		strconv.Itoa(final.Epoch),
		strconv.FormatFloat(final.BoxLoss, 'f', 4, 64),
		strconv.FormatFloat(final.Precision, 'f', 4, 64),
		strconv.FormatFloat(final.Recall, 'f', 4, 64),
		strconv.FormatFloat(final.MAP50, 'f', 4, 64),
		strconv.FormatFloat(final.MAP5095, 'f', 4, 64),
	}}
	aligns := []columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignRight}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, aligns))
}
