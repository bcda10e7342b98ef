package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"logicmate/internal/config"
	"logicmate/internal/dataset"
	"logicmate/internal/runs"
)

func newPrepareCommand(ctx *commandContext) *cobra.Command {
	var subject string

	cmd := &cobra.Command{
		Use:   "prepare [dataset-dir]",
		Short: "Locate the dataset and rewrite its manifest for local training",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *runs.Store) error {
				run, err := currentRun(cmd.Context(), cfg, store, subject)
				if err != nil {
					return err
				}

				var datasetPath string
				if len(args) == 1 {
					datasetPath, err = config.ExpandPath(args[0])
				} else {
					datasetPath, err = dataset.FindDataset(cfg.Paths.DatasetsDir, cfg.Provider.Project, cfg.Provider.Version)
				}
				if err != nil {
					return err
				}

				run.DatasetPath = datasetPath
				if err := store.Update(cmd.Context(), run); err != nil {
					return err
				}
				// A locally present dataset implies the download happened,
				// so an idle run passes through that status.
				advance(cmd.Context(), store, run, runs.StatusDatasetDownloaded)
				advance(cmd.Context(), store, run, runs.StatusDatasetLocated)

				if err := dataset.Prepare(datasetPath); err != nil {
					return err
				}
				manifest, err := dataset.ReadManifest(datasetPath)
				if err != nil {
					return err
				}
				advance(cmd.Context(), store, run, runs.StatusManifestPrepared)

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Dataset: %s\n", datasetPath)
				fmt.Fprintf(out, "Manifest: %s (%d classes)\n", dataset.ManifestPath(datasetPath), manifest.NC)
				fmt.Fprintf(out, "Run %d is now %s\n", run.ID, run.Status)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "code", "Subject the run targets (code or diagram)")
	return cmd
}
