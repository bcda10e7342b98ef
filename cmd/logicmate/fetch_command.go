package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"logicmate/internal/config"
	"logicmate/internal/runs"
	"logicmate/internal/services/roboflow"
	"logicmate/internal/services/weights"
)

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var subject string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the configured dataset export and base weights",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *runs.Store) error {
				run, err := currentRun(cmd.Context(), cfg, store, subject)
				if err != nil {
					return err
				}

				weightsPath, err := weights.NewFetcher().Ensure(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Base weights: %s\n", weightsPath)

				client, err := providerClient(cfg)
				if err != nil {
					return err
				}
				datasetPath, err := client.Fetch(cmd.Context(), cfg.Paths.DatasetsDir)
				if err != nil {
					return err
				}

				run.DatasetPath = datasetPath
				if err := store.Update(cmd.Context(), run); err != nil {
					return err
				}
				advance(cmd.Context(), store, run, runs.StatusDatasetDownloaded)

				fmt.Fprintf(cmd.OutOrStdout(), "Dataset: %s\n", datasetPath)
				fmt.Fprintf(cmd.OutOrStdout(), "Run %d is now %s\n", run.ID, run.Status)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "code", "Subject the run targets (code or diagram)")
	return cmd
}

func providerClient(cfg *config.Config) (*roboflow.Client, error) {
	return roboflow.New(
		cfg.Provider.BaseURL,
		cfg.Provider.APIKey,
		cfg.Provider.Workspace,
		cfg.Provider.Project,
		cfg.Provider.Version,
		cfg.Provider.Format,
		cfg.Provider.DownloadTimeout,
	)
}
