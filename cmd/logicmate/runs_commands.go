package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"logicmate/internal/config"
	"logicmate/internal/runs"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect and manage pipeline runs",
	}

	runsCmd.AddCommand(newRunsListCommand(ctx))
	runsCmd.AddCommand(newRunsShowCommand(ctx))
	runsCmd.AddCommand(newRunsResetCommand(ctx))

	return runsCmd
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pipeline runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *runs.Store) error {
				var filters []runs.Status
				if statusFilter != "" {
					status, ok := runs.ParseStatus(statusFilter)
					if !ok {
						return fmt.Errorf("unknown status %q", statusFilter)
					}
					filters = append(filters, status)
				}
				items, err := store.List(cmd.Context(), filters...)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, items)
				}
				out := cmd.OutOrStdout()
				if len(items) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(items))
				for _, run := range items {
					rows = append(rows, []string{
						strconv.FormatInt(run.ID, 10),
						fmt.Sprintf("%s-%d", run.Project, run.Version),
						run.Subject,
						string(run.Status),
						run.UpdatedAt.Local().Format(time.RFC3339),
					})
				}
				headers := []string{"ID", "Dataset", "Subject", "Status", "Updated"}
				aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft}
				fmt.Fprintln(out, renderTable(headers, rows, aligns))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&statusFilter, "status", "", "Only show runs with this status")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit runs as JSON")
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one run in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid run id %q", args[0])
			}
			return ctx.withStore(func(cfg *config.Config, store *runs.Store) error {
				run, err := store.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, run)
				}
				rows := [][]string{
					{"ID", strconv.FormatInt(run.ID, 10)},
					{"Token", run.Token},
					{"Dataset", fmt.Sprintf("%s-%d", run.Project, run.Version)},
					{"Subject", run.Subject},
					{"Status", string(run.Status)},
					{"Dataset path", run.DatasetPath},
					{"Model path", run.ModelPath},
					{"Created", run.CreatedAt.Local().Format(time.RFC3339)},
					{"Updated", run.UpdatedAt.Local().Format(time.RFC3339)},
				}
				if run.ProgressStage != "" {
					rows = append(rows, []string{"Progress",
						fmt.Sprintf("%s %.0f%% %s", run.ProgressStage, run.ProgressPercent, run.ProgressMessage)})
				}
				if run.Status == runs.StatusFailed {
					rows = append(rows, []string{"Failed stage", run.FailureStage})
					rows = append(rows, []string{"Error", run.ErrorMessage})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the run as JSON")
	return cmd
}

func newRunsResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <id>",
		Short: "Return a failed run to idle so it can be retried",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid run id %q", args[0])
			}
			return ctx.withStore(func(cfg *config.Config, store *runs.Store) error {
				run, err := store.Reset(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Run %d reset to %s\n", run.ID, run.Status)
				return nil
			})
		},
	}
}
