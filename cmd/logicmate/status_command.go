package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"logicmate/internal/config"
	"logicmate/internal/preflight"
	"logicmate/internal/runs"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show preflight checks, host resources, and run health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *runs.Store) error {
				checks := preflight.RunAll(cmd.Context(), cfg)
				host := preflight.CollectHostReport(cfg)
				health, err := store.Health(cmd.Context())
				if err != nil {
					return err
				}
				latest, err := store.List(cmd.Context())
				if err != nil {
					return err
				}

				if jsonOut {
					return writeJSON(cmd, map[string]any{
						"checks": checks,
						"host": map[string]any{
							"cpu_count":        host.CPUCount,
							"total_memory":     host.TotalMemory,
							"available_memory": host.AvailableMemory,
							"device":           host.Device,
						},
						"health": health,
					})
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				titler := cases.Title(language.English)

				for _, line := range renderSectionHeader("Preflight", colorize) {
					fmt.Fprintln(out, line)
				}
				for _, check := range checks {
					kind := statusOK
					if !check.Passed {
						kind = statusError
					}
					fmt.Fprintln(out, renderStatusLine(check.Name, kind, check.Detail, colorize))
				}

				fmt.Fprintln(out)
				for _, line := range renderSectionHeader("Host", colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderStatusLine("CPUs", statusInfo, fmt.Sprintf("%d logical", host.CPUCount), colorize))
				fmt.Fprintln(out, renderStatusLine("Memory", statusInfo, host.MemoryDetail(), colorize))
				fmt.Fprintln(out, renderStatusLine("Inference device", statusInfo, string(host.Device), colorize))

				fmt.Fprintln(out)
				for _, line := range renderSectionHeader("Runs", colorize) {
					fmt.Fprintln(out, line)
				}
				summary := fmt.Sprintf("%d total, %d in progress, %d done, %d failed",
					health.Total, health.InProgress, health.Done, health.Failed)
				kind := statusOK
				if health.Failed > 0 {
					kind = statusWarn
				}
				fmt.Fprintln(out, renderStatusLine("Summary", kind, summary, colorize))
				if len(latest) > 0 {
					run := latest[0]
					label := fmt.Sprintf("Latest (%s)", titler.String(run.Subject))
					detail := fmt.Sprintf("%s-%d is %s, updated %s",
						run.Project, run.Version, run.Status,
						run.UpdatedAt.Local().Format(time.RFC3339))
					lineKind := runStatusKind(run.Status)
					fmt.Fprintln(out, renderStatusLine(label, lineKind, detail, colorize))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit status as JSON")
	return cmd
}

func runStatusKind(status runs.Status) statusKind {
	switch status {
	case runs.StatusDone:
		return statusOK
	case runs.StatusFailed:
		return statusError
	default:
		return statusInfo
	}
}
