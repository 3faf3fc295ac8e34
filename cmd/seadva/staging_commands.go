package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/staging"
)

func newStagingCommand(ctx *commandContext) *cobra.Command {
	stagingCmd := &cobra.Command{
		Use:   "staging",
		Short: "Manage staged submissions",
	}

	stagingCmd.AddCommand(newStagingListCommand(ctx))
	stagingCmd.AddCommand(newStagingRemoveCommand(ctx))
	stagingCmd.AddCommand(newStagingCleanCommand(ctx))

	return stagingCmd
}

func newStagingListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List staged submissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(s *session) error {
				summaries, err := s.staging.Stager.List(cmd.Context())
				if err != nil {
					return fmt.Errorf("list staged submissions: %w", err)
				}
				if asJSON {
					if summaries == nil {
						summaries = []staging.Summary{}
					}
					return writeJSON(cmd, summaries)
				}

				out := cmd.OutOrStdout()
				if len(summaries) == 0 {
					fmt.Fprintln(out, "No staged submissions")
					return nil
				}
				rows := make([][]string, 0, len(summaries))
				for _, sum := range summaries {
					rows = append(rows, []string{
						sum.ID,
						strconv.Itoa(sum.EntityCount),
						formatTime(sum.CreatedAt),
						formatDuration(time.Since(sum.UpdatedAt)),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Submission", "Entities", "Staged", "Idle"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight},
				))
				fmt.Fprintf(out, "Total: %d submissions\n", len(summaries))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newStagingRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <submission-id>...",
		Short: "Remove staged submissions; their events are kept",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(s *session) error {
				out := cmd.OutOrStdout()
				for _, arg := range args {
					id := strings.TrimSpace(arg)
					if err := s.staging.Stager.RemoveSIP(cmd.Context(), id); err != nil {
						return fmt.Errorf("remove %s: %w", id, err)
					}
					fmt.Fprintf(out, "Removed %s\n", id)
				}
				return nil
			})
		},
	}
}

func newStagingCleanCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var maxAge time.Duration

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove abandoned staged submissions",
		Long: `Remove staged submissions whose ingest failed, or that never started ingest,
longer ago than the cleanup window. The window defaults to
staging.stale_after_hours; running and recently failed submissions are kept.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(s *session) error {
				window := maxAge
				if window <= 0 {
					window = time.Duration(s.cfg.Staging.StaleAfterHours) * time.Hour
				}
				result := staging.CleanStale(cmd.Context(), s.staging.Stager, s.events, window, s.logger)
				if asJSON {
					return writeStagingCleanJSON(cmd, result)
				}
				printStagingCleanResult(cmd, result)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().DurationVar(&maxAge, "max-age", 0, "Override the cleanup window (e.g. 48h)")
	return cmd
}

func printStagingCleanResult(cmd *cobra.Command, result staging.CleanStaleResult) {
	out := cmd.OutOrStdout()
	if len(result.Removed) == 0 && len(result.Errors) == 0 {
		fmt.Fprintln(out, "No stale submissions to clean")
		return
	}
	fmt.Fprintf(out, "Removed %d stale submissions", len(result.Removed))
	if len(result.Errors) > 0 {
		fmt.Fprintf(out, ", %d errors", len(result.Errors))
	}
	fmt.Fprintln(out)
	for _, id := range result.Removed {
		fmt.Fprintf(out, "  %s\n", id)
	}
	for _, e := range result.Errors {
		fmt.Fprintf(out, "  Error: %s: %v\n", cleanupTarget(e.ID), e.Error)
	}
}

func writeStagingCleanJSON(cmd *cobra.Command, result staging.CleanStaleResult) error {
	errs := make([]string, 0, len(result.Errors))
	for _, e := range result.Errors {
		errs = append(errs, fmt.Sprintf("%s: %v", cleanupTarget(e.ID), e.Error))
	}
	removed := result.Removed
	if removed == nil {
		removed = []string{}
	}
	return writeJSON(cmd, map[string]any{
		"removed": removed,
		"errors":  errs,
	})
}

func cleanupTarget(id string) string {
	if id == "" {
		return "staging"
	}
	return id
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
