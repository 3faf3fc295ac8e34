package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/model"
)

func newEventsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var eventType string

	cmd := &cobra.Command{
		Use:   "events <submission-id>",
		Short: "Show the events recorded for a submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withSession(cmd, func(s *session) error {
				var (
					list []model.Event
					err  error
				)
				if eventType != "" {
					var ev *model.Event
					ev, err = s.events.EventByType(cmd.Context(), id, eventType)
					if ev != nil {
						list = []model.Event{*ev}
					}
				} else {
					list, err = s.events.Events(cmd.Context(), id)
				}
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, list)
				}
				if len(list) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No events recorded for %s\n", id)
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderEvents(list))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().StringVarP(&eventType, "type", "t", "", "Show only the single event of this type")
	return cmd
}

func renderEvents(list []model.Event) string {
	rows := make([][]string, 0, len(list))
	for _, ev := range list {
		rows = append(rows, []string{
			formatTime(ev.Date),
			ev.Type,
			ev.Outcome,
			summarizeTargets(ev.Targets()),
			firstLine(ev.Detail),
		})
	}
	return renderTable([]string{"Date", "Type", "Outcome", "Targets", "Detail"}, rows, nil)
}

func summarizeTargets(targets []string) string {
	const shown = 3
	if len(targets) <= shown {
		return strings.Join(targets, ", ")
	}
	return fmt.Sprintf("%s (+%d more)", strings.Join(targets[:shown], ", "), len(targets)-shown)
}
