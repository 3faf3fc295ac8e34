package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/model"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check directories, backends and pipeline stage health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			fmt.Fprintln(out, renderSectionHeader("Preflight", colorize))
			results := preflight.RunAll(cfg)
			for _, r := range results {
				kind := statusOK
				if !r.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}
			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d preflight checks failed", len(failed))
			}

			return ctx.withSession(cmd, func(s *session) error {
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderSectionHeader("Backends", colorize))
				fmt.Fprintln(out, renderStatusLine("Staging", statusInfo, cfg.Staging.Backend, colorize))
				fmt.Fprintln(out, renderStatusLine("Archive", statusInfo, fmt.Sprintf("%s (%s, compression %s)",
					cfg.Archive.Backend, cfg.Archive.DigestAlgorithm, cfg.Archive.Compression), colorize))
				fmt.Fprintln(out, renderStatusLine("Retire completed", statusInfo, yesNo(cfg.Ingest.RetireCompleted), colorize))

				staged, err := s.staging.Stager.Keys(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(out, renderStatusLine("Staged submissions", statusInfo, strconv.Itoa(len(staged)), colorize))
				for _, t := range model.AllEntityTypes() {
					n := len(s.archive.ListEntities(cmd.Context(), t))
					fmt.Fprintln(out, renderStatusLine("Archived "+string(t), statusInfo, strconv.Itoa(n), colorize))
				}

				mgr, err := newPipeline(s)
				if err != nil {
					return err
				}
				summary := mgr.Status(cmd.Context())
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderSectionHeader("Stages", colorize))
				unhealthy := 0
				for _, name := range mgr.StageNames() {
					h := summary.StageHealth[name]
					kind := statusOK
					if !h.Ready {
						kind = statusWarn
						unhealthy++
					}
					fmt.Fprintln(out, renderStatusLine(name, kind, h.Detail, colorize))
				}
				if unhealthy > 0 {
					return fmt.Errorf("%d stages not ready", unhealthy)
				}
				return nil
			})
		},
	}
}
