package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/ingest"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/logging"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/model"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/workflow"
)

type ingestReport struct {
	File         string        `json:"file"`
	SubmissionID string        `json:"submission_id"`
	Outcome      string        `json:"outcome"`
	FailedStage  string        `json:"failed_stage,omitempty"`
	Detail       string        `json:"detail,omitempty"`
	Events       []model.Event `json:"events,omitempty"`
}

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var showEvents bool

	cmd := &cobra.Command{
		Use:   "ingest <package.json>...",
		Short: "Stage package descriptions and run them through the ingest pipeline",
		Long: "Stage one or more JSON package descriptions and run each through the ingest pipeline.\n" +
			"Relative file sources resolve against the directory holding the package description.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(s *session) error {
				reports, err := runIngest(cmd.Context(), s, args, showEvents || asJSON)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, reports)
				}
				printIngestReports(cmd, reports, showEvents)
				if n := countFailed(reports); n > 0 {
					return fmt.Errorf("%d of %d submissions failed", n, len(reports))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVarP(&showEvents, "events", "e", false, "Print the events recorded for each submission")
	return cmd
}

func newPipeline(s *session) (*workflow.Manager, error) {
	mgr := workflow.NewManager(s.cfg, s.staging.Stager, s.events, s.logger)
	err := mgr.ConfigureStages(ingest.DefaultStages(ingest.Deps{
		Config:   s.cfg,
		Stager:   s.staging.Stager,
		Events:   s.events,
		Resolver: s.resolver,
		Archive:  s.archive,
		Logger:   s.logger,
	})...)
	if err != nil {
		return nil, err
	}
	return mgr, nil
}

func runIngest(ctx context.Context, s *session, files []string, withEvents bool) ([]ingestReport, error) {
	packages := make([]*model.Package, len(files))
	for i, file := range files {
		pkg, err := readPackageFile(file)
		if err != nil {
			return nil, err
		}
		packages[i] = pkg
	}

	mgr, err := newPipeline(s)
	if err != nil {
		return nil, err
	}
	if err := mgr.Start(ctx); err != nil {
		return nil, err
	}

	reports := make([]ingestReport, 0, len(files))
	for i, pkg := range packages {
		id, err := s.staging.Stager.AddSIP(ctx, pkg)
		if err != nil {
			mgr.Stop()
			return nil, fmt.Errorf("stage %s: %w", files[i], err)
		}
		s.logger.Info("package staged",
			logging.String("file", files[i]),
			logging.Submission(id),
			logging.Int("entities", pkg.Len()),
		)
		if err := mgr.StartIngest(ctx, id); err != nil {
			mgr.Stop()
			return nil, err
		}
		reports = append(reports, ingestReport{File: files[i], SubmissionID: id})
	}
	mgr.Stop()

	for i := range reports {
		if err := s.fillReport(ctx, &reports[i], withEvents); err != nil {
			return nil, err
		}
	}
	return reports, nil
}

// fillReport derives the outcome of a finished submission from its events.
func (s *session) fillReport(ctx context.Context, r *ingestReport, withEvents bool) error {
	failure, err := s.events.EventByType(ctx, r.SubmissionID, model.EventIngestFail)
	if err != nil {
		return err
	}
	if failure != nil {
		r.Outcome = string(workflow.OutcomeFailed)
		r.FailedStage = failure.Outcome
		r.Detail = firstLine(failure.Detail)
	} else {
		r.Outcome = string(workflow.OutcomeCompleted)
	}
	if withEvents {
		r.Events, err = s.events.Events(ctx, r.SubmissionID)
		if err != nil {
			return err
		}
	}
	return nil
}

func readPackageFile(file string) (*model.Package, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read package: %w", err)
	}
	var pkg model.Package
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("parse package %s: %w", file, err)
	}
	anchorSources(&pkg, filepath.Dir(abs))
	return &pkg, nil
}

// anchorSources rewrites relative file sources so they no longer depend on
// the working directory.
func anchorSources(pkg *model.Package, dir string) {
	for i := range pkg.Files {
		src := strings.TrimPrefix(strings.TrimSpace(pkg.Files[i].Source), "file://")
		if src == "" || filepath.IsAbs(src) {
			continue
		}
		pkg.Files[i].Source = filepath.Join(dir, src)
	}
}

func printIngestReports(cmd *cobra.Command, reports []ingestReport, showEvents bool) {
	out := cmd.OutOrStdout()
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, []string{r.SubmissionID, filepath.Base(r.File), r.Outcome, r.FailedStage, r.Detail})
	}
	fmt.Fprintln(out, renderTable([]string{"Submission", "Package", "Outcome", "Stage", "Detail"}, rows, nil))
	if !showEvents {
		return
	}
	for _, r := range reports {
		fmt.Fprintf(out, "\nEvents for %s:\n", r.SubmissionID)
		fmt.Fprintln(out, renderEvents(r.Events))
	}
}

func countFailed(reports []ingestReport) int {
	n := 0
	for _, r := range reports {
		if r.Outcome != string(workflow.OutcomeCompleted) {
			n++
		}
	}
	return n
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
