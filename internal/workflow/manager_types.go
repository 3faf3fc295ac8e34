package workflow

import (
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/stage"
)

type pipelineStage struct {
	name    string
	handler stage.Handler
}

// Outcome is the terminal state of one ingest run.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
)

// startStageName labels failures that happen before any stage runs, such as
// a submission missing from the stager.
const startStageName = "ingest-start"

// ExpectedFailure is a logical failure declared by a stage.
type ExpectedFailure struct {
	Stage   string
	Message string
}

// UnexpectedFailure is any other stage error or panic.
type UnexpectedFailure struct {
	Stage      string
	Diagnostic string
}

// Result describes one ingest run. Exactly one of Expected and Unexpected is
// set when Outcome is OutcomeFailed.
type Result struct {
	SubmissionID string
	Outcome      Outcome
	// Executed lists the stages that were invoked, in order, including the
	// one that failed.
	Executed   []string
	Expected   *ExpectedFailure
	Unexpected *UnexpectedFailure
}

// FailedStage returns the name of the failing stage, or "" on success.
func (r Result) FailedStage() string {
	switch {
	case r.Expected != nil:
		return r.Expected.Stage
	case r.Unexpected != nil:
		return r.Unexpected.Stage
	}
	return ""
}
