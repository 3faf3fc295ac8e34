package stage

import (
	"context"
	"strings"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/services"
)

// Handler describes the contract the workflow manager needs from each stage.
//
// Prepare runs before Execute and rejects a run the stage cannot carry out,
// typically because a collaborator is missing. Execute runs against a staged
// submission id. Stages read and write the
// staged package through the stager they were built with. Returning a
// *Failure (or an error carrying services.ErrValidation or
// services.ErrMalformedPackage) reports an expected, logical failure; any
// other error or panic is treated as unexpected.
type Handler interface {
	Name() string
	Prepare(ctx context.Context, submissionID string) error
	Execute(ctx context.Context, submissionID string) error
	HealthCheck(ctx context.Context) Health
}

// Func adapts a function into a Handler that always reports healthy and
// needs no preparation.
type Func struct {
	StageName string
	Run       func(ctx context.Context, submissionID string) error
}

func (f Func) Name() string { return f.StageName }

func (f Func) Prepare(context.Context, string) error { return nil }

func (f Func) Execute(ctx context.Context, submissionID string) error {
	if f.Run == nil {
		return nil
	}
	return f.Run(ctx, submissionID)
}

func (f Func) HealthCheck(context.Context) Health { return Healthy(f.StageName) }

// Health reports whether a stage has what it needs to run.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

func Unhealthy(name, detail string) Health {
	return Health{Name: name, Detail: detail}
}

// Err returns nil for a ready stage and a configuration error otherwise.
func (h Health) Err() error {
	if h.Ready {
		return nil
	}
	return services.Wrap(services.ErrConfiguration, h.Name, "prepare", h.Detail, nil)
}

// Missing reports a stage that lacks the named collaborators.
func Missing(name string, what ...string) Health {
	return Unhealthy(name, strings.Join(what, " and ")+" not configured")
}
