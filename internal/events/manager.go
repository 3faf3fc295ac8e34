package events

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/logging"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/model"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/services"
)

// PackageSource looks up staged packages. GetSIP returns nil for ids that
// are not staged.
type PackageSource interface {
	GetSIP(ctx context.Context, id string) (*model.Package, error)
}

// Manager creates events and records them against submissions.
type Manager struct {
	log    EventLog
	staged PackageSource
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// Option customizes a Manager.
type Option func(*Manager)

// WithClock overrides the timestamp source used by NewEvent.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithIDGenerator overrides the id source used by NewEvent.
func WithIDGenerator(newID func() string) Option {
	return func(m *Manager) {
		if newID != nil {
			m.newID = newID
		}
	}
}

// WithPackageSource makes AddEvent check that the submission is staged and
// that every target is an entity of its package.
func WithPackageSource(src PackageSource) Option {
	return func(m *Manager) {
		m.staged = src
	}
}

// NewManager returns a Manager writing to log.
func NewManager(log EventLog, logger *slog.Logger, opts ...Option) *Manager {
	if log == nil {
		log = NewMemoryLog()
	}
	m := &Manager{
		log:    log,
		logger: logging.NewComponentLogger(logger, "events"),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewEvent allocates an event with a fresh id, the current UTC time and the
// given type. Outcome, detail and targets are left empty.
func (m *Manager) NewEvent(eventType string) model.Event {
	return model.Event{
		ID:   m.newID(),
		Type: eventType,
		Date: m.now().UTC(),
	}
}

// AddEvent appends ev to the submission's history. Events without an id or
// timestamp were not produced by NewEvent and are rejected. With a package
// source configured, the submission must be staged and every target must be
// an entity of the staged package. The one exemption is ingest.fail for a
// submission that is not staged (never was, or was removed mid-run), which is
// recorded without target checks.
func (m *Manager) AddEvent(ctx context.Context, sipID string, ev model.Event) error {
	if strings.TrimSpace(sipID) == "" {
		return services.Wrap(services.ErrValidation, "", "add event", "submission id is empty", nil)
	}
	if ev.ID == "" || ev.Date.IsZero() {
		return services.Wrap(services.ErrValidation, "", "add event", "event lacks id or timestamp; create it with NewEvent", nil)
	}
	if strings.TrimSpace(ev.Type) == "" {
		return services.Wrap(services.ErrValidation, "", "add event", "event type is empty", nil)
	}
	if err := m.checkTargets(ctx, sipID, ev); err != nil {
		return err
	}
	if err := m.log.AppendEvent(ctx, sipID, ev.Clone()); err != nil {
		return fmt.Errorf("record %s event for %s: %w", ev.Type, sipID, err)
	}
	logging.WithContext(services.WithSubmissionID(ctx, sipID), m.logger).Debug("event recorded",
		logging.String("event_id", ev.ID),
		logging.String(logging.FieldEventType, ev.Type),
		logging.String("outcome", ev.Outcome),
		logging.Int("targets", len(ev.Targets())),
	)
	return nil
}

func (m *Manager) checkTargets(ctx context.Context, sipID string, ev model.Event) error {
	if m.staged == nil {
		return nil
	}
	pkg, err := m.staged.GetSIP(ctx, sipID)
	if err != nil {
		return fmt.Errorf("load submission %s: %w", sipID, err)
	}
	if pkg == nil {
		if ev.Type == model.EventIngestFail {
			return nil
		}
		return services.Wrap(services.ErrValidation, "", "add event",
			fmt.Sprintf("submission %s is not staged", sipID), nil)
	}
	var unknown []string
	for _, id := range ev.Targets() {
		if _, ok := pkg.Find(id); !ok {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		return services.Wrap(services.ErrValidation, "", "add event",
			fmt.Sprintf("%s event targets entities outside submission %s: %s", ev.Type, sipID, strings.Join(unknown, ", ")), nil)
	}
	return nil
}

// Events returns every event recorded for the submission in insertion order.
func (m *Manager) Events(ctx context.Context, sipID string) ([]model.Event, error) {
	events, err := m.log.Events(ctx, sipID)
	if err != nil {
		return nil, fmt.Errorf("load events for %s: %w", sipID, err)
	}
	return events, nil
}

// All iterates the submission's events lazily. The history is read on the
// first iteration; a load failure is yielded once as the error value.
func (m *Manager) All(ctx context.Context, sipID string) iter.Seq2[model.Event, error] {
	return func(yield func(model.Event, error) bool) {
		events, err := m.Events(ctx, sipID)
		if err != nil {
			yield(model.Event{}, err)
			return
		}
		for _, ev := range events {
			if !yield(ev, nil) {
				return
			}
		}
	}
}

// EventByType returns the sole event of the given type, or nil when none
// exists. More than one match is reported as services.ErrDuplicateSingleton.
func (m *Manager) EventByType(ctx context.Context, sipID, eventType string) (*model.Event, error) {
	var (
		matches []model.Event
		err     error
	)
	if typed, ok := m.log.(typedLog); ok {
		matches, err = typed.EventsOfType(ctx, sipID, eventType)
	} else {
		var all []model.Event
		all, err = m.log.Events(ctx, sipID)
		for _, ev := range all {
			if ev.Type == eventType {
				matches = append(matches, ev)
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("load %s events for %s: %w", eventType, sipID, err)
	}
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("%w: %d %q events for submission %s", services.ErrDuplicateSingleton, len(matches), eventType, sipID)
	}
}

// Submissions lists submissions with recorded events when the underlying log
// supports enumeration.
func (m *Manager) Submissions(ctx context.Context) ([]string, error) {
	lister, ok := m.log.(submissionLister)
	if !ok {
		return nil, errors.New("event log cannot enumerate submissions")
	}
	return lister.Submissions(ctx)
}
