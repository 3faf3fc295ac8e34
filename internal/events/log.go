package events

import (
	"context"
	"slices"
	"sync"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/model"
)

// EventLog persists per-submission event histories. Implementations must make
// each call atomic and keep per-submission append order.
type EventLog interface {
	AppendEvent(ctx context.Context, sipID string, ev model.Event) error
	Events(ctx context.Context, sipID string) ([]model.Event, error)
}

// typedLog is implemented by logs that can filter by type natively.
type typedLog interface {
	EventsOfType(ctx context.Context, sipID, eventType string) ([]model.Event, error)
}

// submissionLister is implemented by logs that can enumerate submissions.
type submissionLister interface {
	Submissions(ctx context.Context) ([]string, error)
}

// MemoryLog is an in-process EventLog.
type MemoryLog struct {
	mu     sync.RWMutex
	events map[string][]model.Event
	order  []string
}

// NewMemoryLog returns an empty MemoryLog.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{events: make(map[string][]model.Event)}
}

func (l *MemoryLog) AppendEvent(_ context.Context, sipID string, ev model.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, seen := l.events[sipID]; !seen {
		l.order = append(l.order, sipID)
	}
	l.events[sipID] = append(l.events[sipID], ev.Clone())
	return nil
}

func (l *MemoryLog) Events(_ context.Context, sipID string) ([]model.Event, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneEvents(l.events[sipID], nil), nil
}

func (l *MemoryLog) EventsOfType(_ context.Context, sipID, eventType string) ([]model.Event, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneEvents(l.events[sipID], func(ev model.Event) bool { return ev.Type == eventType }), nil
}

func (l *MemoryLog) Submissions(context.Context) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.order), nil
}

func cloneEvents(in []model.Event, keep func(model.Event) bool) []model.Event {
	out := make([]model.Event, 0, len(in))
	for _, ev := range in {
		if keep == nil || keep(ev) {
			out = append(out, ev.Clone())
		}
	}
	return out
}
