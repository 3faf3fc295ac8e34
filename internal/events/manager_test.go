package events_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/events"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/logging"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/model"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/services"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/sipstore"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/staging"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/testsupport"
)

// untypedLog hides the native type filter so the fallback path is exercised.
type untypedLog struct{ inner events.EventLog }

func (l untypedLog) AppendEvent(ctx context.Context, id string, ev model.Event) error {
	return l.inner.AppendEvent(ctx, id, ev)
}

func (l untypedLog) Events(ctx context.Context, id string) ([]model.Event, error) {
	return l.inner.Events(ctx, id)
}

func logs(t *testing.T) map[string]events.EventLog {
	t.Helper()
	return map[string]events.EventLog{
		"memory":  events.NewMemoryLog(),
		"untyped": untypedLog{inner: events.NewMemoryLog()},
		"sqlite":  testsupport.MustOpenStore(t, testsupport.NewConfig(t)),
	}
}

func TestNewEventPopulatesIDAndTimestamp(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 7200))
	mgr := events.NewManager(nil, logging.NewNop(), events.WithClock(func() time.Time { return fixed }))

	a := mgr.NewEvent(model.EventIngestStart)
	b := mgr.NewEvent(model.EventIngestStart)
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, model.EventIngestStart, a.Type)
	assert.True(t, a.Date.Equal(fixed))
	assert.Equal(t, time.UTC, a.Date.Location())
	assert.Empty(t, a.Outcome)
	assert.Empty(t, a.Targets())
}

func TestAddEventRejectsUnmintedEvents(t *testing.T) {
	mgr := events.NewManager(nil, logging.NewNop())
	ctx := context.Background()

	err := mgr.AddEvent(ctx, "sip", model.Event{Type: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, services.ErrValidation))

	ev := mgr.NewEvent("")
	assert.Error(t, mgr.AddEvent(ctx, "sip", ev))
	assert.Error(t, mgr.AddEvent(ctx, "", mgr.NewEvent("x")))
}

func TestAddEventChecksStagedPackage(t *testing.T) {
	ctx := context.Background()
	stager := staging.NewMemoryStager()
	mgr := events.NewManager(events.NewMemoryLog(), logging.NewNop(), events.WithPackageSource(stager))

	own := testsupport.MustStage(t, stager, testsupport.SamplePackage("own", "/in"))
	testsupport.MustStage(t, stager, testsupport.SamplePackage("other", "/in"))

	ok := mgr.NewEvent(model.EventValidation)
	ok.AddTargets("own-file", "own-du")
	require.NoError(t, mgr.AddEvent(ctx, own, ok))

	foreign := mgr.NewEvent(model.EventValidation)
	foreign.AddTargets("own-file", "other-file")
	err := mgr.AddEvent(ctx, own, foreign)
	require.Error(t, err)
	assert.True(t, errors.Is(err, services.ErrValidation))
	assert.Contains(t, err.Error(), "other-file")

	unstaged := mgr.NewEvent(model.EventValidation)
	unstaged.AddTargets("own-file")
	err = mgr.AddEvent(ctx, "never-staged", unstaged)
	require.Error(t, err)
	assert.True(t, errors.Is(err, services.ErrValidation))

	got, err := mgr.Events(ctx, own)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ok.ID, got[0].ID)

	// A failure for a submission that is gone is still recorded.
	require.NoError(t, stager.RemoveSIP(ctx, own))
	require.NoError(t, mgr.AddEvent(ctx, own, mgr.NewEvent(model.EventIngestFail)))
	require.NoError(t, mgr.AddEvent(ctx, "never-staged", mgr.NewEvent(model.EventIngestFail)))
	assert.Error(t, mgr.AddEvent(ctx, own, mgr.NewEvent(model.EventArchive)))
}

func TestEventsPreserveInsertionOrder(t *testing.T) {
	for name, log := range logs(t) {
		t.Run(name, func(t *testing.T) {
			mgr := events.NewManager(log, logging.NewNop())
			ctx := context.Background()

			var want []string
			for i := range 5 {
				ev := mgr.NewEvent(fmt.Sprintf("type-%d", i))
				ev.AddTargets("e1")
				require.NoError(t, mgr.AddEvent(ctx, "sip-1", ev))
				want = append(want, ev.ID)
			}
			require.NoError(t, mgr.AddEvent(ctx, "sip-2", mgr.NewEvent("other")))

			got, err := mgr.Events(ctx, "sip-1")
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, ev := range got {
				ids = append(ids, ev.ID)
			}
			assert.Equal(t, want, ids)

			var lazy []string
			for ev, err := range mgr.All(ctx, "sip-1") {
				require.NoError(t, err)
				lazy = append(lazy, ev.ID)
				if len(lazy) == 2 {
					break
				}
			}
			assert.Equal(t, want[:2], lazy)
		})
	}
}

func TestEventByTypeSingletonSemantics(t *testing.T) {
	for name, log := range logs(t) {
		t.Run(name, func(t *testing.T) {
			mgr := events.NewManager(log, logging.NewNop())
			ctx := context.Background()

			start := mgr.NewEvent(model.EventIngestStart)
			start.AddTargets("du-1")
			require.NoError(t, mgr.AddEvent(ctx, "sip", start))
			require.NoError(t, mgr.AddEvent(ctx, "sip", mgr.NewEvent(model.EventValidation)))

			got, err := mgr.EventByType(ctx, "sip", model.EventIngestStart)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, start.ID, got.ID)
			assert.Equal(t, []string{"du-1"}, got.Targets())

			none, err := mgr.EventByType(ctx, "sip", model.EventIngestFail)
			require.NoError(t, err)
			assert.Nil(t, none)

			require.NoError(t, mgr.AddEvent(ctx, "sip", mgr.NewEvent(model.EventIngestStart)))
			_, err = mgr.EventByType(ctx, "sip", model.EventIngestStart)
			require.Error(t, err)
			assert.True(t, errors.Is(err, services.ErrDuplicateSingleton))
		})
	}
}

func TestStoredEventsAreIsolatedFromCallerMutation(t *testing.T) {
	mgr := events.NewManager(events.NewMemoryLog(), logging.NewNop())
	ctx := context.Background()

	ev := mgr.NewEvent(model.EventValidation)
	ev.AddTargets("a")
	require.NoError(t, mgr.AddEvent(ctx, "sip", ev))
	ev.AddTargets("b")
	ev.Outcome = "changed"

	got, err := mgr.Events(ctx, "sip")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"a"}, got[0].Targets())
	assert.Empty(t, got[0].Outcome)
}

func TestConcurrentAppendsToDistinctSubmissions(t *testing.T) {
	mgr := events.NewManager(events.NewMemoryLog(), logging.NewNop())
	ctx := context.Background()

	const subs, perSub = 16, 20
	var wg sync.WaitGroup
	for i := range subs {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			sip := fmt.Sprintf("sip-%d", n)
			for j := range perSub {
				ev := mgr.NewEvent(fmt.Sprintf("step-%d", j))
				ev.AddTargets(sip)
				if !assert.NoError(t, mgr.AddEvent(ctx, sip, ev)) {
					return
				}
			}
		}(i)
	}
	wg.Wait()

	for i := range subs {
		sip := fmt.Sprintf("sip-%d", i)
		got, err := mgr.Events(ctx, sip)
		require.NoError(t, err)
		require.Len(t, got, perSub)
		for j, ev := range got {
			assert.Equal(t, fmt.Sprintf("step-%d", j), ev.Type)
			assert.Equal(t, []string{sip}, ev.Targets())
		}
	}

	all, err := mgr.Submissions(ctx)
	require.NoError(t, err)
	assert.Len(t, all, subs)
}

func TestSubmissionsUnsupported(t *testing.T) {
	mgr := events.NewManager(untypedLog{inner: events.NewMemoryLog()}, logging.NewNop())
	_, err := mgr.Submissions(context.Background())
	assert.Error(t, err)
}

var _ events.EventLog = (*sipstore.Store)(nil)
