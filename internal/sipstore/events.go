package sipstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/codec"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/model"
)

// AppendEvent adds ev to the end of the submission's event history.
func (s *Store) AppendEvent(ctx context.Context, sipID string, ev model.Event) error {
	if sipID == "" {
		return errors.New("sip id is empty")
	}
	body, err := codec.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO sip_events (sip_id, event_id, event_type, event_date, body) VALUES (?, ?, ?, ?, ?)`,
		sipID, ev.ID, ev.Type, formatTime(ev.Date), body,
	); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// Events returns the submission's events in append order.
func (s *Store) Events(ctx context.Context, sipID string) ([]model.Event, error) {
	return s.queryEvents(ctx, `SELECT body FROM sip_events WHERE sip_id = ? ORDER BY seq`, sipID)
}

// EventsOfType returns the submission's events of one type in append order.
func (s *Store) EventsOfType(ctx context.Context, sipID, eventType string) ([]model.Event, error) {
	return s.queryEvents(ctx,
		`SELECT body FROM sip_events WHERE sip_id = ? AND event_type = ? ORDER BY seq`, sipID, eventType)
}

// Submissions returns every submission id with at least one recorded event.
func (s *Store) Submissions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT sip_id FROM sip_events GROUP BY sip_id ORDER BY MIN(seq)`)
	if err != nil {
		return nil, fmt.Errorf("list event submissions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan submission id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]model.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []model.Event
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		var ev model.Event
		if err := codec.Unmarshal(body, &ev); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
