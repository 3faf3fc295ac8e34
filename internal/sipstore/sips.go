package sipstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/codec"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/model"
)

// Summary describes a staged submission without decoding its package.
type Summary struct {
	ID          string
	EntityCount int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AddSIP stores pkg under a freshly generated id.
func (s *Store) AddSIP(ctx context.Context, pkg *model.Package) (string, error) {
	if pkg == nil {
		return "", errors.New("package is nil")
	}
	body, err := codec.Marshal(pkg)
	if err != nil {
		return "", fmt.Errorf("encode package: %w", err)
	}
	id := uuid.NewString()
	now := formatTime(time.Now())
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO sips (id, package, entity_count, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, body, pkg.Len(), now, now,
	); err != nil {
		return "", fmt.Errorf("insert sip: %w", err)
	}
	return id, nil
}

// GetSIP returns the staged package, or nil without error when id is unknown.
func (s *Store) GetSIP(ctx context.Context, id string) (*model.Package, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT package FROM sips WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sip: %w", err)
	}
	var pkg model.Package
	if err := codec.Unmarshal(body, &pkg); err != nil {
		return nil, fmt.Errorf("decode sip %s: %w", id, err)
	}
	return &pkg, nil
}

// UpdateSIP replaces the stored package. Unknown ids are inserted.
func (s *Store) UpdateSIP(ctx context.Context, pkg *model.Package, id string) error {
	if pkg == nil {
		return errors.New("package is nil")
	}
	if id == "" {
		return errors.New("sip id is empty")
	}
	body, err := codec.Marshal(pkg)
	if err != nil {
		return fmt.Errorf("encode package: %w", err)
	}
	now := formatTime(time.Now())
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO sips (id, package, entity_count, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET package = excluded.package,
             entity_count = excluded.entity_count, updated_at = excluded.updated_at`,
		id, body, pkg.Len(), now, now,
	); err != nil {
		return fmt.Errorf("update sip: %w", err)
	}
	return nil
}

// RemoveSIP deletes the submission. Removing an unknown id is a no-op.
func (s *Store) RemoveSIP(ctx context.Context, id string) error {
	if _, err := s.execWithRetry(ctx, `DELETE FROM sips WHERE id = ?`, id); err != nil {
		return fmt.Errorf("remove sip: %w", err)
	}
	return nil
}

// Keys returns a snapshot of every staged id.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM sips ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list sip ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan sip id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// List returns summaries of every staged submission, oldest first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, entity_count, created_at, updated_at FROM sips ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list sips: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum              Summary
			created, updated string
		)
		if err := rows.Scan(&sum.ID, &sum.EntityCount, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan sip: %w", err)
		}
		sum.CreatedAt = parseTime(created)
		sum.UpdatedAt = parseTime(updated)
		out = append(out, sum)
	}
	return out, rows.Err()
}
