// Package store persists composition records: a key-value upsert by
// composition id carrying status and the final output URL.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("store: composition not found")

const schema = `
CREATE TABLE IF NOT EXISTS compositions (
	id            TEXT PRIMARY KEY,
	status        TEXT NOT NULL,
	output_url    TEXT NOT NULL DEFAULT '',
	error_message TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL,
	completed_at  TIMESTAMPTZ
)`

// Composition is one render record.
type Composition struct {
	ID           string
	Status       string
	OutputURL    string
	ErrorMessage string
	CreatedAt    time.Time
	CompletedAt  *time.Time
}

// GetDuration is the wall-clock time from creation to completion, zero
// while the render is still running.
func (c *Composition) GetDuration() time.Duration {
	if c.CompletedAt == nil {
		return 0
	}
	return c.CompletedAt.Sub(c.CreatedAt)
}

type CompositionStore struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *CompositionStore {
	return &CompositionStore{pool: pool}
}

// EnsureSchema creates the compositions table if it does not exist.
func (s *CompositionStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Upsert creates or replaces the record for a composition id.
func (s *CompositionStore) Upsert(ctx context.Context, comp *Composition) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO compositions (id, status, output_url, error_message, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			output_url = EXCLUDED.output_url,
			error_message = EXCLUDED.error_message,
			completed_at = EXCLUDED.completed_at`,
		comp.ID, comp.Status, comp.OutputURL, comp.ErrorMessage, comp.CreatedAt, comp.CompletedAt)
	if err != nil {
		return fmt.Errorf("upsert composition %s: %w", comp.ID, err)
	}
	return nil
}

// UpdateStatus advances a composition's status, setting completed_at when
// the status is terminal.
func (s *CompositionStore) UpdateStatus(ctx context.Context, id, status, outputURL, errorMessage string, completedAt *time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE compositions
		SET status = $2, output_url = $3, error_message = $4, completed_at = $5
		WHERE id = $1`,
		id, status, outputURL, errorMessage, completedAt)
	if err != nil {
		return fmt.Errorf("update composition %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Get reads one composition record.
func (s *CompositionStore) Get(ctx context.Context, id string) (*Composition, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, status, output_url, error_message, created_at, completed_at
		FROM compositions WHERE id = $1`, id)

	comp := &Composition{}
	err := row.Scan(&comp.ID, &comp.Status, &comp.OutputURL, &comp.ErrorMessage, &comp.CreatedAt, &comp.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get composition %s: %w", id, err)
	}
	return comp, nil
}

// ListExpired returns terminal compositions that completed before the
// cutoff, oldest first, capped at limit.
func (s *CompositionStore) ListExpired(ctx context.Context, cutoff time.Time, limit int) ([]*Composition, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, status, output_url, error_message, created_at, completed_at
		FROM compositions
		WHERE completed_at IS NOT NULL AND completed_at < $1
		ORDER BY completed_at
		LIMIT $2`, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired compositions: %w", err)
	}
	defer rows.Close()

	var comps []*Composition
	for rows.Next() {
		comp := &Composition{}
		if err := rows.Scan(&comp.ID, &comp.Status, &comp.OutputURL, &comp.ErrorMessage, &comp.CreatedAt, &comp.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan expired composition: %w", err)
		}
		comps = append(comps, comp)
	}
	return comps, rows.Err()
}

// Delete removes one composition record.
func (s *CompositionStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM compositions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete composition %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *CompositionStore) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
