// Package repo persists quota windows in Postgres
package repo

import (
	"context"
	"errors"

	"galactly/internal/modkit/repokit"
	perr "galactly/internal/platform/errors"
	"galactly/internal/platform/store"
	"galactly/internal/services/quota/domain"
)

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// Storage is the quota window table
type Storage interface {
	// List returns every window still open at the given reset horizon
	List(ctx context.Context) ([]domain.Window, error)
	// Charge adds cost to the stored window for w's key while the total stays within limit
	// a stored window resetting before w.ResetAt restarts at cost; a negative limit always applies
	// applied is false when another writer used up the room, stored is then the row as it stands
	Charge(ctx context.Context, w domain.Window, cost, limit int) (stored domain.Window, applied bool, err error)
}

func scanWindow(r repokit.Row) (domain.Window, error) {
	var w domain.Window
	err := r.Scan(&w.Identity, &w.Bucket, &w.Used, &w.ResetAt)
	w.ResetAt = w.ResetAt.UTC()
	return w, err
}

// List implements Storage
func (s *pg) List(ctx context.Context) ([]domain.Window, error) {
	return store.Many(ctx, s.q, scanWindow, `
		SELECT identity, bucket, used, reset_at
		FROM quota_windows
		WHERE reset_at > now()
		ORDER BY identity, bucket`)
}

// Charge implements Storage
// the increment happens in the row so concurrent instances never overwrite each other
func (s *pg) Charge(ctx context.Context, w domain.Window, cost, limit int) (domain.Window, bool, error) {
	got, err := store.One(ctx, s.q, scanWindow, `
		INSERT INTO quota_windows AS q (identity, bucket, used, reset_at, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (identity, bucket) DO UPDATE
		SET used = CASE WHEN q.reset_at < EXCLUDED.reset_at THEN EXCLUDED.used ELSE q.used + EXCLUDED.used END,
			reset_at = GREATEST(q.reset_at, EXCLUDED.reset_at),
			updated_at = now()
		WHERE $5::int < 0
			OR CASE WHEN q.reset_at < EXCLUDED.reset_at THEN EXCLUDED.used ELSE q.used + EXCLUDED.used END <= $5::int
		RETURNING identity, bucket, used, reset_at`,
		w.Identity, w.Bucket, cost, w.ResetAt.UTC(), limit)
	switch {
	case err == nil:
		return got, true, nil
	case !errors.Is(err, perr.ErrNotFound):
		return domain.Window{}, false, err
	}

	got, err = store.One(ctx, s.q, scanWindow, `
		SELECT identity, bucket, used, reset_at
		FROM quota_windows
		WHERE identity = $1 AND bucket = $2`,
		w.Identity, w.Bucket)
	if err != nil {
		return domain.Window{}, false, err
	}
	return got, false, nil
}
