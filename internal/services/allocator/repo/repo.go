// Package repo persists sources, the pull log and the allocator run lease
package repo

import (
	"context"
	"time"

	"galactly/internal/modkit/repokit"
	"galactly/internal/platform/store"
	ptime "galactly/internal/platform/time"
	"galactly/internal/services/allocator/domain"
)

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG returns a binder that produces a PG backed Storage
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind binds a Queryer to a Storage
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: repokit.RequireQueryer(q)} }

// Storage is the allocator persistence surface
type Storage interface {
	List(ctx context.Context) ([]domain.Source, error)
	// Upsert writes the definition columns; allocation columns are kept on conflict
	Upsert(ctx context.Context, s domain.Source) error
	// RecordPull logs one pull and bumps the counters
	RecordPull(ctx context.Context, id string, at time.Time) error
	// Pulls returns pull timestamps at or after since per source
	Pulls(ctx context.Context, since time.Time) (map[string][]time.Time, error)
	// PrunePulls drops log rows older than before
	PrunePulls(ctx context.Context, before time.Time) (int64, error)
	// SaveAllocation writes the allocation columns only
	SaveAllocation(ctx context.Context, s domain.Source) error

	// AcquireLease takes the named run lease for ttl, false when held by another holder
	AcquireLease(ctx context.Context, name, holder string, ttl time.Duration) (bool, error)
	// ReleaseLease frees the lease and records the pass
	ReleaseLease(ctx context.Context, name, holder string, res domain.Result, runErr string) error
}

const sourceColumns = `
	id, kind, value, active, priority, pull_count, success_count,
	last_pull, last_success, created_at, updated_at`

func scanSource(r repokit.Row) (domain.Source, error) {
	var (
		s                     domain.Source
		kind                  string
		lastPull, lastSuccess *time.Time
	)
	err := r.Scan(&s.ID, &kind, &s.Value, &s.Active, &s.Priority, &s.PullCount, &s.SuccessCount,
		&lastPull, &lastSuccess, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return domain.Source{}, err
	}
	s.Kind = domain.Kind(kind)
	s.LastPull = ptime.Deref(lastPull).UTC()
	s.LastSuccess = ptime.Deref(lastSuccess).UTC()
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, nil
}

// List implements Storage
func (s *pg) List(ctx context.Context) ([]domain.Source, error) {
	return store.Many(ctx, s.q, scanSource, `SELECT `+sourceColumns+` FROM sources ORDER BY id`)
}

// Upsert implements Storage
func (s *pg) Upsert(ctx context.Context, src domain.Source) error {
	return store.ExecOne(ctx, s.q, `
		INSERT INTO sources (id, kind, value, active, priority, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET kind = EXCLUDED.kind, value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		src.ID, string(src.Kind), src.Value, src.Active, src.Priority, src.CreatedAt.UTC(), src.UpdatedAt.UTC())
}

// RecordPull implements Storage
func (s *pg) RecordPull(ctx context.Context, id string, at time.Time) error {
	if err := store.ExecOne(ctx, s.q, `
		UPDATE sources SET pull_count = pull_count + 1, last_pull = $2
		WHERE id = $1`, id, at.UTC()); err != nil {
		return err
	}
	return store.ExecOne(ctx, s.q, `INSERT INTO source_pulls (source_id, at) VALUES ($1, $2)`, id, at.UTC())
}

// Pulls implements Storage
func (s *pg) Pulls(ctx context.Context, since time.Time) (map[string][]time.Time, error) {
	type row struct {
		id string
		at time.Time
	}
	rows, err := store.Many(ctx, s.q, func(r repokit.Row) (row, error) {
		var x row
		err := r.Scan(&x.id, &x.at)
		return x, err
	}, `SELECT source_id, at FROM source_pulls WHERE at >= $1 ORDER BY source_id, at`, since.UTC())
	if err != nil {
		return nil, err
	}
	out := map[string][]time.Time{}
	for _, r := range rows {
		out[r.id] = append(out[r.id], r.at.UTC())
	}
	return out, nil
}

// PrunePulls implements Storage
func (s *pg) PrunePulls(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.q.Exec(ctx, `DELETE FROM source_pulls WHERE at < $1`, before.UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// SaveAllocation implements Storage
func (s *pg) SaveAllocation(ctx context.Context, src domain.Source) error {
	return store.ExecOne(ctx, s.q, `
		UPDATE sources
		SET priority = $2, active = $3, success_count = $4, last_success = $5, updated_at = $6
		WHERE id = $1`,
		src.ID, src.Priority, src.Active, src.SuccessCount, ptime.Ptr(src.LastSuccess), src.UpdatedAt.UTC())
}

// AcquireLease implements Storage
func (s *pg) AcquireLease(ctx context.Context, name, holder string, ttl time.Duration) (bool, error) {
	if _, err := s.q.Exec(ctx, `
		INSERT INTO allocator_runs (name) VALUES ($1)
		ON CONFLICT (name) DO NOTHING`, name); err != nil {
		return false, err
	}
	tag, err := s.q.Exec(ctx, `
		UPDATE allocator_runs
		SET holder = $2, lease_until = now() + make_interval(secs => $3), started_at = now()
		WHERE name = $1 AND (lease_until < now() OR holder = $2)`,
		name, holder, ttl.Seconds())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ReleaseLease implements Storage
func (s *pg) ReleaseLease(ctx context.Context, name, holder string, res domain.Result, runErr string) error {
	return store.ExecOne(ctx, s.q, `
		UPDATE allocator_runs
		SET lease_until = 'epoch', finished_at = now(),
			updated_sources = $3, activated = $4, last_error = $5
		WHERE name = $1 AND holder = $2`,
		name, holder, res.UpdatedSources, res.ActivatedCount, runErr)
}
