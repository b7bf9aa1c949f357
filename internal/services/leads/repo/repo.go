// Package repo persists lead records in Postgres
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"galactly/internal/core/scoring"
	"galactly/internal/core/signal"
	"galactly/internal/modkit/repokit"
	"galactly/internal/platform/store"
	ptime "galactly/internal/platform/time"
	"galactly/internal/services/leads/domain"
)

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// Storage is the leads table
type Storage interface {
	// Insert stores a new lead, inserted is false when the dedup key already exists
	Insert(ctx context.Context, l domain.Lead) (inserted bool, err error)
	Get(ctx context.Context, id uuid.UUID) (domain.Lead, error)
	// List returns every lead, expired ones included
	List(ctx context.Context) ([]domain.Lead, error)
	// SaveScore writes the score fields only
	SaveScore(ctx context.Context, id uuid.UUID, score int, at time.Time) error
	// SaveLifecycle writes the lifecycle fields only
	SaveLifecycle(ctx context.Context, l domain.Lead) error
}

const leadColumns = `
	id::text, dedup_key, source_id, platform, region, link, snippet, phrases,
	intent, score, generated_at, posted_at, scored_at,
	lifecycle_state, owner, owned_at, hide_until, claim_seq, created_at, updated_at`

func scanLead(r repokit.Row) (domain.Lead, error) {
	var (
		l                  domain.Lead
		id                 string
		region, intent     string
		state              string
		owner              *string
		ownedAt, hideUntil *time.Time
	)
	err := r.Scan(
		&id, &l.DedupKey, &l.SourceID, &l.Platform, &region, &l.Link, &l.Snippet, &l.Phrases,
		&intent, &l.Score, &l.GeneratedAt, &l.PostedAt, &l.ScoredAt,
		&state, &owner, &ownedAt, &hideUntil, &l.ClaimSeq, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return domain.Lead{}, err
	}
	if l.ID, err = uuid.Parse(id); err != nil {
		return domain.Lead{}, err
	}
	l.Region = scoring.ParseRegion(region)
	l.Intent = signal.ParseIntent(intent)
	l.State = domain.ParseState(state)
	if owner != nil {
		l.Owner = *owner
	}
	l.OwnedAt = ptime.Deref(ownedAt).UTC()
	l.HideUntil = ptime.Deref(hideUntil).UTC()
	l.GeneratedAt = l.GeneratedAt.UTC()
	l.PostedAt = l.PostedAt.UTC()
	l.ScoredAt = l.ScoredAt.UTC()
	return l, nil
}

// Insert implements Storage
func (s *pg) Insert(ctx context.Context, l domain.Lead) (bool, error) {
	tag, err := s.q.Exec(ctx, `
		INSERT INTO leads (
			id, dedup_key, source_id, platform, region, link, snippet, phrases,
			intent, score, generated_at, posted_at, scored_at,
			lifecycle_state, claim_seq, created_at, updated_at)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 0, $15, $15)
		ON CONFLICT (dedup_key) DO NOTHING`,
		l.ID.String(), l.DedupKey, l.SourceID, l.Platform, string(l.Region), l.Link, l.Snippet, l.Phrases,
		string(l.Intent), l.Score, l.GeneratedAt.UTC(), l.PostedAt.UTC(), l.ScoredAt.UTC(),
		string(l.State), l.CreatedAt.UTC(),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Get implements Storage
func (s *pg) Get(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	return store.One(ctx, s.q, scanLead, `SELECT `+leadColumns+` FROM leads WHERE id = $1::uuid`, id.String())
}

// List implements Storage
func (s *pg) List(ctx context.Context) ([]domain.Lead, error) {
	return store.Many(ctx, s.q, scanLead, `SELECT `+leadColumns+` FROM leads ORDER BY created_at, id`)
}

// SaveScore implements Storage
func (s *pg) SaveScore(ctx context.Context, id uuid.UUID, score int, at time.Time) error {
	return store.ExecOne(ctx, s.q, `
		UPDATE leads SET score = $2, scored_at = $3
		WHERE id = $1::uuid`,
		id.String(), score, at.UTC())
}

// SaveLifecycle implements Storage
func (s *pg) SaveLifecycle(ctx context.Context, l domain.Lead) error {
	return store.ExecOne(ctx, s.q, `
		UPDATE leads
		SET lifecycle_state = $2, owner = $3, owned_at = $4, hide_until = $5,
			claim_seq = $6, updated_at = $7
		WHERE id = $1::uuid`,
		l.ID.String(), string(l.State), nullable(l.Owner), ptime.Ptr(l.OwnedAt), ptime.Ptr(l.HideUntil),
		l.ClaimSeq, l.UpdatedAt.UTC(),
	)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
