// Package repo persists claim events in Postgres and mirrors them to ClickHouse
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"galactly/internal/modkit/repokit"
	perr "galactly/internal/platform/errors"
	"galactly/internal/platform/store"
	"galactly/internal/services/claims/domain"
)

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// Storage is the claim_events table
type Storage interface {
	Append(ctx context.Context, e domain.Event) error
	// List returns every event ordered by lead and seq
	List(ctx context.Context) ([]domain.Event, error)
	// ListLead returns one lead's events ordered by seq
	ListLead(ctx context.Context, id uuid.UUID) ([]domain.Event, error)
	// Outcomes counts claim events since the cutoff per lead source
	Outcomes(ctx context.Context, since time.Time) (map[string]domain.Outcome, error)
}

func scanEvent(r repokit.Row) (domain.Event, error) {
	var (
		e    domain.Event
		id   string
		kind string
	)
	if err := r.Scan(&id, &e.Seq, &e.Identity, &kind, &e.HideRequested, &e.At, &e.SourceID); err != nil {
		return domain.Event{}, err
	}
	lid, err := uuid.Parse(id)
	if err != nil {
		return domain.Event{}, err
	}
	e.LeadID = lid
	e.Kind = domain.Kind(kind)
	e.At = e.At.UTC()
	return e, nil
}

// Append implements Storage
// the (lead_id, seq) key rejects a second writer for the same slot
func (s *pg) Append(ctx context.Context, e domain.Event) error {
	return store.ExecOne(ctx, s.q, `
		INSERT INTO claim_events (lead_id, seq, identity, kind, hide_requested, at)
		VALUES ($1::uuid, $2, $3, $4, $5, $6)`,
		e.LeadID.String(), e.Seq, e.Identity, string(e.Kind), e.HideRequested, e.At.UTC())
}

// IsSeqConflict reports whether err is another writer holding the same (lead_id, seq) slot
func IsSeqConflict(err error) bool {
	pgErr, ok := perr.ExtractPgError(err)
	return ok && perr.IsDuplicateKey(err) && pgErr.ConstraintName == seqConstraint
}

const seqConstraint = "claim_events_pkey"

// List implements Storage
func (s *pg) List(ctx context.Context) ([]domain.Event, error) {
	return store.Many(ctx, s.q, scanEvent, `
		SELECT e.lead_id::text, e.seq, e.identity, e.kind, e.hide_requested, e.at, l.source_id
		FROM claim_events e
		JOIN leads l ON l.id = e.lead_id
		ORDER BY e.lead_id, e.seq`)
}

// ListLead implements Storage
func (s *pg) ListLead(ctx context.Context, id uuid.UUID) ([]domain.Event, error) {
	return store.Many(ctx, s.q, scanEvent, `
		SELECT e.lead_id::text, e.seq, e.identity, e.kind, e.hide_requested, e.at, l.source_id
		FROM claim_events e
		JOIN leads l ON l.id = e.lead_id
		WHERE e.lead_id = $1::uuid
		ORDER BY e.seq`, id.String())
}

// Outcomes implements Storage
func (s *pg) Outcomes(ctx context.Context, since time.Time) (map[string]domain.Outcome, error) {
	type row struct {
		source string
		o      domain.Outcome
	}
	rows, err := store.Many(ctx, s.q, func(r repokit.Row) (row, error) {
		var x row
		err := r.Scan(&x.source, &x.o.Wins, &x.o.LastWin)
		x.o.LastWin = x.o.LastWin.UTC()
		return x, err
	}, `
		SELECT l.source_id, count(*)::int, max(e.at)
		FROM claim_events e
		JOIN leads l ON l.id = e.lead_id
		WHERE e.kind = 'claim' AND e.at >= $1 AND l.source_id <> ''
		GROUP BY l.source_id`, since.UTC())
	if err != nil {
		return nil, err
	}
	out := make(map[string]domain.Outcome, len(rows))
	for _, r := range rows {
		out[r.source] = r.o
	}
	return out, nil
}

// OutcomeReader reads outcomes straight from Postgres, for processes without a coordinator
func OutcomeReader(q repokit.Queryer) domain.OutcomePort { return &pg{q: q} }
