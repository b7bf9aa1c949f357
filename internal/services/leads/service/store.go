// Package service implements the lead store
// records live in memory partitioned by lead id; Postgres is the optional durable copy
package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"galactly/internal/core/scoring"
	"galactly/internal/core/signal"
	"galactly/internal/modkit/repokit"
	perr "galactly/internal/platform/errors"
	"galactly/internal/platform/keyed"
	"galactly/internal/platform/logger"
	dom "galactly/internal/services/leads/domain"
	"galactly/internal/services/leads/repo"
)

// Feed bounds
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Config for the store
type Config struct {
	Now func() time.Time
	Log *logger.Logger
}

// Store owns every lead record
type Store struct {
	cfg    Config
	db     repokit.TxRunner
	binder repokit.Binder[repo.Storage]
	norm   *signal.Normalizer
	scorer *scoring.Scorer

	locks keyed.Mutex

	mu   sync.RWMutex
	byID map[uuid.UUID]dom.Lead
}

// New constructs a store; db may be nil, nil normalizer or scorer use the embedded lexicon
func New(db repokit.TxRunner, binder repokit.Binder[repo.Storage], norm *signal.Normalizer, scorer *scoring.Scorer, cfg Config) *Store {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Log == nil {
		nop := logger.Nop()
		cfg.Log = &nop
	}
	if binder == nil {
		binder = repo.NewPG()
	}
	if norm == nil {
		norm = signal.New(nil, signal.Options{})
	}
	if scorer == nil {
		scorer = scoring.New(nil)
	}
	return &Store{
		cfg:    cfg,
		db:     db,
		binder: binder,
		norm:   norm,
		scorer: scorer,
		byID:   make(map[uuid.UUID]dom.Lead),
	}
}

// Load warms the store from Postgres
func (s *Store) Load(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	ls, err := s.binder.Bind(s.db).List(ctx)
	if err != nil {
		return perr.FromPostgres(err, "load leads")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range ls {
		s.byID[l.ID] = l
	}
	s.cfg.Log.Info().Int("leads", len(ls)).Msg("leads loaded")
	return nil
}

// Score implements domain.StorePort
func (s *Store) Score(ctx context.Context, raw dom.RawItem) (dom.Lead, bool, error) {
	if strings.TrimSpace(raw.Text) == "" {
		return dom.Lead{}, false, perr.WithField(perr.Validationf("evidence_text is required"), "evidence_text")
	}
	if strings.TrimSpace(raw.Platform) == "" {
		return dom.Lead{}, false, perr.WithField(perr.Validationf("platform is required"), "platform")
	}

	now := s.cfg.Now().UTC()
	generated := raw.Timestamp
	if generated.IsZero() {
		generated = now
	}
	res := s.norm.Normalize(signal.Input{
		Text:        raw.Text,
		Platform:    raw.Platform,
		Link:        raw.Link,
		GeneratedAt: generated,
		PostedAt:    raw.PostedAt,
	})
	id := signal.LeadID(res.DedupKey)

	unlock := s.locks.Lock(id.String())
	defer unlock()

	if l, ok := s.Peek(id); ok {
		return l, false, nil
	}

	l := dom.Lead{
		ID:          id,
		DedupKey:    res.DedupKey,
		SourceID:    strings.TrimSpace(raw.SourceID),
		Platform:    strings.ToLower(strings.TrimSpace(raw.Platform)),
		Region:      scoring.ParseRegion(raw.Region),
		Link:        signal.CanonicalLink(raw.Link),
		Snippet:     res.Snippet,
		Phrases:     res.Phrases,
		Intent:      res.Intent,
		GeneratedAt: generated.UTC(),
		PostedAt:    res.PostedAt,
		ScoredAt:    now,
		State:       dom.StateAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	l.Score = s.scorer.Score(l.ScoreInput(), now)

	if s.db != nil {
		st := s.binder.Bind(s.db)
		inserted, err := st.Insert(ctx, l)
		if err != nil {
			logger.C(ctx).Error().Err(err).Str("lead_id", id.String()).Msg("lead insert failed")
			return dom.Lead{}, false, perr.FromPostgres(err, "insert lead")
		}
		if !inserted {
			// written by another instance since Load
			existing, err := st.Get(ctx, id)
			if err != nil {
				return dom.Lead{}, false, perr.FromPostgres(err, "read lead")
			}
			s.Replace(existing)
			return existing, false, nil
		}
	}
	s.Replace(l)
	return l, true, nil
}

// Get implements domain.StorePort
func (s *Store) Get(_ context.Context, id uuid.UUID) (dom.Lead, error) {
	if l, ok := s.Peek(id); ok {
		return l, nil
	}
	return dom.Lead{}, dom.ErrNotFound(id)
}

// List implements domain.StorePort
// ordered by score, then posted time, then id; expired and foreign hidden leads are skipped
func (s *Store) List(_ context.Context, f dom.Filter) ([]dom.Lead, error) {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	now := s.cfg.Now()

	s.mu.RLock()
	out := make([]dom.Lead, 0, len(s.byID))
	for _, l := range s.byID {
		if l.Expired() || l.Score < f.MinScore {
			continue
		}
		if f.Intent != "" && l.Intent != f.Intent {
			continue
		}
		if l.HiddenFrom(f.Viewer, now) {
			continue
		}
		out = append(out, l)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.PostedAt.Equal(b.PostedAt) {
			return a.PostedAt.After(b.PostedAt)
		}
		return a.ID.String() < b.ID.String()
	})
	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// Rescore recomputes scores at now and writes the ones that changed
// lifecycle fields are never touched; expired leads are skipped
func (s *Store) Rescore(ctx context.Context) (int, error) {
	now := s.cfg.Now().UTC()
	var (
		changed int
		errs    []error
	)
	for _, id := range s.ids() {
		if err := ctx.Err(); err != nil {
			return changed, err
		}
		ok, err := s.rescoreOne(ctx, id, now)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			changed++
		}
	}
	return changed, errors.Join(errs...)
}

func (s *Store) rescoreOne(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	unlock := s.locks.Lock(id.String())
	defer unlock()

	l, ok := s.Peek(id)
	if !ok || l.Expired() {
		return false, nil
	}
	score := s.scorer.Score(l.ScoreInput(), now)
	if score == l.Score {
		return false, nil
	}
	if s.db != nil {
		if err := s.binder.Bind(s.db).SaveScore(ctx, id, score, now); err != nil {
			return false, perr.FromPostgresf(err, "rescore lead %s", id)
		}
	}
	l.Score = score
	l.ScoredAt = now
	s.Replace(l)
	return true, nil
}

// RunRescore rescores every tick until ctx ends
func (s *Store) RunRescore(ctx context.Context, every time.Duration) error {
	if every <= 0 {
		return nil
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			n, err := s.Rescore(ctx)
			if err != nil {
				s.cfg.Log.Error().Err(err).Int("changed", n).Msg("rescore pass failed")
				continue
			}
			s.cfg.Log.Debug().Int("changed", n).Msg("rescore pass")
		}
	}
}

// Lock implements domain.LifecyclePort
func (s *Store) Lock(id uuid.UUID) func() { return s.locks.Lock(id.String()) }

// Peek implements domain.LifecyclePort
func (s *Store) Peek(id uuid.UUID) (dom.Lead, bool) {
	s.mu.RLock()
	l, ok := s.byID[id]
	s.mu.RUnlock()
	return l, ok
}

// Replace implements domain.LifecyclePort
func (s *Store) Replace(l dom.Lead) {
	s.mu.Lock()
	s.byID[l.ID] = l
	s.mu.Unlock()
}

// SaveLifecycle implements domain.LifecyclePort
func (s *Store) SaveLifecycle(ctx context.Context, q repokit.Queryer, l dom.Lead) error {
	return s.binder.Bind(q).SaveLifecycle(ctx, l)
}

// Refresh implements domain.LifecyclePort
// without a database the cached lead is already the only copy
func (s *Store) Refresh(ctx context.Context, id uuid.UUID) (dom.Lead, error) {
	if s.db == nil {
		return s.Get(ctx, id)
	}
	l, err := s.binder.Bind(s.db).Get(ctx, id)
	if err != nil {
		return dom.Lead{}, perr.FromPostgresf(err, "reload lead %s", id)
	}
	s.Replace(l)
	return l, nil
}

// All implements domain.LifecyclePort
func (s *Store) All() []dom.Lead {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]dom.Lead, 0, len(s.byID))
	for _, l := range s.byID {
		out = append(out, l)
	}
	return out
}

// Persistent reports whether leads are written to Postgres
func (s *Store) Persistent() bool { return s.db != nil }

func (s *Store) ids() []uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]uuid.UUID, 0, len(s.byID))
	for id := range s.byID {
		out = append(out, id)
	}
	return out
}
