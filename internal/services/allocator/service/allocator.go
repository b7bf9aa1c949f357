// Package service implements the source allocator
// a pass computes the whole table first, persists it in one transaction, then swaps it in
package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"galactly/internal/modkit/repokit"
	perr "galactly/internal/platform/errors"
	"galactly/internal/platform/keyed"
	"galactly/internal/platform/logger"
	"galactly/internal/services/allocator/domain"
	"galactly/internal/services/allocator/repo"
)

// Config for the allocator
type Config struct {
	// Window is the trailing pull and outcome window
	Window time.Duration
	// TopN sources stay active after a pass
	TopN int
	Now  func() time.Time
	Log  *logger.Logger
}

// Allocator owns the source table
type Allocator struct {
	cfg      Config
	db       repokit.TxRunner
	binder   repokit.Binder[repo.Storage]
	outcomes domain.OutcomePort
	lease    domain.Lease

	// run serializes passes inside the process, lease across processes
	run   sync.Mutex
	locks keyed.Mutex

	mu      sync.RWMutex
	sources map[string]domain.Source
	pulls   map[string][]time.Time
}

var errNoOutcomes = errors.New("no outcome reader configured")

// New constructs an allocator; db and lease may be nil
func New(db repokit.TxRunner, binder repokit.Binder[repo.Storage], outcomes domain.OutcomePort, lease domain.Lease, cfg Config) *Allocator {
	if cfg.Window <= 0 {
		cfg.Window = domain.DefaultWindow
	}
	if cfg.TopN <= 0 {
		cfg.TopN = domain.DefaultTopN
	}
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
	return &Allocator{
		cfg:      cfg,
		db:       db,
		binder:   binder,
		outcomes: outcomes,
		lease:    lease,
		sources:  make(map[string]domain.Source),
		pulls:    make(map[string][]time.Time),
	}
}

// Load warms sources and the pull log inside the window
func (a *Allocator) Load(ctx context.Context) error {
	if a.db == nil {
		return nil
	}
	st := a.binder.Bind(a.db)
	ss, err := st.List(ctx)
	if err != nil {
		return perr.FromPostgres(err, "load sources")
	}
	pulls, err := st.Pulls(ctx, a.cfg.Now().Add(-a.cfg.Window))
	if err != nil {
		return perr.FromPostgres(err, "load source pulls")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, s := range ss {
		a.sources[s.ID] = s
	}
	a.pulls = pulls
	a.cfg.Log.Info().Int("sources", len(ss)).Int("pulling", len(pulls)).Msg("sources loaded")
	return nil
}

// Upsert implements domain.ServicePort
// redefining a source keeps its allocation; a new source starts inactive at the neutral prior
func (a *Allocator) Upsert(ctx context.Context, def domain.Definition) (domain.Source, bool, error) {
	def.ID = strings.TrimSpace(def.ID)
	def.Value = strings.TrimSpace(def.Value)
	if def.ID == "" {
		return domain.Source{}, false, perr.WithField(perr.Validationf("source id is required"), "id")
	}
	if !def.Kind.Valid() {
		return domain.Source{}, false, perr.WithField(perr.Validationf("unknown source kind %q", def.Kind), "kind")
	}
	if def.Value == "" {
		return domain.Source{}, false, perr.WithField(perr.Validationf("source value is required"), "value")
	}

	unlock := a.locks.Lock(def.ID)
	defer unlock()

	now := a.cfg.Now().UTC()
	s, exists := a.peek(def.ID)
	if !exists {
		s = domain.Source{ID: def.ID, Priority: domain.NeutralPrior, CreatedAt: now}
	}
	s.Kind = def.Kind
	s.Value = def.Value
	s.UpdatedAt = now

	if a.db != nil {
		if err := a.binder.Bind(a.db).Upsert(ctx, s); err != nil {
			return domain.Source{}, false, perr.FromPostgres(err, "upsert source")
		}
	}
	a.mu.Lock()
	if cur, ok := a.sources[s.ID]; ok {
		cur.Kind, cur.Value, cur.UpdatedAt = s.Kind, s.Value, s.UpdatedAt
		s = cur
	}
	a.sources[s.ID] = s
	a.mu.Unlock()
	return s, !exists, nil
}

// Get implements domain.ServicePort
func (a *Allocator) Get(_ context.Context, id string) (domain.Source, error) {
	s, ok := a.peek(id)
	if !ok {
		return domain.Source{}, domain.ErrNotFound(id)
	}
	return s, nil
}

// List implements domain.ServicePort
func (a *Allocator) List(_ context.Context, activeOnly bool) ([]domain.Source, error) {
	a.mu.RLock()
	out := make([]domain.Source, 0, len(a.sources))
	for _, s := range a.sources {
		if activeOnly && !s.Active {
			continue
		}
		out = append(out, s)
	}
	a.mu.RUnlock()
	Rank(out)
	return out, nil
}

// RecordPull implements domain.ServicePort
func (a *Allocator) RecordPull(ctx context.Context, id string) (domain.Source, error) {
	unlock := a.locks.Lock(id)
	defer unlock()

	s, ok := a.peek(id)
	if !ok {
		return domain.Source{}, domain.ErrNotFound(id)
	}
	now := a.cfg.Now().UTC()
	s.PullCount++
	s.LastPull = now

	if a.db != nil {
		err := a.db.Tx(ctx, func(q repokit.Queryer) error {
			return a.binder.Bind(q).RecordPull(ctx, id, now)
		})
		if err != nil {
			return domain.Source{}, perr.FromPostgres(err, "record pull")
		}
	}

	a.mu.Lock()
	cur := a.sources[id]
	cur.PullCount, cur.LastPull = s.PullCount, s.LastPull
	a.sources[id] = cur
	a.pulls[id] = append(a.pulls[id], now)
	a.mu.Unlock()
	return cur, nil
}

// Reallocate implements domain.ServicePort
// a failed pass leaves every priority as it was
func (a *Allocator) Reallocate(ctx context.Context) (domain.Result, error) {
	if !a.run.TryLock() {
		return domain.Result{}, domain.ErrRunInProgress()
	}
	defer a.run.Unlock()

	if a.lease == nil {
		return a.reallocate(ctx)
	}
	release, ok, err := a.lease.Acquire(ctx)
	if err != nil {
		return domain.Result{}, perr.Wrapf(err, perr.ErrorCodeUnavailable, "acquire allocator lease")
	}
	if !ok {
		a.cfg.Log.Info().Msg("reallocation skipped, lease held elsewhere")
		return domain.Result{}, domain.ErrRunInProgress()
	}
	res, runErr := a.reallocate(ctx)
	if err := release(context.WithoutCancel(ctx), res, runErr); err != nil {
		a.cfg.Log.Warn().Err(err).Msg("release allocator lease")
	}
	return res, runErr
}

func (a *Allocator) reallocate(ctx context.Context) (domain.Result, error) {
	now := a.cfg.Now().UTC()
	since := now.Add(-a.cfg.Window)

	if a.outcomes == nil {
		return domain.Result{}, domain.ErrSourceUnavailable(errNoOutcomes)
	}
	outcomes, err := a.outcomes.Outcomes(ctx, since)
	if err != nil {
		a.cfg.Log.Warn().Err(err).Msg("claim outcomes unavailable, priorities kept")
		return domain.Result{}, domain.ErrSourceUnavailable(err)
	}

	srcs, pulls := a.snapshot(since)
	next, activated := Allocate(srcs, pulls, outcomes, a.cfg.TopN, now)

	if err := a.persist(ctx, next, since); err != nil {
		a.cfg.Log.Error().Err(err).Msg("allocation not saved, priorities kept")
		return domain.Result{}, perr.FromPostgres(err, "save allocation")
	}
	a.swap(next, since)

	res := domain.Result{UpdatedSources: len(next), ActivatedCount: activated, At: now, Since: since}
	a.cfg.Log.Info().
		Int("updated_sources", res.UpdatedSources).
		Int("activated", res.ActivatedCount).
		Int("with_outcomes", len(outcomes)).
		Msg("sources reallocated")
	return res, nil
}

// RunLoop reallocates now and then every tick until ctx ends
func (a *Allocator) RunLoop(ctx context.Context, every time.Duration) error {
	if every <= 0 {
		return nil
	}
	a.tick(ctx)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			a.tick(ctx)
		}
	}
}

func (a *Allocator) tick(ctx context.Context) {
	_, err := a.Reallocate(ctx)
	switch {
	case err == nil, ctx.Err() != nil:
	case perr.IsReason(err, domain.ReasonRunInProgress):
		a.cfg.Log.Debug().Msg("reallocation already running")
	default:
		a.cfg.Log.Error().Err(err).Msg("reallocation failed")
	}
}

func (a *Allocator) persist(ctx context.Context, next []domain.Source, since time.Time) error {
	if a.db == nil {
		return nil
	}
	return a.db.Tx(ctx, func(q repokit.Queryer) error {
		st := a.binder.Bind(q)
		for _, s := range next {
			if err := st.SaveAllocation(ctx, s); err != nil {
				return err
			}
		}
		_, err := st.PrunePulls(ctx, since)
		return err
	})
}

// snapshot copies the table and counts pulls at or after since
func (a *Allocator) snapshot(since time.Time) ([]domain.Source, map[string]int) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	srcs := make([]domain.Source, 0, len(a.sources))
	for _, s := range a.sources {
		srcs = append(srcs, s)
	}
	pulls := make(map[string]int, len(a.pulls))
	for id, ts := range a.pulls {
		for _, t := range ts {
			if !t.Before(since) {
				pulls[id]++
			}
		}
	}
	return srcs, pulls
}

// swap writes the allocation fields onto the live table and drops pulls outside the window
// pull counters recorded during the pass are kept
func (a *Allocator) swap(next []domain.Source, since time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, n := range next {
		cur, ok := a.sources[n.ID]
		if !ok {
			continue
		}
		cur.Priority = n.Priority
		cur.Active = n.Active
		cur.SuccessCount = n.SuccessCount
		cur.LastSuccess = n.LastSuccess
		cur.UpdatedAt = n.UpdatedAt
		a.sources[n.ID] = cur
	}
	for id, ts := range a.pulls {
		kept := ts[:0]
		for _, t := range ts {
			if !t.Before(since) {
				kept = append(kept, t)
			}
		}
		if len(kept) == 0 {
			delete(a.pulls, id)
			continue
		}
		a.pulls[id] = kept
	}
}

func (a *Allocator) peek(id string) (domain.Source, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s, ok := a.sources[id]
	return s, ok
}
