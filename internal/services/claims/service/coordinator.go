// Package service implements the claim coordinator
// every read check write on a lead runs under that lead's lock; the quota key is taken second
package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"galactly/internal/modkit/repokit"
	perr "galactly/internal/platform/errors"
	"galactly/internal/platform/logger"
	dom "galactly/internal/services/claims/domain"
	"galactly/internal/services/claims/repo"
	leads "galactly/internal/services/leads/domain"
	quota "galactly/internal/services/quota/domain"
)

// Ledger is the part of the quota ledger the coordinator charges
type Ledger interface {
	quota.LedgerPort
	quota.PlanPort
	Save(ctx context.Context, q repokit.Queryer, ch quota.Charge) error
}

// Mirror receives committed events, failures are logged only
type Mirror interface {
	Mirror(ctx context.Context, es ...dom.Event) error
}

// Config for the coordinator
type Config struct {
	// ClaimCost is charged when a request carries no cost
	ClaimCost int
	Now       func() time.Time
	Log       *logger.Logger
}

// Coordinator decides who may act on a lead and for how long
type Coordinator struct {
	cfg    Config
	db     repokit.TxRunner
	binder repokit.Binder[repo.Storage]
	leads  leads.LifecyclePort
	ledger Ledger
	mirror Mirror

	mu     sync.RWMutex
	events map[uuid.UUID][]dom.Event
}

// New constructs a coordinator; db and mirror may be nil
func New(db repokit.TxRunner, binder repokit.Binder[repo.Storage], lp leads.LifecyclePort, ledger Ledger, mirror Mirror, cfg Config) *Coordinator {
	if cfg.ClaimCost <= 0 {
		cfg.ClaimCost = 1
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
	return &Coordinator{
		cfg:    cfg,
		db:     db,
		binder: binder,
		leads:  lp,
		ledger: ledger,
		mirror: mirror,
		events: make(map[uuid.UUID][]dom.Event),
	}
}

// Load warms the event log from Postgres
func (c *Coordinator) Load(ctx context.Context) error {
	if c.db == nil {
		return nil
	}
	es, err := c.binder.Bind(c.db).List(ctx)
	if err != nil {
		return perr.FromPostgres(err, "load claim events")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range es {
		c.events[e.LeadID] = append(c.events[e.LeadID], e)
	}
	c.cfg.Log.Info().Int("events", len(es)).Msg("claim events loaded")
	return nil
}

// Claim implements domain.CoordinatorPort
func (c *Coordinator) Claim(ctx context.Context, req dom.Request) (dom.Result, error) {
	if err := validate(req.LeadID, req.Identity); err != nil {
		return dom.Result{}, err
	}
	if req.Cost < 0 {
		return dom.Result{}, perr.WithField(perr.Validationf("cost must be at least 1"), "cost")
	}
	if req.Cost == 0 {
		req.Cost = c.cfg.ClaimCost
	}

	res, ev, err := c.claim(ctx, req)
	if err != nil {
		return dom.Result{}, err
	}
	c.mirrorEvent(ctx, ev)
	return res, nil
}

func (c *Coordinator) claim(ctx context.Context, req dom.Request) (dom.Result, dom.Event, error) {
	unlock := c.leads.Lock(req.LeadID)
	defer unlock()

	res, ev, err := c.tryClaim(ctx, req)
	if repo.IsSeqConflict(err) {
		if err := c.reload(ctx, req.LeadID); err != nil {
			return dom.Result{}, dom.Event{}, err
		}
		res, ev, err = c.tryClaim(ctx, req)
	}
	return res, ev, err
}

// tryClaim runs one check and commit attempt, the lead lock is held by the caller
func (c *Coordinator) tryClaim(ctx context.Context, req dom.Request) (dom.Result, dom.Event, error) {
	l, ok := c.leads.Peek(req.LeadID)
	if !ok {
		return dom.Result{}, dom.Event{}, leads.ErrNotFound(req.LeadID)
	}
	if l.Expired() {
		return dom.Result{}, dom.Event{}, dom.ErrLeadExpired(l.ID)
	}

	now := c.cfg.Now().UTC()
	if l.HiddenFrom(req.Identity, now) {
		return dom.Result{}, dom.Event{}, dom.ErrHiddenByOther(l.ID, c.competitors(l.ID, req.Identity), l.HideUntil)
	}

	plan := c.ledger.Plan(req.Plan)
	ev := dom.Event{
		LeadID:        l.ID,
		Seq:           c.nextSeq(l.ID),
		Identity:      req.Identity,
		Kind:          dom.KindClaim,
		HideRequested: req.Hide,
		At:            now,
		SourceID:      l.SourceID,
	}
	next := transition(l, ev, plan, now)

	decision, err := c.ledger.Bump(ctx, quota.Request{
		Identity: req.Identity,
		Bucket:   quota.BucketClaim,
		Cost:     req.Cost,
		Limit:    plan.Limit(quota.BucketClaim),
		Admin:    req.Admin,
	}, func(ctx context.Context, ch quota.Charge) error {
		return c.persist(ctx, ev, &next, &ch)
	})
	if err != nil {
		return dom.Result{}, dom.Event{}, err
	}

	c.append(ev)
	c.leads.Replace(next)

	if decision.Bypassed {
		c.cfg.Log.Warn().Str("lead_id", l.ID.String()).Str("identity", req.Identity).Msg("claim without quota")
	}
	return dom.Result{
		LeadID:          l.ID,
		Seq:             ev.Seq,
		Owner:           next.Owner,
		Hidden:          next.HiddenAt(now),
		HideGranted:     req.Hide && plan.CanHide,
		HideUntil:       next.HideUntil,
		CompetitorCount: c.competitors(l.ID, req.Identity),
		Quota:           dom.QuotaView{Remaining: decision.Remaining, Limit: decision.Limit, ResetAt: decision.ResetAt},
	}, ev, nil
}

// transition applies a committed claim to the lead
// the first committer owns the lead; a granted hide moves ownership to the hider
// callers have already rejected identities the lead is hidden from
func transition(l leads.Lead, ev dom.Event, plan quota.Plan, now time.Time) leads.Lead {
	next := l
	if next.Owner == "" {
		next.Owner = ev.Identity
		next.OwnedAt = now
	}
	next.State = leads.StateClaimed
	if l.HiddenAt(now) {
		next.State = leads.StateHidden
	}
	if ev.HideRequested && plan.CanHide {
		if next.Owner != ev.Identity {
			next.Owner = ev.Identity
			next.OwnedAt = now
		}
		next.State = leads.StateHidden
		next.HideUntil = now.Add(plan.HideTTL)
	}
	if next.State == leads.StateClaimed {
		next.HideUntil = time.Time{}
	}
	next.ClaimSeq = ev.Seq
	next.UpdatedAt = now
	return next
}

// Seen implements domain.CoordinatorPort
// a repeat view by an identity already on the log is not appended again
func (c *Coordinator) Seen(ctx context.Context, id uuid.UUID, identity string) error {
	if err := validate(id, identity); err != nil {
		return err
	}
	ev, appended, err := c.seen(ctx, id, identity)
	if err != nil || !appended {
		return err
	}
	c.mirrorEvent(ctx, ev)
	return nil
}

func (c *Coordinator) seen(ctx context.Context, id uuid.UUID, identity string) (dom.Event, bool, error) {
	unlock := c.leads.Lock(id)
	defer unlock()

	ev, appended, err := c.trySeen(ctx, id, identity)
	if repo.IsSeqConflict(err) {
		if err := c.reload(ctx, id); err != nil {
			return dom.Event{}, false, err
		}
		ev, appended, err = c.trySeen(ctx, id, identity)
	}
	return ev, appended, err
}

func (c *Coordinator) trySeen(ctx context.Context, id uuid.UUID, identity string) (dom.Event, bool, error) {
	l, ok := c.leads.Peek(id)
	if !ok {
		return dom.Event{}, false, leads.ErrNotFound(id)
	}
	if l.Expired() {
		return dom.Event{}, false, dom.ErrLeadExpired(id)
	}
	if c.known(id, identity) {
		return dom.Event{}, false, nil
	}
	ev := dom.Event{
		LeadID:   id,
		Seq:      c.nextSeq(id),
		Identity: identity,
		Kind:     dom.KindSeen,
		At:       c.cfg.Now().UTC(),
		SourceID: l.SourceID,
	}
	if err := c.persist(ctx, ev, nil, nil); err != nil {
		return dom.Event{}, false, err
	}
	c.append(ev)
	return ev, true, nil
}

// Status implements domain.CoordinatorPort
func (c *Coordinator) Status(_ context.Context, id uuid.UUID, identity string) (dom.Status, error) {
	if id == uuid.Nil {
		return dom.Status{}, perr.WithField(perr.Validationf("lead id is required"), "id")
	}
	l, ok := c.leads.Peek(id)
	if !ok {
		return dom.Status{}, leads.ErrNotFound(id)
	}
	now := c.cfg.Now()
	st := dom.Status{
		LeadID:          id,
		State:           string(l.StateAt(now)),
		Owner:           l.Owner,
		Hidden:          l.HiddenAt(now),
		ClaimedByCount:  c.claimers(id),
		CompetitorCount: c.competitors(id, identity),
	}
	if st.Hidden {
		st.HideUntil = l.HideUntil
	}
	return st, nil
}

// Expire implements domain.CoordinatorPort
// expiring an expired lead is a no op
func (c *Coordinator) Expire(ctx context.Context, id uuid.UUID) (leads.Lead, error) {
	if id == uuid.Nil {
		return leads.Lead{}, perr.WithField(perr.Validationf("lead id is required"), "id")
	}
	unlock := c.leads.Lock(id)
	defer unlock()

	l, ok := c.leads.Peek(id)
	if !ok {
		return leads.Lead{}, leads.ErrNotFound(id)
	}
	if l.Expired() {
		return l, nil
	}
	next := l
	next.State = leads.StateExpired
	next.HideUntil = time.Time{}
	next.UpdatedAt = c.cfg.Now().UTC()
	if err := c.persist(ctx, dom.Event{}, &next, nil); err != nil {
		return leads.Lead{}, err
	}
	c.leads.Replace(next)
	return next, nil
}

// Sweep implements domain.CoordinatorPort
// leads generated before now-maxAge are expired
func (c *Coordinator) Sweep(ctx context.Context, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, perr.WithField(perr.Validationf("max_age must be positive"), "max_age")
	}
	cutoff := c.cfg.Now().Add(-maxAge)
	n := 0
	for _, l := range c.leads.All() {
		if l.Expired() || !l.GeneratedAt.Before(cutoff) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if _, err := c.Expire(ctx, l.ID); err != nil {
			return n, err
		}
		n++
	}
	if n > 0 {
		c.cfg.Log.Info().Int("expired", n).Dur("max_age", maxAge).Msg("lead sweep")
	}
	return n, nil
}

// RunSweep sweeps every tick until ctx ends
func (c *Coordinator) RunSweep(ctx context.Context, every, maxAge time.Duration) error {
	if every <= 0 || maxAge <= 0 {
		return nil
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if _, err := c.Sweep(ctx, maxAge); err != nil && ctx.Err() == nil {
				c.cfg.Log.Error().Err(err).Msg("lead sweep failed")
			}
		}
	}
}

// Outcomes implements domain.OutcomePort from the in memory log
func (c *Coordinator) Outcomes(_ context.Context, since time.Time) (map[string]dom.Outcome, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := map[string]dom.Outcome{}
	for _, es := range c.events {
		for _, e := range es {
			if e.Kind != dom.KindClaim || e.SourceID == "" || e.At.Before(since) {
				continue
			}
			o := out[e.SourceID]
			o.Wins++
			if e.At.After(o.LastWin) {
				o.LastWin = e.At
			}
			out[e.SourceID] = o
		}
	}
	return out, nil
}

// Events returns a copy of a lead's log
func (c *Coordinator) Events(id uuid.UUID) []dom.Event {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]dom.Event(nil), c.events[id]...)
}

// persist writes the event, the lead lifecycle and the quota window in one transaction
// zero values are skipped; nothing is written without a database
func (c *Coordinator) persist(ctx context.Context, ev dom.Event, lead *leads.Lead, ch *quota.Charge) error {
	if c.db == nil {
		return nil
	}
	err := c.db.Tx(ctx, func(q repokit.Queryer) error {
		if ev.Seq > 0 {
			if err := c.binder.Bind(q).Append(ctx, ev); err != nil {
				return err
			}
		}
		if lead != nil {
			if err := c.leads.SaveLifecycle(ctx, q, *lead); err != nil {
				return err
			}
		}
		if ch != nil && !ch.Bypassed {
			if err := c.ledger.Save(ctx, q, *ch); err != nil {
				return err
			}
		}
		return nil
	})
	if perr.IsReason(err, quota.ReasonQuotaExceeded) {
		return err
	}
	if err != nil {
		logger.C(ctx).Error().Err(err).Str("lead_id", leadID(ev, lead)).Msg("claim commit failed")
		return perr.FromPostgres(err, "commit claim")
	}
	return nil
}

// reload replaces a lead's cached log and row with what Postgres holds
// called under the lead lock after another instance appended to the log
func (c *Coordinator) reload(ctx context.Context, id uuid.UUID) error {
	if c.db == nil {
		return nil
	}
	es, err := c.binder.Bind(c.db).ListLead(ctx, id)
	if err != nil {
		return perr.FromPostgresf(err, "reload claim events for %s", id)
	}
	if _, err := c.leads.Refresh(ctx, id); err != nil {
		return err
	}
	c.mu.Lock()
	c.events[id] = es
	c.mu.Unlock()
	c.cfg.Log.Info().Str("lead_id", id.String()).Int("events", len(es)).Msg("claim log reloaded after seq conflict")
	return nil
}

func (c *Coordinator) mirrorEvent(ctx context.Context, ev dom.Event) {
	if c.mirror == nil {
		return
	}
	if err := c.mirror.Mirror(ctx, ev); err != nil {
		c.cfg.Log.Warn().Err(err).Str("lead_id", ev.LeadID.String()).Msg("claim event mirror failed")
	}
}

// nextSeq must be called under the lead lock
func (c *Coordinator) nextSeq(id uuid.UUID) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	es := c.events[id]
	if len(es) == 0 {
		return 1
	}
	return es[len(es)-1].Seq + 1
}

func (c *Coordinator) append(ev dom.Event) {
	c.mu.Lock()
	c.events[ev.LeadID] = append(c.events[ev.LeadID], ev)
	c.mu.Unlock()
}

func (c *Coordinator) known(id uuid.UUID, identity string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.events[id] {
		if e.Identity == identity {
			return true
		}
	}
	return false
}

// competitors counts distinct identities that claimed or viewed the lead, identity excluded
func (c *Coordinator) competitors(id uuid.UUID, identity string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := map[string]struct{}{}
	for _, e := range c.events[id] {
		if e.Identity != identity {
			seen[e.Identity] = struct{}{}
		}
	}
	return len(seen)
}

func (c *Coordinator) claimers(id uuid.UUID) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := map[string]struct{}{}
	for _, e := range c.events[id] {
		if e.Kind == dom.KindClaim {
			seen[e.Identity] = struct{}{}
		}
	}
	return len(seen)
}

func validate(id uuid.UUID, identity string) error {
	if strings.TrimSpace(identity) == "" {
		return perr.WithField(perr.Validationf("identity is required"), "identity")
	}
	if id == uuid.Nil {
		return perr.WithField(perr.Validationf("lead id is required"), "id")
	}
	return nil
}

func leadID(ev dom.Event, l *leads.Lead) string {
	if l != nil {
		return l.ID.String()
	}
	return ev.LeadID.String()
}
