// Package service implements the quota ledger
package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"galactly/internal/modkit/repokit"
	perr "galactly/internal/platform/errors"
	"galactly/internal/platform/keyed"
	"galactly/internal/platform/logger"
	ptime "galactly/internal/platform/time"
	dom "galactly/internal/services/quota/domain"
	"galactly/internal/services/quota/repo"
)

// windowAnchor aligns windows that are not whole days
var windowAnchor = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Config for the ledger
type Config struct {
	// Window is the counter lifetime, 24h resets at local midnight in Location
	Window   time.Duration
	Location *time.Location
	// Bypass identities skip the check and are never counted
	Bypass []string
	Now    func() time.Time
	Log    *logger.Logger
}

// Ledger holds per (identity, bucket) usage counters
// all read check write sequences for one key run under that key's lock
type Ledger struct {
	cfg    Config
	plans  *Catalog
	db     repokit.TxRunner
	binder repokit.Binder[repo.Storage]

	locks keyed.Mutex

	mu      sync.RWMutex
	windows map[dom.Key]dom.Window
	// staged holds the stored window a commit returned until Bump applies it
	staged map[dom.Key]dom.Window

	bypass map[string]struct{}
}

// New constructs a ledger, db may be nil for a memory only ledger
func New(db repokit.TxRunner, binder repokit.Binder[repo.Storage], plans *Catalog, cfg Config) *Ledger {
	if cfg.Window <= 0 {
		cfg.Window = 24 * time.Hour
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Log == nil {
		nop := logger.Nop()
		cfg.Log = &nop
	}
	if plans == nil {
		plans = MustDefaultPlans()
	}
	if binder == nil {
		binder = repo.NewPG()
	}
	l := &Ledger{
		cfg:     cfg,
		plans:   plans,
		db:      db,
		binder:  binder,
		windows: make(map[dom.Key]dom.Window),
		staged:  make(map[dom.Key]dom.Window),
		bypass:  make(map[string]struct{}, len(cfg.Bypass)),
	}
	for _, id := range cfg.Bypass {
		if id = strings.TrimSpace(id); id != "" {
			l.bypass[id] = struct{}{}
		}
	}
	return l
}

// Load warms the counters from storage
func (l *Ledger) Load(ctx context.Context) error {
	if l.db == nil {
		return nil
	}
	ws, err := l.binder.Bind(l.db).List(ctx)
	if err != nil {
		return perr.FromPostgres(err, "load quota windows")
	}
	now := l.cfg.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, w := range ws {
		if w.ResetAt.After(now) {
			l.windows[w.Key()] = w
		}
	}
	return nil
}

// Plan implements domain.PlanPort
func (l *Ledger) Plan(name string) dom.Plan { return l.plans.Plan(name) }

// ResetAfter returns the end of the window containing now
func (l *Ledger) ResetAfter(now time.Time) time.Time {
	if l.cfg.Window == 24*time.Hour {
		return ptime.NextMidnight(now, l.cfg.Location).UTC()
	}
	return ptime.WindowEnd(now.UTC(), windowAnchor, l.cfg.Window)
}

// Bump implements domain.LedgerPort
// a denied request returns the decision together with the quota_exceeded error
func (l *Ledger) Bump(ctx context.Context, req dom.Request, commit func(context.Context, dom.Charge) error) (dom.Decision, error) {
	req.Bucket = dom.NormalizeBucket(req.Bucket)
	if err := validate(req); err != nil {
		return dom.Decision{}, err
	}
	key := dom.Key{Identity: req.Identity, Bucket: req.Bucket}

	unlock := l.locks.Lock(key.String())
	defer unlock()

	now := l.cfg.Now()
	w := l.current(key, now)

	if req.Admin || l.isBypass(req.Identity) {
		l.cfg.Log.Warn().
			Str("identity", req.Identity).
			Str("bucket", req.Bucket).
			Int("cost", req.Cost).
			Bool("admin", req.Admin).
			Msg("quota bypass")
		if commit != nil {
			if err := commit(ctx, dom.Charge{Window: w, Cost: req.Cost, Bypassed: true}); err != nil {
				return dom.Decision{}, err
			}
		}
		return dom.Decision{Allowed: true, Bypassed: true, Used: w.Used, Limit: -1, Remaining: -1, ResetAt: w.ResetAt}, nil
	}

	if req.Limit >= 0 && w.Used+req.Cost > req.Limit {
		d := decision(w, req.Limit)
		d.Allowed = false
		return d, dom.ErrExceeded(req.Bucket, d)
	}

	next := w
	next.Used += req.Cost
	if commit != nil {
		err := commit(ctx, dom.Charge{Window: next, Cost: req.Cost, Limit: req.Limit})
		stored, ok := l.unstage(key)
		if err != nil {
			if perr.IsReason(err, dom.ReasonQuotaExceeded) {
				d := decision(l.current(key, now), req.Limit)
				return d, err
			}
			return dom.Decision{}, err
		}
		if ok {
			next = stored
		}
	}

	l.mu.Lock()
	l.windows[key] = next
	l.mu.Unlock()

	d := decision(next, req.Limit)
	d.Allowed = true
	return d, nil
}

// Status implements domain.LedgerPort
func (l *Ledger) Status(_ context.Context, identity, bucket string, limit int) (dom.Status, error) {
	bucket = dom.NormalizeBucket(bucket)
	if identity == "" || bucket == "" {
		return dom.Status{}, perr.Validationf("identity and bucket are required")
	}
	key := dom.Key{Identity: identity, Bucket: bucket}
	w := l.current(key, l.cfg.Now())
	d := decision(w, limit)
	return dom.Status{
		Identity:  identity,
		Bucket:    bucket,
		Used:      w.Used,
		Limit:     d.Limit,
		Remaining: d.Remaining,
		ResetAt:   w.ResetAt,
	}, nil
}

// Consume implements domain.ServicePort
// the plan limit for bucket applies and the window is persisted with the charge
func (l *Ledger) Consume(ctx context.Context, identity, plan, bucket string, cost int, admin bool) (dom.Decision, error) {
	bucket, err := l.Bucket(bucket)
	if err != nil {
		return dom.Decision{}, err
	}
	req := dom.Request{
		Identity: identity,
		Bucket:   bucket,
		Cost:     cost,
		Limit:    l.Plan(plan).Limit(bucket),
		Admin:    admin,
	}
	return l.Bump(ctx, req, l.persist)
}

// Bucket implements domain.ServicePort
func (l *Ledger) Bucket(name string) (string, error) {
	b := dom.NormalizeBucket(name)
	if b == "" {
		return "", perr.WithField(perr.Validationf("bucket is required"), "bucket")
	}
	if !l.plans.HasBucket(b) {
		return "", dom.ErrUnknownBucket(b)
	}
	return b, nil
}

// Save charges ch against the stored row through q, used by callers committing inside their own tx
// the row is the authority across instances: when another writer left no room the local
// counter catches up and the quota_exceeded rejection is returned
func (l *Ledger) Save(ctx context.Context, q repokit.Queryer, ch dom.Charge) error {
	stored, applied, err := l.binder.Bind(q).Charge(ctx, ch.Window, ch.Cost, ch.Limit)
	if err != nil {
		return err
	}
	if !applied {
		l.mu.Lock()
		cur := l.windows[stored.Key()]
		if stored.ResetAt.After(cur.ResetAt) || (stored.ResetAt.Equal(cur.ResetAt) && stored.Used > cur.Used) {
			l.windows[stored.Key()] = stored
		}
		l.mu.Unlock()
		l.cfg.Log.Info().
			Str("identity", stored.Identity).
			Str("bucket", stored.Bucket).
			Int("stored_used", stored.Used).
			Msg("quota window advanced by another instance")
		return dom.ErrExceeded(stored.Bucket, decision(stored, ch.Limit))
	}
	l.mu.Lock()
	l.staged[stored.Key()] = stored
	l.mu.Unlock()
	return nil
}

func (l *Ledger) unstage(key dom.Key) (dom.Window, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	w, ok := l.staged[key]
	delete(l.staged, key)
	return w, ok
}

// Persistent reports whether charges are written to storage
func (l *Ledger) Persistent() bool { return l.db != nil }

func (l *Ledger) persist(ctx context.Context, ch dom.Charge) error {
	if l.db == nil || ch.Bypassed {
		return nil
	}
	err := l.db.Tx(ctx, func(q repokit.Queryer) error {
		return l.Save(ctx, q, ch)
	})
	if perr.IsReason(err, dom.ReasonQuotaExceeded) {
		return err
	}
	if err != nil {
		logger.C(ctx).Error().Err(err).Str("bucket", ch.Window.Bucket).Msg("quota window save failed")
		return perr.FromPostgres(err, "save quota window")
	}
	return nil
}

// current returns the live window for key, starting a fresh one when the stored one has lapsed
// the fresh window is not stored until a charge commits
func (l *Ledger) current(key dom.Key, now time.Time) dom.Window {
	l.mu.RLock()
	w, ok := l.windows[key]
	l.mu.RUnlock()
	if ok && w.ResetAt.After(now) {
		return w
	}
	return dom.Window{Identity: key.Identity, Bucket: key.Bucket, ResetAt: l.ResetAfter(now)}
}

func (l *Ledger) isBypass(identity string) bool {
	_, ok := l.bypass[identity]
	return ok
}

func decision(w dom.Window, limit int) dom.Decision {
	d := dom.Decision{Used: w.Used, Limit: limit, Remaining: -1, ResetAt: w.ResetAt}
	if limit < 0 {
		d.Limit = -1
		return d
	}
	d.Remaining = limit - w.Used
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	return d
}

func validate(req dom.Request) error {
	switch {
	case strings.TrimSpace(req.Identity) == "":
		return perr.WithField(perr.Validationf("identity is required"), "identity")
	case strings.TrimSpace(req.Bucket) == "":
		return perr.WithField(perr.Validationf("bucket is required"), "bucket")
	case req.Cost < 1:
		return perr.WithField(perr.Validationf("cost must be at least 1"), "cost")
	}
	return nil
}
