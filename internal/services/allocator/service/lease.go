package service

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"galactly/internal/modkit/repokit"
	"galactly/internal/services/allocator/domain"
	"galactly/internal/services/allocator/repo"
)

// LeaseName is the allocator_runs row every process competes for
const LeaseName = "reallocate"

// PGLease is a time bounded lease row in allocator_runs
// a crashed holder loses the lease once ttl passes
type PGLease struct {
	db     repokit.TxRunner
	binder repokit.Binder[repo.Storage]
	holder string
	ttl    time.Duration
}

// NewPGLease builds a lease for this process; empty holder picks a random one
func NewPGLease(db repokit.TxRunner, binder repokit.Binder[repo.Storage], holder string, ttl time.Duration) *PGLease {
	if binder == nil {
		binder = repo.NewPG()
	}
	if holder == "" {
		holder = defaultHolder()
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &PGLease{db: db, binder: binder, holder: holder, ttl: ttl}
}

// Holder is the identity written to the lease row
func (l *PGLease) Holder() string { return l.holder }

// Acquire implements domain.Lease
func (l *PGLease) Acquire(ctx context.Context) (func(context.Context, domain.Result, error) error, bool, error) {
	ok, err := l.binder.Bind(l.db).AcquireLease(ctx, LeaseName, l.holder, l.ttl)
	if err != nil || !ok {
		return nil, false, err
	}
	release := func(ctx context.Context, res domain.Result, runErr error) error {
		msg := ""
		if runErr != nil {
			msg = runErr.Error()
		}
		return l.binder.Bind(l.db).ReleaseLease(ctx, LeaseName, l.holder, res, msg)
	}
	return release, true, nil
}

// FileLease is an advisory file lock for hosts without Postgres
type FileLease struct{ path string }

// NewFileLease locks path on each pass
func NewFileLease(path string) *FileLease { return &FileLease{path: path} }

// Acquire implements domain.Lease
func (l *FileLease) Acquire(context.Context) (func(context.Context, domain.Result, error) error, bool, error) {
	fl := flock.New(l.path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, false, fmt.Errorf("lock %s: %w", l.path, err)
	}
	if !ok {
		return nil, false, nil
	}
	return func(context.Context, domain.Result, error) error { return fl.Unlock() }, true, nil
}

func defaultHolder() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "allocator"
	}
	return fmt.Sprintf("%s-%d-%s", host, os.Getpid(), uuid.NewString()[:8])
}
