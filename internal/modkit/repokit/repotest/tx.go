// Package repotest provides a transaction seam for service tests
// repos are faked with repokit.BindFunc; the Queryer handed to them is this value
package repotest

import (
	"context"
	"errors"
	"sync"

	"galactly/internal/modkit/repokit"
)

// ErrNoSQL is returned by every statement, fakes must not reach real SQL
var ErrNoSQL = errors.New("repotest: no sql backend")

// Tx is a TxRunner that runs fn inline
// a failure set with FailWith is returned after fn runs, as a failed commit would be
type Tx struct {
	mu    sync.Mutex
	fail  error
	calls int
}

// New returns a Tx that commits
func New() *Tx { return &Tx{} }

// FailWith makes every following commit fail with err, nil restores success
func (t *Tx) FailWith(err error) {
	t.mu.Lock()
	t.fail = err
	t.mu.Unlock()
}

// Calls reports how many transactions ran
func (t *Tx) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

// Tx implements repokit.TxRunner
func (t *Tx) Tx(ctx context.Context, fn func(q repokit.Queryer) error) error {
	t.mu.Lock()
	t.calls++
	fail := t.fail
	t.mu.Unlock()
	if err := fn(t); err != nil {
		return err
	}
	return fail
}

// Exec implements repokit.Queryer
func (t *Tx) Exec(context.Context, string, ...any) (repokit.CommandTag, error) {
	return nil, ErrNoSQL
}

// Query implements repokit.Queryer
func (t *Tx) Query(context.Context, string, ...any) (repokit.Rows, error) {
	return nil, ErrNoSQL
}

// QueryRow implements repokit.Queryer
func (t *Tx) QueryRow(context.Context, string, ...any) repokit.Row { return errRow{} }

type errRow struct{}

func (errRow) Scan(...any) error { return ErrNoSQL }
