package repokit

import (
	"context"
	"fmt"
	"time"
)

// BeginHook runs first inside every tx, on the tx bound Queryer
type BeginHook func(ctx context.Context, q Queryer) error

// WithBeginHooks wraps inner so each Tx runs hooks before fn
// nil hooks are dropped; a nil inner stays nil so memory only fallbacks keep working
func WithBeginHooks(inner TxRunner, hooks ...BeginHook) TxRunner {
	live := make([]BeginHook, 0, len(hooks))
	for _, h := range hooks {
		if h != nil {
			live = append(live, h)
		}
	}
	if inner == nil || len(live) == 0 {
		return inner
	}
	return hookedTx{TxRunner: inner, hooks: live}
}

type hookedTx struct {
	TxRunner
	hooks []BeginHook
}

func (h hookedTx) Tx(ctx context.Context, fn func(q Queryer) error) error {
	return h.TxRunner.Tx(ctx, func(q Queryer) error {
		for _, hk := range h.hooks {
			if err := hk(ctx, q); err != nil {
				return err
			}
		}
		return fn(q)
	})
}

// LockTimeout bounds how long tx statements wait on row locks
// zero or negative disables the hook
func LockTimeout(d time.Duration) BeginHook { return setLocal("lock_timeout", d) }

// StatementTimeout bounds each statement in the tx
func StatementTimeout(d time.Duration) BeginHook { return setLocal("statement_timeout", d) }

func setLocal(name string, d time.Duration) BeginHook {
	if d <= 0 {
		return nil
	}
	stmt := fmt.Sprintf("SET LOCAL %s = '%dms'", name, d.Milliseconds())
	return func(ctx context.Context, q Queryer) error {
		_, err := q.Exec(ctx, stmt)
		return err
	}
}
