// Package repokit is the seam between services and their sql repos
// services run a TxRunner and bind repos to whatever Queryer the tx hands them
package repokit

import "galactly/internal/platform/store"

type (
	// Queryer is the read and write surface a bound repo gets
	Queryer = store.RowQuerier
	// TxRunner runs fn in a transaction, possibly more than once
	TxRunner = store.TxRunner
	// Rows is a result set
	Rows = store.Rows
	// Row is a single row result
	Row = store.Row
	// CommandTag reports rows affected
	CommandTag = store.CommandTag
)

// Binder binds a domain repo to a Queryer, usually the tx handed to a service
type Binder[T any] interface {
	Bind(Queryer) T
}

// BindFunc adapts a plain func, mostly for fakes in tests
type BindFunc[T any] func(Queryer) T

// Bind calls f
func (f BindFunc[T]) Bind(q Queryer) T { return f(q) }
