package domain

import (
	"context"

	claims "galactly/internal/services/claims/domain"
)

// OutcomePort is where claim wins come from
type OutcomePort = claims.OutcomePort

// ServicePort is the allocator surface used by HTTP and the binaries
type ServicePort interface {
	// Upsert creates or redefines a source, created reports a new id
	Upsert(ctx context.Context, def Definition) (s Source, created bool, err error)
	Get(ctx context.Context, id string) (Source, error)
	// List returns sources in rank order
	List(ctx context.Context, activeOnly bool) ([]Source, error)
	RecordPull(ctx context.Context, id string) (Source, error)
	Reallocate(ctx context.Context) (Result, error)
}

// Lease guards a reallocation pass across processes
type Lease interface {
	// Acquire reports ok=false when someone else holds the lease
	// release records the pass outcome and frees the lease
	Acquire(ctx context.Context) (release func(ctx context.Context, res Result, runErr error) error, ok bool, err error)
}
