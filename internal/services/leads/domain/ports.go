package domain

import (
	"context"

	"github.com/google/uuid"

	"galactly/internal/modkit/repokit"
)

// StorePort is the lead surface used by HTTP and the other modules
type StorePort interface {
	// Score normalizes, scores and stores raw; created is false when the dedup key was known
	Score(ctx context.Context, raw RawItem) (lead Lead, created bool, err error)
	Get(ctx context.Context, id uuid.UUID) (Lead, error)
	List(ctx context.Context, f Filter) ([]Lead, error)
}

// LifecyclePort is the write side reserved for the claim coordinator
// callers hold Lock(id) across Peek, the storage write and Replace
type LifecyclePort interface {
	Lock(id uuid.UUID) (unlock func())
	Peek(id uuid.UUID) (Lead, bool)
	Replace(l Lead)
	SaveLifecycle(ctx context.Context, q repokit.Queryer, l Lead) error
	// Refresh rereads the lead from storage into the cache
	Refresh(ctx context.Context, id uuid.UUID) (Lead, error)
	All() []Lead
}
