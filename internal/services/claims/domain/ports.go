package domain

import (
	"context"
	"time"

	"github.com/google/uuid"

	leads "galactly/internal/services/leads/domain"
)

// CoordinatorPort is the claim surface used by HTTP and other modules
type CoordinatorPort interface {
	Claim(ctx context.Context, req Request) (Result, error)
	Seen(ctx context.Context, id uuid.UUID, identity string) error
	Status(ctx context.Context, id uuid.UUID, identity string) (Status, error)
	Expire(ctx context.Context, id uuid.UUID) (leads.Lead, error)
	Sweep(ctx context.Context, maxAge time.Duration) (int, error)
}

// OutcomePort reports claim wins per source, read by the allocator
type OutcomePort interface {
	// Outcomes aggregates claim events at or after since, keyed by lead source id
	Outcomes(ctx context.Context, since time.Time) (map[string]Outcome, error)
}
