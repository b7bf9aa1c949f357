package domain

import "context"

// LedgerPort is consumed by the claim coordinator and the HTTP handlers
type LedgerPort interface {
	// Bump charges req and runs commit while the key is held
	// the counter moves only when commit succeeds; a nil commit is allowed
	Bump(ctx context.Context, req Request, commit func(context.Context, Charge) error) (Decision, error)
	Status(ctx context.Context, identity, bucket string, limit int) (Status, error)
}

// PlanPort resolves plan tiers by name
type PlanPort interface {
	Plan(name string) Plan
}

// ServicePort is the full quota surface exposed to other modules
type ServicePort interface {
	LedgerPort
	PlanPort
	// Bucket normalizes name and rejects buckets no plan knows
	Bucket(name string) (string, error)
	// Consume charges bucket for a caller using its plan limit and persists the window
	Consume(ctx context.Context, identity, plan, bucket string, cost int, admin bool) (Decision, error)
}
