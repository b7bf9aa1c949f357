// Package domain defines claim events, claim outcomes and the coordinator ports
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Kind is the claim event type
type Kind string

// Event kinds
const (
	KindClaim Kind = "claim"
	KindSeen  Kind = "seen"
)

// Event is one entry of a lead's append only log
// Seq is per lead and strictly increasing
type Event struct {
	LeadID        uuid.UUID
	Seq           int64
	Identity      string
	Kind          Kind
	HideRequested bool
	At            time.Time
	// SourceID is copied from the lead for outcome attribution
	SourceID string
}

// Request is one claim attempt
type Request struct {
	LeadID   uuid.UUID
	Identity string
	Plan     string
	Admin    bool
	Hide     bool
	// Cost charged to the claim bucket, zero uses the configured default
	Cost int
}

// QuotaView is the claim bucket after the charge
// -1 means unlimited
type QuotaView struct {
	Remaining int
	Limit     int
	ResetAt   time.Time
}

// Result is a successful claim
type Result struct {
	LeadID          uuid.UUID
	Seq             int64
	Owner           string
	Hidden          bool
	HideGranted     bool
	HideUntil       time.Time
	CompetitorCount int
	Quota           QuotaView
}

// Status is the read only view of a lead's claims relative to one identity
type Status struct {
	LeadID          uuid.UUID
	State           string
	Owner           string
	Hidden          bool
	HideUntil       time.Time
	ClaimedByCount  int
	CompetitorCount int
}

// Outcome is what one source's leads produced in a window
type Outcome struct {
	Wins    int
	LastWin time.Time
}
