// Package domain defines lead records and the lead store ports
package domain

import (
	"time"

	"github.com/google/uuid"

	"galactly/internal/core/scoring"
	"galactly/internal/core/signal"
)

// State is the stored lifecycle state
type State string

// Lifecycle states
const (
	StateAvailable State = "Available"
	StateClaimed   State = "Claimed"
	StateHidden    State = "Hidden"
	StateExpired   State = "Expired"
)

// ParseState maps stored strings, unknown values are Available
func ParseState(s string) State {
	switch State(s) {
	case StateClaimed, StateHidden, StateExpired:
		return State(s)
	default:
		return StateAvailable
	}
}

// RawItem is one harvested item as connectors deliver it
type RawItem struct {
	Platform string
	SourceID string
	Text     string
	Link     string
	// Timestamp is the generation time, zero means now
	Timestamp time.Time
	Region    string
	PostedAt  time.Time
}

// Lead is the scored, deduplicated record
// Hidden reverts to Claimed once HideUntil passes; readers use StateAt
type Lead struct {
	ID       uuid.UUID
	DedupKey string
	SourceID string
	Platform string
	Region   scoring.Region
	Link     string
	Snippet  string
	Phrases  []string
	Intent   signal.Intent
	Score    int

	GeneratedAt time.Time
	PostedAt    time.Time
	ScoredAt    time.Time

	State     State
	Owner     string
	OwnedAt   time.Time
	HideUntil time.Time
	// ClaimSeq orders claim attempts on this lead
	ClaimSeq int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HiddenAt reports whether the hide is still in force at now
func (l Lead) HiddenAt(now time.Time) bool {
	return l.State == StateHidden && l.Owner != "" && l.HideUntil.After(now)
}

// HiddenFrom reports whether identity is locked out at now
func (l Lead) HiddenFrom(identity string, now time.Time) bool {
	return l.HiddenAt(now) && l.Owner != identity
}

// StateAt is the effective state at now
func (l Lead) StateAt(now time.Time) State {
	if l.State == StateHidden && !l.HiddenAt(now) {
		return StateClaimed
	}
	return l.State
}

// Expired reports the terminal state
func (l Lead) Expired() bool { return l.State == StateExpired }

// ScoreInput rebuilds the scoring input from the stored fields
func (l Lead) ScoreInput() scoring.Input {
	return scoring.Input{
		Intent:   l.Intent,
		PostedAt: l.PostedAt,
		Platform: l.Platform,
		Region:   l.Region,
		Snippet:  l.Snippet,
	}
}

// Filter selects the feed
type Filter struct {
	MinScore int
	Intent   signal.Intent
	Limit    int
	// Viewer does not see leads hidden by other identities
	Viewer string
}
