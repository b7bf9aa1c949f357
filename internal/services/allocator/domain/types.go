// Package domain defines harvesting sources and the reallocation result
package domain

import (
	"strings"
	"time"
)

// Kind is the harvesting connector family
type Kind string

// Source kinds
const (
	KindSearch    Kind = "search"
	KindFeed      Kind = "feed"
	KindJobs      Kind = "jobs"
	KindSocial    Kind = "social"
	KindDirectory Kind = "directory"
)

// ParseKind lowercases s, the result may be invalid
func ParseKind(s string) Kind { return Kind(strings.ToLower(strings.TrimSpace(s))) }

// Valid reports a known kind
func (k Kind) Valid() bool {
	switch k {
	case KindSearch, KindFeed, KindJobs, KindSocial, KindDirectory:
		return true
	}
	return false
}

// Reallocation defaults
const (
	NeutralPrior  = 0.5
	DefaultWindow = 14 * 24 * time.Hour
	DefaultTopN   = 60
)

// Source is one harvesting query or feed
// Priority and Active are written by reallocation only
type Source struct {
	ID           string
	Kind         Kind
	Value        string
	Active       bool
	Priority     float64
	PullCount    int64
	SuccessCount int64
	LastPull     time.Time
	LastSuccess  time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Definition is the operator editable part of a source
type Definition struct {
	ID    string
	Kind  Kind
	Value string
}

// Result summarizes one reallocation pass
type Result struct {
	UpdatedSources int
	ActivatedCount int
	At             time.Time
	Since          time.Time
}
