// Package domain defines the quota ledger types and ports
package domain

import (
	"strings"
	"time"
)

// Key addresses one usage counter
type Key struct {
	Identity string
	Bucket   string
}

// String is the lock and map key form
func (k Key) String() string { return k.Identity + "\x00" + k.Bucket }

// Window is the usage of one key until ResetAt
// Used never decreases inside a window
type Window struct {
	Identity string
	Bucket   string
	Used     int
	ResetAt  time.Time
}

// Key returns the window key
func (w Window) Key() Key { return Key{Identity: w.Identity, Bucket: w.Bucket} }

// Request asks to charge Cost against Limit
// a negative Limit means unlimited; Admin skips the check entirely
type Request struct {
	Identity string
	Bucket   string
	Cost     int
	Limit    int
	Admin    bool
}

// Charge is the window state a guarded operation commits together with its own writes
type Charge struct {
	Window Window
	Cost   int
	// Limit is checked again against the stored row, negative means unlimited
	Limit int
	// Bypassed charges do not move the counter
	Bypassed bool
}

// Decision is the outcome of a bump
// Remaining and Limit are -1 when unlimited or bypassed
type Decision struct {
	Allowed   bool
	Bypassed  bool
	Used      int
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Status is the read only view of a counter
type Status struct {
	Identity  string
	Bucket    string
	Used      int
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Plan is one tier of the catalog
type Plan struct {
	Name string
	// Limits per bucket; a bucket not listed uses DefaultLimit
	Limits       map[string]int
	DefaultLimit int
	CanHide      bool
	HideTTL      time.Duration
}

// Limit returns the daily limit for bucket, negative means unlimited
func (p Plan) Limit(bucket string) int {
	if n, ok := p.Limits[NormalizeBucket(bucket)]; ok {
		return n
	}
	return p.DefaultLimit
}

// Buckets
const (
	BucketClaim   = "claim"
	BucketConsume = "consume"
)

// NormalizeBucket is the stored form of a bucket name
func NormalizeBucket(b string) string { return strings.ToLower(strings.TrimSpace(b)) }
