// Package time contains time related helpers
package time

import "time"

// Ptr returns a pointer to t or nil if t is zero
func Ptr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// Deref returns *t or the zero time for nil
func Deref(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// NextMidnight returns the first local midnight in loc strictly after t
func NextMidnight(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	lt := t.In(loc)
	y, m, d := lt.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, loc)
}

// WindowEnd returns the end of the fixed window of size d containing t
// windows are aligned to anchor; t exactly on a boundary starts a new window
func WindowEnd(t, anchor time.Time, d time.Duration) time.Time {
	if d <= 0 {
		return t
	}
	n := t.Sub(anchor) / d
	if t.Before(anchor) && t.Sub(anchor)%d != 0 {
		n--
	}
	return anchor.Add((n + 1) * d)
}
