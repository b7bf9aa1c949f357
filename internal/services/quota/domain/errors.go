package domain

import (
	"time"

	perr "galactly/internal/platform/errors"
)

// ReasonQuotaExceeded tags rejections caused by an exhausted window
const ReasonQuotaExceeded = "quota_exceeded"

// ErrExceeded builds the typed rejection for a denied decision
func ErrExceeded(bucket string, d Decision) error {
	err := perr.Reasonf(perr.ErrorCodeTooManyRequests, ReasonQuotaExceeded, "%s quota exhausted", bucket)
	err = perr.WithDetail(err, "remaining", d.Remaining)
	err = perr.WithDetail(err, "limit", d.Limit)
	return perr.WithDetail(err, "reset_at", d.ResetAt.UTC().Format(time.RFC3339))
}

// ErrUnknownBucket rejects a bucket name missing from the plan catalog
func ErrUnknownBucket(name string) error {
	return perr.WithField(perr.NotFoundf("unknown quota bucket %q", name), "bucket")
}
