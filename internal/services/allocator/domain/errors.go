package domain

import (
	perr "galactly/internal/platform/errors"
)

// Rejection reasons
const (
	ReasonSourceUnavailable = "source_unavailable"
	ReasonRunInProgress     = "reallocation_running"
)

// ErrSourceUnavailable reports that outcomes could not be read, priorities are unchanged
func ErrSourceUnavailable(err error) error {
	return perr.WithReason(perr.Wrapf(err, perr.ErrorCodeUnavailable, "read claim outcomes"), ReasonSourceUnavailable)
}

// ErrRunInProgress rejects a pass while another holds the run lease
func ErrRunInProgress() error {
	return perr.Reasonf(perr.ErrorCodeConflict, ReasonRunInProgress, "another reallocation is running")
}

// ErrNotFound is an unknown source id
func ErrNotFound(id string) error {
	return perr.WithDetail(perr.NotFoundf("source %q not found", id), "source_id", id)
}
