package domain

import (
	"time"

	"github.com/google/uuid"

	perr "galactly/internal/platform/errors"
)

// Rejection reasons
const (
	ReasonHiddenByOther = "hidden_by_other"
	ReasonLeadExpired   = "lead_expired"
)

// ErrHiddenByOther rejects a claim on a lead another identity holds hidden
func ErrHiddenByOther(id uuid.UUID, competitors int, hideUntil time.Time) error {
	err := perr.Reasonf(perr.ErrorCodeConflict, ReasonHiddenByOther, "lead %s is hidden by another identity", id)
	err = perr.WithDetail(err, "competitor_count", competitors)
	return perr.WithDetail(err, "hide_until", hideUntil.UTC().Format(time.RFC3339))
}

// ErrLeadExpired rejects any write on an expired lead
func ErrLeadExpired(id uuid.UUID) error {
	return perr.Reasonf(perr.ErrorCodeConflict, ReasonLeadExpired, "lead %s has expired", id)
}
