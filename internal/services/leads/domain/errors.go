package domain

import (
	"github.com/google/uuid"

	perr "galactly/internal/platform/errors"
)

// ErrNotFound reports an unknown lead id
func ErrNotFound(id uuid.UUID) error {
	return perr.WithDetail(perr.NotFoundf("lead %s not found", id), "lead_id", id.String())
}
