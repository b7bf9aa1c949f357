package httpkit

import (
	"net/http"

	perrs "galactly/internal/platform/errors"
	pnet "galactly/internal/platform/net"
)

// Caller returns the resolved caller, requiring an identity
func Caller(r *http.Request) (pnet.Caller, error) {
	c, _ := pnet.CallerFrom(r.Context())
	if c.Identity == "" {
		return pnet.Caller{}, perrs.WithReason(perrs.Unauthorizedf("missing %s header", HeaderIdentity), "identity_required")
	}
	return c, nil
}

// RequireAdmin fails unless the caller presented the operator key
func RequireAdmin(r *http.Request) error {
	if !pnet.IsAdmin(r.Context()) {
		return perrs.WithReason(perrs.Forbiddenf("operator credentials required"), "admin_required")
	}
	return nil
}
