package httpkit

import (
	"crypto/subtle"
	"net/http"
	"strings"

	perrs "galactly/internal/platform/errors"
	pnet "galactly/internal/platform/net"
)

// Caller headers set by the upstream gateway
const (
	HeaderIdentity = "X-Identity"
	HeaderPlan     = "X-Plan"
	HeaderAdminKey = "X-Admin-Key"
)

// HeaderPort implements middleware.CallerPort from trusted gateway headers
// an empty AdminKey disables operator access
type HeaderPort struct {
	AdminKey string
}

// Resolve reads identity, plan and operator key headers
// absent headers yield an anonymous caller; a wrong admin key is rejected
func (p HeaderPort) Resolve(r *http.Request) (pnet.Caller, error) {
	c := pnet.Caller{
		Identity: strings.TrimSpace(r.Header.Get(HeaderIdentity)),
		Plan:     strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderPlan))),
	}
	if len(c.Identity) > 256 {
		return pnet.Caller{}, perrs.WithField(perrs.InvalidArgf("identity too long"), "identity")
	}
	key := r.Header.Get(HeaderAdminKey)
	if key == "" {
		return c, nil
	}
	if p.AdminKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(p.AdminKey)) != 1 {
		return pnet.Caller{}, perrs.Unauthorizedf("invalid admin key")
	}
	c.Admin = true
	return c, nil
}
