// Package http exposes the claim coordinator over HTTP
package http

import (
	stdhttp "net/http"
	"time"

	"galactly/internal/modkit/httpkit"
	perr "galactly/internal/platform/errors"
	"galactly/internal/services/claims/domain"
	leads "galactly/internal/services/leads/domain"
)

// Register mounts claim endpoints on the given router
func Register(r httpkit.Router, s domain.CoordinatorPort, now func() time.Time) {
	h := &handlers{svc: s, now: now}
	httpkit.PostJSONOptional[domain.ClaimInput](r, "/{id}", h.claim)
	httpkit.Post(r, "/{id}/seen", h.seen)
	httpkit.Get(r, "/{id}", h.status)
	httpkit.Admin(r, func(ar httpkit.Router) {
		httpkit.Post(ar, "/{id}/expire", h.expire)
		httpkit.PostJSON[domain.SweepInput](ar, "/sweep", h.sweep)
	})
}

type handlers struct {
	svc domain.CoordinatorPort
	now func() time.Time
}

// swagger:route POST /claims/{id} Claims claimsClaim
// @Summary Claim a lead, optionally hiding it from other identities
// @Description Charges the claim bucket of the caller plan. Hiding is granted on plans that allow it
// @Tags Claims
// @Accept json
// @Produce json
// @Param X-Identity header string true "caller identity"
// @Param X-Plan header string false "plan tier"
// @Param id path string true "lead id"
// @Param payload body domain.ClaimInput false "hide flag and cost"
// @Success 200 {object} domain.ClaimDTO "ok"
// @Failure 401 {object} httpkit.Envelope "identity_required"
// @Failure 404 {object} httpkit.Envelope "not_found"
// @Failure 409 {object} httpkit.Envelope "hidden_by_other or lead_expired"
// @Failure 429 {object} httpkit.Envelope "quota_exceeded"
// @Router /claims/{id} [post]
func (h *handlers) claim(r *stdhttp.Request, in domain.ClaimInput) (any, error) {
	c, err := httpkit.Caller(r)
	if err != nil {
		return nil, err
	}
	id, err := httpkit.ParamUUID(r, "id")
	if err != nil {
		return nil, err
	}
	res, err := h.svc.Claim(r.Context(), domain.Request{
		LeadID:   id,
		Identity: c.Identity,
		Plan:     c.Plan,
		Admin:    c.Admin,
		Hide:     in.Hide,
		Cost:     in.Cost,
	})
	if err != nil {
		return nil, err
	}
	return domain.ClaimFrom(res), nil
}

// swagger:route POST /claims/{id}/seen Claims claimsSeen
// @Summary Record that the caller viewed a lead
// @Tags Claims
// @Param X-Identity header string true "caller identity"
// @Param id path string true "lead id"
// @Success 204 "recorded"
// @Failure 404 {object} httpkit.Envelope "not_found"
// @Router /claims/{id}/seen [post]
func (h *handlers) seen(r *stdhttp.Request) (any, error) {
	c, err := httpkit.Caller(r)
	if err != nil {
		return nil, err
	}
	id, err := httpkit.ParamUUID(r, "id")
	if err != nil {
		return nil, err
	}
	if err := h.svc.Seen(r.Context(), id, c.Identity); err != nil {
		return nil, err
	}
	return httpkit.NoContent(), nil
}

// swagger:route GET /claims/{id} Claims claimsStatus
// @Summary Claim status of a lead as seen by the caller
// @Tags Claims
// @Produce json
// @Param X-Identity header string false "caller identity"
// @Param id path string true "lead id"
// @Success 200 {object} domain.StatusDTO "ok"
// @Failure 404 {object} httpkit.Envelope "not_found"
// @Router /claims/{id} [get]
func (h *handlers) status(r *stdhttp.Request) (any, error) {
	id, err := httpkit.ParamUUID(r, "id")
	if err != nil {
		return nil, err
	}
	c, _ := httpkit.Caller(r)
	st, err := h.svc.Status(r.Context(), id, c.Identity)
	if err != nil {
		return nil, err
	}
	return domain.StatusFrom(st), nil
}

// swagger:route POST /claims/{id}/expire Claims claimsExpire
// @Summary Retire a lead
// @Tags Claims
// @Produce json
// @Param X-Admin-Key header string true "operator key"
// @Param id path string true "lead id"
// @Success 200 {object} leads.LeadDTO "expired"
// @Failure 403 {object} httpkit.Envelope "admin_required"
// @Router /claims/{id}/expire [post]
func (h *handlers) expire(r *stdhttp.Request) (any, error) {
	id, err := httpkit.ParamUUID(r, "id")
	if err != nil {
		return nil, err
	}
	l, err := h.svc.Expire(r.Context(), id)
	if err != nil {
		return nil, err
	}
	return leads.LeadFrom(l, h.now()), nil
}

// swagger:route POST /claims/sweep Claims claimsSweep
// @Summary Expire every lead older than max_age
// @Tags Claims
// @Accept json
// @Produce json
// @Param X-Admin-Key header string true "operator key"
// @Param payload body domain.SweepInput true "max age as a Go duration"
// @Success 200 {object} domain.SweepDTO "ok"
// @Failure 400 {object} httpkit.Envelope "validation"
// @Failure 403 {object} httpkit.Envelope "admin_required"
// @Router /claims/sweep [post]
func (h *handlers) sweep(r *stdhttp.Request, in domain.SweepInput) (any, error) {
	maxAge, err := time.ParseDuration(in.MaxAge)
	if err != nil {
		return nil, perr.WithField(perr.Validationf("max_age: %v", err), "max_age")
	}
	n, err := h.svc.Sweep(r.Context(), maxAge)
	if err != nil {
		return nil, err
	}
	return domain.SweepDTO{Expired: n}, nil
}
