// Package http exposes the quota ledger over HTTP
package http

import (
	stdhttp "net/http"

	"galactly/internal/modkit/httpkit"
	"galactly/internal/platform/net/http/bind"
	"galactly/internal/services/quota/domain"
)

// Register mounts quota endpoints on the given router
func Register(r httpkit.Router, s domain.ServicePort) {
	h := &handlers{svc: s}
	httpkit.Get(r, "/{bucket}", h.status)
	httpkit.PostJSONOptional[domain.ConsumeInput](r, "/{bucket}/consume", h.consume)
}

type handlers struct{ svc domain.ServicePort }

// swagger:route GET /quota/{bucket} Quota quotaStatus
// @Summary Usage of a bucket in the current window
// @Tags Quota
// @Produce json
// @Param X-Identity header string true "caller identity"
// @Param X-Plan header string false "plan tier"
// @Param bucket path string true "bucket name"
// @Success 200 {object} domain.StatusDTO "ok"
// @Failure 400 {object} httpkit.Envelope "validation"
// @Failure 401 {object} httpkit.Envelope "identity_required"
// @Failure 404 {object} httpkit.Envelope "unknown bucket"
// @Router /quota/{bucket} [get]
func (h *handlers) status(r *stdhttp.Request) (any, error) {
	c, err := httpkit.Caller(r)
	if err != nil {
		return nil, err
	}
	bucket, err := h.bucket(r)
	if err != nil {
		return nil, err
	}
	limit := h.svc.Plan(c.Plan).Limit(bucket)
	st, err := h.svc.Status(r.Context(), c.Identity, bucket, limit)
	if err != nil {
		return nil, err
	}
	return domain.StatusFrom(st), nil
}

// swagger:route POST /quota/{bucket}/consume Quota quotaConsume
// @Summary Charge a bucket against the caller plan
// @Tags Quota
// @Accept json
// @Produce json
// @Param X-Identity header string true "caller identity"
// @Param X-Plan header string false "plan tier"
// @Param bucket path string true "bucket name"
// @Param payload body domain.ConsumeInput false "cost, defaults to 1"
// @Success 200 {object} domain.DecisionDTO "ok"
// @Failure 404 {object} httpkit.Envelope "unknown bucket"
// @Failure 429 {object} httpkit.Envelope "quota_exceeded"
// @Router /quota/{bucket}/consume [post]
func (h *handlers) consume(r *stdhttp.Request, in domain.ConsumeInput) (any, error) {
	c, err := httpkit.Caller(r)
	if err != nil {
		return nil, err
	}
	bucket, err := h.bucket(r)
	if err != nil {
		return nil, err
	}
	cost := in.Cost
	if cost == 0 {
		cost = 1
	}
	d, err := h.svc.Consume(r.Context(), c.Identity, c.Plan, bucket, cost, c.Admin)
	if err != nil {
		return nil, err
	}
	return domain.DecisionFrom(d), nil
}

// bucket reads the path value in its stored form, unknown buckets are 404
func (h *handlers) bucket(r *stdhttp.Request) (string, error) {
	raw, _ := httpkit.Param(r, "bucket", "")
	raw = domain.NormalizeBucket(raw)
	if err := bind.Var("bucket", raw, "bucket"); err != nil {
		return "", err
	}
	return h.svc.Bucket(raw)
}
