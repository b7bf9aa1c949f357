// Package http exposes the lead store over HTTP
package http

import (
	stdhttp "net/http"
	"strings"
	"time"

	"galactly/internal/core/signal"
	"galactly/internal/modkit/httpkit"
	perr "galactly/internal/platform/errors"
	pnet "galactly/internal/platform/net"
	"galactly/internal/services/leads/domain"
)

// Register mounts lead endpoints on the given router
func Register(r httpkit.Router, s domain.StorePort, now func() time.Time) {
	h := &handlers{svc: s, now: now}
	httpkit.PostJSON[domain.ScoreInput](r, "/score", h.score)
	httpkit.Get(r, "/", h.list)
	httpkit.Get(r, "/{id}", h.get)
}

type handlers struct {
	svc domain.StorePort
	now func() time.Time
}

// swagger:route POST /leads/score Leads leadsScore
// @Summary Normalize, score and store a raw item
// @Description Idempotent per dedup key: 201 when the lead is new, 200 with the stored record otherwise
// @Tags Leads
// @Accept json
// @Produce json
// @Param payload body domain.ScoreInput true "Raw item"
// @Success 201 {object} domain.LeadDTO "created"
// @Success 200 {object} domain.LeadDTO "already known"
// @Failure 400 {object} httpkit.Envelope "validation"
// @Router /leads/score [post]
func (h *handlers) score(r *stdhttp.Request, in domain.ScoreInput) (any, error) {
	l, created, err := h.svc.Score(r.Context(), in.Raw())
	if err != nil {
		return nil, err
	}
	dto := domain.LeadFrom(l, h.now())
	if created {
		return httpkit.Created(dto), nil
	}
	return dto, nil
}

// swagger:route GET /leads Leads leadsList
// @Summary Lead feed ordered by score
// @Tags Leads
// @Produce json
// @Param X-Identity header string false "caller identity"
// @Param min_score query int false "minimum score, 0..99"
// @Param intent query string false "HOT, WARM or OK"
// @Param limit query int false "page size, 1..200"
// @Success 200 {array} domain.LeadDTO "ok"
// @Router /leads [get]
func (h *handlers) list(r *stdhttp.Request) (any, error) {
	minScore, err := httpkit.QueryInt(r, "min_score", 0, 0, 99)
	if err != nil {
		return nil, err
	}
	limit, err := httpkit.QueryInt(r, "limit", 50, 1, 200)
	if err != nil {
		return nil, err
	}
	var intent signal.Intent
	if s := strings.TrimSpace(r.URL.Query().Get("intent")); s != "" {
		intent = signal.Intent(strings.ToUpper(s))
		if !intent.Valid() {
			return nil, perr.WithField(perr.Validationf("intent must be one of HOT WARM OK"), "intent")
		}
	}
	ls, err := h.svc.List(r.Context(), domain.Filter{
		MinScore: minScore,
		Intent:   intent,
		Limit:    limit,
		Viewer:   pnet.Identity(r.Context()),
	})
	if err != nil {
		return nil, err
	}
	return domain.LeadsFrom(ls, h.now()), nil
}

// swagger:route GET /leads/{id} Leads leadsGet
// @Summary One lead by id
// @Tags Leads
// @Produce json
// @Param id path string true "lead id"
// @Success 200 {object} domain.LeadDTO "ok"
// @Failure 404 {object} httpkit.Envelope "not_found"
// @Router /leads/{id} [get]
func (h *handlers) get(r *stdhttp.Request) (any, error) {
	id, err := httpkit.ParamUUID(r, "id")
	if err != nil {
		return nil, err
	}
	l, err := h.svc.Get(r.Context(), id)
	if err != nil {
		return nil, err
	}
	return domain.LeadFrom(l, h.now()), nil
}
