// Package http exposes the source allocator over HTTP
package http

import (
	stdhttp "net/http"
	"strconv"
	"strings"

	"galactly/internal/modkit/httpkit"
	perr "galactly/internal/platform/errors"
	"galactly/internal/services/allocator/domain"
)

// Register mounts source endpoints on the given router
func Register(r httpkit.Router, s domain.ServicePort) {
	h := &handlers{svc: s}
	httpkit.Get(r, "/", h.list)
	httpkit.Get(r, "/{id}", h.get)
	httpkit.Post(r, "/{id}/pulls", h.pull)
	httpkit.Admin(r, func(ar httpkit.Router) {
		httpkit.PutJSON[domain.PutSourcesInput](ar, "/", h.put)
		httpkit.Post(ar, "/reallocate", h.reallocate)
	})
}

type handlers struct{ svc domain.ServicePort }

// swagger:route GET /sources Sources sourcesList
// @Summary List sources in rank order
// @Tags Sources
// @Produce json
// @Param active query bool false "only active sources"
// @Success 200 {array} domain.SourceDTO "ok"
// @Failure 400 {object} httpkit.Envelope "validation"
// @Router /sources [get]
func (h *handlers) list(r *stdhttp.Request) (any, error) {
	activeOnly := false
	if v := strings.TrimSpace(r.URL.Query().Get("active")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, perr.WithField(perr.Validationf("active must be a boolean"), "active")
		}
		activeOnly = b
	}
	ss, err := h.svc.List(r.Context(), activeOnly)
	if err != nil {
		return nil, err
	}
	return domain.SourcesFrom(ss), nil
}

// swagger:route GET /sources/{id} Sources sourcesGet
// @Summary Get one source
// @Tags Sources
// @Produce json
// @Param id path string true "source id"
// @Success 200 {object} domain.SourceDTO "ok"
// @Failure 404 {object} httpkit.Envelope "not_found"
// @Router /sources/{id} [get]
func (h *handlers) get(r *stdhttp.Request) (any, error) {
	id, err := httpkit.Param(r, "id", "required,max=128")
	if err != nil {
		return nil, err
	}
	s, err := h.svc.Get(r.Context(), id)
	if err != nil {
		return nil, err
	}
	return domain.SourceFrom(s), nil
}

// swagger:route POST /sources/{id}/pulls Sources sourcesPull
// @Summary Record one harvest pull of a source
// @Tags Sources
// @Produce json
// @Param id path string true "source id"
// @Success 200 {object} domain.SourceDTO "ok"
// @Failure 404 {object} httpkit.Envelope "not_found"
// @Router /sources/{id}/pulls [post]
func (h *handlers) pull(r *stdhttp.Request) (any, error) {
	id, err := httpkit.Param(r, "id", "required,max=128")
	if err != nil {
		return nil, err
	}
	s, err := h.svc.RecordPull(r.Context(), id)
	if err != nil {
		return nil, err
	}
	return domain.SourceFrom(s), nil
}

// swagger:route PUT /sources Sources sourcesPut
// @Summary Create or redefine sources
// @Description Redefining keeps the allocation state of a source
// @Tags Sources
// @Accept json
// @Produce json
// @Param X-Admin-Key header string true "operator key"
// @Param payload body domain.PutSourcesInput true "source definitions"
// @Success 200 {object} domain.PutSourcesDTO "ok"
// @Failure 400 {object} httpkit.Envelope "validation"
// @Failure 403 {object} httpkit.Envelope "admin_required"
// @Router /sources [put]
func (h *handlers) put(r *stdhttp.Request, in domain.PutSourcesInput) (any, error) {
	out := domain.PutSourcesDTO{Sources: make([]domain.SourceDTO, 0, len(in.Sources))}
	for _, si := range in.Sources {
		s, created, err := h.svc.Upsert(r.Context(), si.Definition())
		if err != nil {
			return nil, perr.WithDetail(err, "source_id", si.ID)
		}
		if created {
			out.Created++
		} else {
			out.Updated++
		}
		out.Sources = append(out.Sources, domain.SourceFrom(s))
	}
	return out, nil
}

// swagger:route POST /sources/reallocate Sources sourcesReallocate
// @Summary Run a reallocation pass now
// @Tags Sources
// @Produce json
// @Param X-Admin-Key header string true "operator key"
// @Success 200 {object} domain.ResultDTO "ok"
// @Failure 403 {object} httpkit.Envelope "admin_required"
// @Failure 409 {object} httpkit.Envelope "reallocation_running"
// @Failure 503 {object} httpkit.Envelope "source_unavailable"
// @Router /sources/reallocate [post]
func (h *handlers) reallocate(r *stdhttp.Request) (any, error) {
	res, err := h.svc.Reallocate(r.Context())
	if err != nil {
		return nil, err
	}
	return domain.ResultFrom(res), nil
}
