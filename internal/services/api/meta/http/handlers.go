// Package http provides meta endpoints
package http

import (
	stdctx "context"
	"net/http"
	"time"

	"galactly/internal/core/lexicon"
	"galactly/internal/core/scoring"
	"galactly/internal/core/version"
	"galactly/internal/modkit/httpkit"
)

// Pinger is satisfied by adapters that expose Ping
type Pinger interface {
	Ping(stdctx.Context) error
}

// Deps are the handler dependencies
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	PG          any
	CH          any
	Lexicon     *lexicon.Lexicon
	Now         func() time.Time
}

type handlers struct {
	deps Deps
}

// Register mounts the meta routes
func Register(r httpkit.Router, d Deps) {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Lexicon == nil {
		d.Lexicon = lexicon.MustLoad()
	}
	h := &handlers{deps: d}

	httpkit.Get(r, "/health", h.health)
	httpkit.Get(r, "/ready", h.ready)
	httpkit.Get(r, "/version", h.version)
	httpkit.Get(r, "/service", h.service)
	httpkit.Get(r, "/scoring", h.scoring)
}

//
// Swagger DTOs and route docs
//

// HealthResponse is the health payload
// swagger:model
type HealthResponse struct {
	OK      bool   `json:"ok"       example:"true"`
	Service string `json:"service"  example:"galactly-api"`
	Started string `json:"started"  example:"2025-10-20T13:00:00Z"`
	Now     string `json:"now"      example:"2025-10-20T13:05:00Z"`
}

// ReadyCheck describes a single dependency check
type ReadyCheck struct {
	Name   string `json:"name"   example:"pg"`
	Status string `json:"status" example:"ok"` // ok fail skipped unknown
	Error  string `json:"error,omitempty" example:"dial tcp 127.0.0.1:5432 connect: connection refused"`
}

// ReadyResponse summarizes readiness
type ReadyResponse struct {
	Status string       `json:"status" example:"ok"` // ok degraded fail
	Checks []ReadyCheck `json:"checks"`
	Now    string       `json:"now"    example:"2025-10-20T13:05:00Z"`
}

// ServiceResponse describes service info
type ServiceResponse struct {
	Name    string `json:"name"    example:"galactly-api"`
	Started string `json:"started" example:"2025-10-20T13:00:00Z"`
	Uptime  int64  `json:"uptime"  example:"300"`
}

// ScoringResponse reports the lexicon and score weights in use
type ScoringResponse struct {
	LexiconVersion  int               `json:"lexicon_version" example:"1"`
	Weights         map[string]int    `json:"weights"`
	RecencyHalfLife string            `json:"recency_half_life" example:"168h0m0s"`
	Build           version.BuildInfo `json:"build"`
}

// swagger:route GET /meta/health Meta metaHealth
// @Summary Health check
// @Tags Meta
// @Produce json
// @Success 200 {object} HealthResponse "ok"
// @Router /meta/health [get]
func (h *handlers) health(_ *http.Request) (any, error) {
	return HealthResponse{
		OK:      true,
		Service: h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Now:     h.deps.Now().UTC().Format(time.RFC3339),
	}, nil
}

// swagger:route GET /meta/ready Meta metaReady
// @Summary Readiness check with dependency checks
// @Tags Meta
// @Produce json
// @Success 200 {object} ReadyResponse "ok"
// @Router /meta/ready [get]
func (h *handlers) ready(r *http.Request) (any, error) {
	ctx, cancel := stdctx.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	check := func(name string, c any) ReadyCheck {
		if c == nil {
			return ReadyCheck{Name: name, Status: "skipped"}
		}
		if p, ok := c.(Pinger); ok {
			if err := p.Ping(ctx); err != nil {
				return ReadyCheck{Name: name, Status: "fail", Error: err.Error()}
			}
			return ReadyCheck{Name: name, Status: "ok"}
		}
		return ReadyCheck{Name: name, Status: "unknown"}
	}

	pg := check("pg", h.deps.PG)
	ch := check("ch", h.deps.CH)

	// skipped backends count as ok
	overall := "ok"
	for _, c := range []ReadyCheck{pg, ch} {
		switch c.Status {
		case "fail":
			overall = "fail"
		case "unknown":
			if overall == "ok" {
				overall = "degraded"
			}
		}
	}

	return ReadyResponse{
		Status: overall,
		Checks: []ReadyCheck{pg, ch},
		Now:    h.deps.Now().UTC().Format(time.RFC3339),
	}, nil
}

// swagger:route GET /meta/version Meta metaVersion
// @Summary Build and version info
// @Tags Meta
// @Produce json
// @Success 200 {object} version.BuildInfo "ok"
// @Router /meta/version [get]
func (h *handlers) version(_ *http.Request) (any, error) {
	return version.Info(), nil
}

// swagger:route GET /meta/service Meta metaService
// @Summary Service info and uptime
// @Tags Meta
// @Produce json
// @Success 200 {object} ServiceResponse "ok"
// @Router /meta/service [get]
func (h *handlers) service(_ *http.Request) (any, error) {
	uptime := h.deps.Now().Sub(h.deps.StartedAt)
	return ServiceResponse{
		Name:    h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Uptime:  int64(uptime / time.Second),
	}, nil
}

// swagger:route GET /meta/scoring Meta metaScoring
// @Summary Lexicon version and score weights
// @Tags Meta
// @Produce json
// @Success 200 {object} ScoringResponse "ok"
// @Router /meta/scoring [get]
func (h *handlers) scoring(_ *http.Request) (any, error) {
	return ScoringResponse{
		LexiconVersion: h.deps.Lexicon.Version,
		Weights: map[string]int{
			"base_hot":        scoring.BaseHot,
			"base_warm":       scoring.BaseWarm,
			"base_ok":         scoring.BaseOK,
			"recency_max":     scoring.RecencyMax,
			"region_bonus":    scoring.RegionBonus,
			"detail_quantity": scoring.DetailQuantity,
			"detail_specs":    scoring.DetailSpecs,
			"detail_deadline": scoring.DetailDeadline,
			"detail_contact":  scoring.DetailContact,
			"detail_cap":      scoring.DetailCap,
			"vague_penalty":   scoring.VaguePenalty,
		},
		RecencyHalfLife: scoring.RecencyHalfLife.String(),
		Build:           version.Info(),
	}, nil
}
