// Package module wires the claim coordinator into HTTP via modkit
package module

import (
	"context"
	"net/http"

	"galactly/internal/modkit"
	"galactly/internal/modkit/httpkit"
	mmodule "galactly/internal/modkit/module"
	"galactly/internal/modkit/repokit"
	"galactly/internal/platform/logger"
	"galactly/internal/platform/strings"
	"galactly/internal/services/claims/domain"
	claimshttp "galactly/internal/services/claims/http"
	"galactly/internal/services/claims/repo"
	"galactly/internal/services/claims/service"
	leads "galactly/internal/services/leads/domain"
)

// Ports exposes the coordinator and its outcome log
type Ports struct {
	Coordinator domain.CoordinatorPort
	Outcomes    domain.OutcomePort
}

// Module implements the claims module
type Module struct {
	deps   modkit.Deps
	opts   Options
	name   string
	prefix string

	mws   []func(http.Handler) http.Handler
	ports Ports

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	coord *service.Coordinator
}

// New constructs the claims module
// WithDepsModules is required; the ClickHouse mirror is attached when deps.CH is set
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("claims"), modkit.WithPrefix("/claims")}, opts...)...)
	o := FromConfig(deps.Cfg)

	dm, ok := b.Ports.(DepsModules)
	if !ok || dm.Leads == nil || dm.Quota == nil {
		panic("claims module: expected WithDepsModules(leads, quota)")
	}
	lifecycle := mmodule.MustPortsOf[leads.LifecyclePort](dm.Leads)
	ledger := mmodule.MustPortsOf[service.Ledger](dm.Quota)

	var mirror service.Mirror
	if deps.CH != nil {
		mirror = repo.NewCH(deps.CH)
	}

	tx := repokit.WithBeginHooks(deps.PG, repokit.LockTimeout(o.LockTimeout))
	coord := service.New(tx, repo.NewPG(), lifecycle, ledger, mirror, service.Config{
		ClaimCost: o.ClaimCost,
		Now:       deps.Clock(),
		Log:       logger.Named("claims"),
	})

	m := &Module{
		deps:      deps,
		opts:      o,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		subrouter: b.Subrouter,
		coord:     coord,
	}
	m.ports = Ports{Coordinator: coord, Outcomes: coord}

	external := b.Register
	m.register = func(r httpkit.Router) {
		claimshttp.Register(r, m.coord, deps.Clock())
		if external != nil {
			external(r)
		}
	}
	return m
}

// Load warms the event log from storage
func (m *Module) Load(ctx context.Context) error { return m.coord.Load(ctx) }

// Run drives the TTL sweep until ctx ends
func (m *Module) Run(ctx context.Context) error {
	return m.coord.RunSweep(ctx, m.opts.SweepEvery, m.opts.LeadTTL)
}

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.prefix, func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		if m.subrouter != nil {
			rr = m.subrouter(rr)
		}
		if m.register != nil {
			m.register(rr)
		}
	})
}

// Name is the module name
func (m *Module) Name() string { return strings.MustString(m.name, "module name") }

// Prefix is the module route prefix
func (m *Module) Prefix() string { return strings.MustPrefix(m.prefix) }

// Middlewares is the module middlewares
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.mws }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
