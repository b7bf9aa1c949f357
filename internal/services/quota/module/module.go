// Package module wires the quota ledger into HTTP via modkit
package module

import (
	"context"
	"net/http"

	"galactly/internal/modkit"
	"galactly/internal/modkit/httpkit"
	"galactly/internal/platform/logger"
	"galactly/internal/platform/strings"
	"galactly/internal/services/quota/domain"
	quotahttp "galactly/internal/services/quota/http"
	"galactly/internal/services/quota/repo"
	"galactly/internal/services/quota/service"
)

// Ports exposes the ledger for cross-module lookups
type Ports struct {
	Service domain.ServicePort
	Ledger  *service.Ledger
}

// Module implements the quota module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws   []func(http.Handler) http.Handler
	ports Ports

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	ledger *service.Ledger
}

// New constructs the quota module
// a broken QUOTA_PLANS_FILE panics at startup
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("quota"), modkit.WithPrefix("/quota")}, opts...)...)
	o := FromConfig(deps.Cfg)

	plans := service.MustDefaultPlans()
	if o.PlansFile != "" {
		c, err := service.LoadPlansFile(o.PlansFile)
		if err != nil {
			panic(err)
		}
		plans = c
	}

	ledger := service.New(deps.PG, repo.NewPG(), plans, service.Config{
		Window:   o.Window,
		Location: o.Location,
		Bypass:   o.Bypass,
		Now:      deps.Clock(),
		Log:      logger.Named("quota"),
	})

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		subrouter: b.Subrouter,
		ledger:    ledger,
	}
	m.ports = Ports{Service: ledger, Ledger: ledger}

	external := b.Register
	m.register = func(r httpkit.Router) {
		quotahttp.Register(r, m.ledger)
		if external != nil {
			external(r)
		}
	}
	return m
}

// Load warms the ledger from storage
func (m *Module) Load(ctx context.Context) error { return m.ledger.Load(ctx) }

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
