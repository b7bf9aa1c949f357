// Package module wires the lead store into HTTP via modkit
package module

import (
	"context"
	"net/http"

	"galactly/internal/core/lexicon"
	"galactly/internal/core/scoring"
	"galactly/internal/core/signal"
	"galactly/internal/modkit"
	"galactly/internal/modkit/httpkit"
	"galactly/internal/platform/logger"
	"galactly/internal/platform/strings"
	"galactly/internal/services/leads/domain"
	leadshttp "galactly/internal/services/leads/http"
	"galactly/internal/services/leads/repo"
	"galactly/internal/services/leads/service"
)

// Ports exposes the store for cross-module lookups
type Ports struct {
	Store     domain.StorePort
	Lifecycle domain.LifecyclePort
}

// Module implements the leads module
type Module struct {
	deps   modkit.Deps
	opts   Options
	name   string
	prefix string

	mws   []func(http.Handler) http.Handler
	ports Ports

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	store *service.Store
}

// New constructs the leads module
// a broken LEADS_QUALITY_FILE panics at startup
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("leads"), modkit.WithPrefix("/leads")}, opts...)...)
	o := FromConfig(deps.Cfg)

	lx := lexicon.MustLoad()
	if o.QualityFile != "" {
		q, err := lexicon.LoadQualityFile(o.QualityFile)
		if err != nil {
			panic(err)
		}
		lx = lx.WithQuality(q)
	}

	store := service.New(
		deps.PG,
		repo.NewPG(),
		signal.New(lx, signal.Options{SnippetMax: o.SnippetMax, MaxPhrases: o.MaxPhrases}),
		scoring.New(lx),
		service.Config{Now: deps.Clock(), Log: logger.Named("leads")},
	)

	m := &Module{
		deps:      deps,
		opts:      o,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		subrouter: b.Subrouter,
		store:     store,
	}
	m.ports = Ports{Store: store, Lifecycle: store}

	external := b.Register
	m.register = func(r httpkit.Router) {
		leadshttp.Register(r, m.store, deps.Clock())
		if external != nil {
			external(r)
		}
	}
	return m
}

// Load warms the store from storage
func (m *Module) Load(ctx context.Context) error { return m.store.Load(ctx) }

// Run drives the periodic rescoring pass until ctx ends
func (m *Module) Run(ctx context.Context) error { return m.store.RunRescore(ctx, m.opts.RescoreEvery) }

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
