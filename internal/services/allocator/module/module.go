// Package module wires the source allocator into HTTP via modkit
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
	"galactly/internal/services/allocator/domain"
	allocatorhttp "galactly/internal/services/allocator/http"
	"galactly/internal/services/allocator/repo"
	"galactly/internal/services/allocator/service"
	claimsrepo "galactly/internal/services/claims/repo"
)

// Ports exposes the allocator
type Ports struct {
	Sources domain.ServicePort
}

// Module implements the allocator module
type Module struct {
	deps   modkit.Deps
	opts   Options
	name   string
	prefix string

	mws   []func(http.Handler) http.Handler
	ports Ports

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	alloc *service.Allocator
}

// New constructs the allocator module
// outcomes come from the claims module when given, else ClickHouse, else Postgres
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("allocator"), modkit.WithPrefix("/sources")}, opts...)...)
	o := FromConfig(deps.Cfg)
	log := logger.Named("allocator")

	var outcomes domain.OutcomePort
	if dm, ok := b.Ports.(DepsModules); ok && dm.Claims != nil {
		outcomes = mmodule.MustPortsOf[domain.OutcomePort](dm.Claims)
	} else if deps.CH != nil {
		outcomes = claimsrepo.NewCH(deps.CH)
	} else if deps.PG != nil {
		outcomes = claimsrepo.OutcomeReader(deps.PG)
	}

	var lease domain.Lease
	switch {
	case deps.PG != nil:
		pl := service.NewPGLease(deps.PG, repo.NewPG(), o.Holder, o.LeaseTTL)
		log.Debug().Str("holder", pl.Holder()).Msg("postgres lease")
		lease = pl
	case o.LockFile != "":
		lease = service.NewFileLease(o.LockFile)
	}

	tx := repokit.WithBeginHooks(deps.PG, repokit.StatementTimeout(o.StatementTimeout))
	alloc := service.New(tx, repo.NewPG(), outcomes, lease, service.Config{
		Window: o.Window,
		TopN:   o.TopN,
		Now:    deps.Clock(),
		Log:    log,
	})

	m := &Module{
		deps:      deps,
		opts:      o,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		subrouter: b.Subrouter,
		alloc:     alloc,
	}
	m.ports = Ports{Sources: alloc}

	external := b.Register
	m.register = func(r httpkit.Router) {
		allocatorhttp.Register(r, m.alloc)
		if external != nil {
			external(r)
		}
	}
	return m
}

// Load warms sources and the pull log from storage
func (m *Module) Load(ctx context.Context) error { return m.alloc.Load(ctx) }

// Run reallocates on ALLOCATOR_EVERY until ctx ends
func (m *Module) Run(ctx context.Context) error { return m.alloc.RunLoop(ctx, m.opts.Every) }

// Reallocate runs a single pass, used by the allocator binary in once mode
func (m *Module) Reallocate(ctx context.Context) (domain.Result, error) {
	return m.alloc.Reallocate(ctx)
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
