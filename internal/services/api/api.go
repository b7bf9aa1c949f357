// Package api composes the engine modules into the versioned HTTP API
package api

import (
	"net/http"
	"time"

	"galactly/internal/modkit"
	"galactly/internal/modkit/httpkit"
	"galactly/internal/modkit/swaggerkit"
	phttp "galactly/internal/platform/net/http"
	"galactly/internal/platform/net/middleware"

	allocatormod "galactly/internal/services/allocator/module"
	metamod "galactly/internal/services/api/meta/module"
	claimsmod "galactly/internal/services/claims/module"
	leadsmod "galactly/internal/services/leads/module"
	quotamod "galactly/internal/services/quota/module"
)

// Options are the API options
type Options struct {
	Deps           modkit.Deps
	AdminKey       string
	RateRPS        float64
	RateBurst      int
	EnableSwagger  bool
	EnableProfiler bool
}

// OptionsFrom reads CORE_API_* keys; deps are supplied by the caller
func OptionsFrom(deps modkit.Deps) Options {
	c := deps.Cfg.Prefix("CORE_API_")
	return Options{
		Deps:           deps,
		AdminKey:       c.MayString("ADMIN_KEY", ""),
		RateRPS:        c.MayFloat64("RATE_RPS", 20),
		RateBurst:      c.MayInt("RATE_BURST", 40),
		EnableSwagger:  c.MayBool("SWAGGER", true),
		EnableProfiler: c.MayBool("PROFILER", false),
	}
}

// Modules builds every engine module in dependency order
// leads and quota first, claims reads their ports, the allocator reads claim outcomes
func Modules(deps modkit.Deps) []modkit.Module {
	leads := leadsmod.New(deps)
	quota := quotamod.New(deps)
	claims := claimsmod.New(deps, claimsmod.WithDepsModules(leads, quota))
	sources := allocatormod.New(deps, allocatormod.WithDepsModules(claims))
	return []modkit.Module{metamod.New(deps), leads, quota, claims, sources}
}

// Stack is the middleware for /api/v1: the common stack, caller resolution, then the per caller limiter
func Stack(opt Options) []func(http.Handler) http.Handler {
	lim := middleware.NewLimiter(middleware.RateLimitOptions{
		RPS:   opt.RateRPS,
		Burst: opt.RateBurst,
		Idle:  10 * time.Minute,
	})
	return append(httpkit.CommonStack(),
		httpkit.Identity(httpkit.HeaderPort{AdminKey: opt.AdminKey}),
		httpkit.RateLimit(lim),
	)
}

// Mount builds the modules and mounts them under /api/v1
// r must not have routes yet; the modules are returned so the caller can load and run them
func Mount(r phttp.Router, opt Options) []modkit.Module {
	mods := Modules(opt.Deps)

	// load balancers poll the root
	r.Use(middleware.Heartbeat("/health"))
	swaggerkit.Mount(r, opt.EnableSwagger)
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler,
		httpkit.Identity(httpkit.HeaderPort{AdminKey: opt.AdminKey}),
		httpkit.AdminOnly,
	)

	httpkit.MountAPIV1(r, Stack(opt), func(api httpkit.Router) {
		for _, m := range mods {
			m.MountRoutes(api)
		}
	})
	return mods
}
