package module

import (
	"net/http"
	"time"

	modkit "galactly/internal/modkit"
	"galactly/internal/modkit/httpkit"
	mmodule "galactly/internal/modkit/module"
	"galactly/internal/platform/config"
)

// Option is a configuration option for the claims module
type Option = modkit.Option

// WithPrefix sets the route prefix for the module
func WithPrefix(prefix string) Option { return modkit.WithPrefix(prefix) }

// WithMiddlewares sets the middlewares for the module
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return modkit.WithMiddlewares(mw...)
}

// WithRegister sets the register function for the module
func WithRegister(fn func(httpkit.Router)) Option { return modkit.WithRegister(fn) }

// DepsModules carries the modules the coordinator reads ports from
type DepsModules struct {
	Leads mmodule.Module
	Quota mmodule.Module
}

// WithDepsModules passes the leads and quota modules
func WithDepsModules(leads, quota mmodule.Module) Option {
	return modkit.WithPorts(DepsModules{Leads: leads, Quota: quota})
}

// Options holds configuration settings for the coordinator
type Options struct {
	ClaimCost   int
	LeadTTL     time.Duration
	SweepEvery  time.Duration
	LockTimeout time.Duration
}

// FromConfig reads QUOTA_CLAIM_COST, LEADS_TTL, CLAIMS_SWEEP_EVERY and CLAIMS_LOCK_TIMEOUT
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("CLAIMS_")
	return Options{
		ClaimCost:   cfg.Prefix("QUOTA_").MayInt("CLAIM_COST", 1),
		LeadTTL:     cfg.Prefix("LEADS_").MayDuration("TTL", 30*24*time.Hour),
		SweepEvery:  c.MayDuration("SWEEP_EVERY", time.Hour),
		LockTimeout: c.MayDuration("LOCK_TIMEOUT", 2*time.Second),
	}
}
