package module

import (
	"net/http"
	"time"

	modkit "galactly/internal/modkit"
	"galactly/internal/modkit/httpkit"
	mmodule "galactly/internal/modkit/module"
	"galactly/internal/platform/config"
	"galactly/internal/services/allocator/domain"
)

// Option is a configuration option for the allocator module
type Option = modkit.Option

// WithPrefix sets the route prefix for the module
func WithPrefix(prefix string) Option { return modkit.WithPrefix(prefix) }

// WithMiddlewares sets the middlewares for the module
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return modkit.WithMiddlewares(mw...)
}

// WithRegister sets the register function for the module
func WithRegister(fn func(httpkit.Router)) Option { return modkit.WithRegister(fn) }

// DepsModules carries the claims module when it runs in the same process
type DepsModules struct {
	Claims mmodule.Module
}

// WithDepsModules reads claim outcomes from the in-process coordinator
func WithDepsModules(claims mmodule.Module) Option {
	return modkit.WithPorts(DepsModules{Claims: claims})
}

// Options holds configuration settings for the allocator
type Options struct {
	Window           time.Duration
	TopN             int
	Every            time.Duration
	LeaseTTL         time.Duration
	LockFile         string
	Holder           string
	StatementTimeout time.Duration
}

// FromConfig reads ALLOCATOR_* settings
func FromConfig(cfg config.Conf) Options {
	ac := cfg.Prefix("ALLOCATOR_")
	return Options{
		Window:           ac.MayDuration("WINDOW", domain.DefaultWindow),
		TopN:             ac.MayInt("TOP_N", domain.DefaultTopN),
		Every:            ac.MayDuration("EVERY", 24*time.Hour),
		LeaseTTL:         ac.MayDuration("LEASE_TTL", 10*time.Minute),
		LockFile:         ac.MayString("LOCK_FILE", ""),
		Holder:           ac.MayString("HOLDER", ""),
		StatementTimeout: ac.MayDuration("STATEMENT_TIMEOUT", 30*time.Second),
	}
}
