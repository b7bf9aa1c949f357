package module

import (
	"net/http"
	"time"

	modkit "galactly/internal/modkit"
	"galactly/internal/modkit/httpkit"
	"galactly/internal/platform/config"
)

// Option is a configuration option for the quota module
type Option = modkit.Option

// WithPrefix sets the route prefix for the module
func WithPrefix(prefix string) Option { return modkit.WithPrefix(prefix) }

// WithMiddlewares sets the middlewares for the module
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return modkit.WithMiddlewares(mw...)
}

// WithRegister sets the register function for the module
func WithRegister(fn func(httpkit.Router)) Option { return modkit.WithRegister(fn) }

// Options holds configuration settings for the quota ledger
type Options struct {
	Window    time.Duration
	Location  *time.Location
	Bypass    []string
	PlansFile string
}

// FromConfig reads QUOTA_* settings
func FromConfig(cfg config.Conf) Options {
	qc := cfg.Prefix("QUOTA_")
	return Options{
		Window:    qc.MayDuration("WINDOW", 24*time.Hour),
		Location:  qc.MayLocation("TZ", time.UTC),
		Bypass:    qc.MayCSV("BYPASS_IDENTITIES", nil),
		PlansFile: qc.MayString("PLANS_FILE", ""),
	}
}
