// Package modkit provides module wiring and core deps
package modkit

import (
	"time"

	"galactly/internal/modkit/repokit"
	"galactly/internal/platform/config"
	"galactly/internal/platform/logger"
	"galactly/internal/platform/store"
)

// Deps holds core dependencies passed to modules
// PG and CH are nil when the backend is not configured
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
	CH  store.Clickhouse

	// Now is the time source, nil means time.Now
	Now func() time.Time
}

// Clock returns the configured time source
func (d Deps) Clock() func() time.Time {
	if d.Now == nil {
		return time.Now
	}
	return d.Now
}
