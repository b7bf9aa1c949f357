package http

import (
	stdhttp "net/http"

	mw "github.com/go-chi/chi/v5/middleware"
)

// MountProfiler serves pprof below prefix, e.g. /debug/pprof/, when enabled
// guards run before the profiler so callers can restrict it
func MountProfiler(r Router, prefix string, enabled bool, guards ...func(stdhttp.Handler) stdhttp.Handler) {
	if !enabled {
		return
	}
	prof := stdhttp.StripPrefix(prefix, mw.Profiler())
	r.Group(func(g Router) {
		g.Use(guards...)
		g.Handle(prefix, prof)
		g.Handle(prefix+"/*", prof)
	})
}
