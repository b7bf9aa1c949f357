package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	phttp "galactly/internal/platform/net/http"
	"galactly/internal/platform/net/middleware"
)

// CommonStack returns the baseline middleware for the api scope
// compose caller resolution and rate limiting after it in main
func CommonStack() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.RecoverJSON,
		middleware.NoCache(),
		middleware.AccessLogZerolog(middleware.AccessLogOptions{Slow: 500 * time.Millisecond}),
		middleware.CORS(middleware.CORSOptions{}),
		middleware.Compress(flate.BestSpeed),
		middleware.StripSlashes(),
		middleware.Timeout(30 * time.Second),
	}
}

// Identity wires caller resolution to the platform JSON writer
func Identity(p middleware.CallerPort) func(http.Handler) http.Handler {
	return middleware.Identity(p, phttp.JSON)
}

// RateLimit wires the per caller limiter to the platform JSON writer
func RateLimit(l *middleware.Limiter) func(http.Handler) http.Handler {
	return middleware.RateLimit(l, phttp.JSON)
}
