package middleware

import (
	"net/http"

	"galactly/internal/platform/logger"
	pnet "galactly/internal/platform/net"
)

// CallerPort resolves who is calling from request headers or credentials
type CallerPort interface {
	Resolve(r *http.Request) (pnet.Caller, error)
}

// Identity stores the resolved caller on the request context
// a nil port passes through; a resolve error is written with write
func Identity(p CallerPort, write func(w http.ResponseWriter, status int, body any)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p == nil {
				next.ServeHTTP(w, r)
				return
			}
			c, err := p.Resolve(r)
			if err != nil {
				status, body := pnet.Error(err, pnet.RequestID(r.Context()))
				write(w, status, body)
				return
			}
			ctx := pnet.WithCaller(r.Context(), c)
			ctx = logger.WithRequest(ctx, pnet.RequestID(ctx), c.Identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
