package httpkit

import (
	"net/http"

	phttp "galactly/internal/platform/net/http"
)

// Admin groups operator-only routes
func Admin(r Router, fn func(Router)) {
	r.Group(func(gr Router) {
		gr.Use(AdminOnly)
		fn(gr)
	})
}

// AdminOnly rejects callers without operator credentials; it needs Identity upstream
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := RequireAdmin(r); err != nil {
			phttp.RespondError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}
