package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	perr "galactly/internal/platform/errors"
	pnet "galactly/internal/platform/net"
	"galactly/internal/platform/net/middleware"
)

type fakeCallerPort struct {
	c   pnet.Caller
	err error
}

func (f fakeCallerPort) Resolve(*http.Request) (pnet.Caller, error) { return f.c, f.err }

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestIdentity(t *testing.T) {
	cases := []struct {
		name     string
		port     middleware.CallerPort
		status   int
		identity string
	}{
		{"nil port passes through", nil, http.StatusOK, ""},
		{"caller stored", fakeCallerPort{c: pnet.Caller{Identity: "buyer-1", Plan: "pro"}}, http.StatusOK, "buyer-1"},
		{"resolve error", fakeCallerPort{err: perr.Unauthorizedf("bad admin key")}, http.StatusUnauthorized, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var seen string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = pnet.Identity(r.Context())
				w.WriteHeader(http.StatusOK)
			})
			rec := httptest.NewRecorder()
			middleware.Identity(c.port, writeJSON)(next).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
			if rec.Code != c.status {
				t.Fatalf("status = %d, want %d", rec.Code, c.status)
			}
			if seen != c.identity {
				t.Fatalf("identity = %q, want %q", seen, c.identity)
			}
		})
	}
}
