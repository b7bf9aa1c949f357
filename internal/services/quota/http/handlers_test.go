package http

import (
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"galactly/internal/modkit/httpkit"
	phttp "galactly/internal/platform/net/http"
	"galactly/internal/platform/testkit"
	"galactly/internal/services/quota/service"
)

func newServer(t *testing.T) httpkit.Router {
	t.Helper()
	clk := testkit.NewClock(time.Date(2025, 10, 20, 15, 0, 0, 0, time.UTC))
	ledger := service.New(nil, nil, nil, service.Config{Now: clk.Now})

	r := phttp.AdaptChi(chi.NewRouter())
	r.Use(httpkit.Identity(httpkit.HeaderPort{AdminKey: "ops-key"}))
	r.Route("/quota", func(rr httpkit.Router) { Register(rr, ledger) })
	return r
}

func do(r httpkit.Router, method, path, body string, hdr map[string]string) (*httptest.ResponseRecorder, httpkit.Envelope) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, req)
	var env httpkit.Envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec, env
}

func TestConsumeAndStatus(t *testing.T) {
	r := newServer(t)
	free := map[string]string{httpkit.HeaderIdentity: "buyer@acme.test", httpkit.HeaderPlan: "free"}

	for i := 0; i < 3; i++ {
		rec, _ := do(r, "POST", "/quota/claim/consume", "", free)
		if rec.Code != stdhttp.StatusOK {
			t.Fatalf("consume %d = %d %s", i, rec.Code, rec.Body.String())
		}
	}

	rec, env := do(r, "POST", "/quota/claim/consume", `{"cost":1}`, free)
	if rec.Code != stdhttp.StatusTooManyRequests || env.Reason != "quota_exceeded" {
		t.Fatalf("over limit = %d %s", rec.Code, rec.Body.String())
	}
	if env.Details["reset_at"] != "2025-10-21T00:00:00Z" {
		t.Fatalf("details = %v", env.Details)
	}

	rec, env = do(r, "GET", "/quota/claim", "", free)
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	data, _ := env.Data.(map[string]any)
	if data["used"] != float64(3) || data["remaining"] != float64(0) || data["limit"] != float64(3) {
		t.Fatalf("status body = %v", data)
	}
}

func TestQuotaRejects(t *testing.T) {
	r := newServer(t)
	id := map[string]string{httpkit.HeaderIdentity: "a"}

	cases := []struct {
		name, method, path, body string
		hdr                      map[string]string
		want                     int
		reason                   string
	}{
		{"anonymous", "GET", "/quota/claim", "", nil, stdhttp.StatusUnauthorized, "identity_required"},
		{"bad bucket", "GET", "/quota/Claim!", "", id, stdhttp.StatusBadRequest, "validation"},
		{"unknown bucket", "GET", "/quota/widgets", "", id, stdhttp.StatusNotFound, "not_found"},
		{"unknown bucket consume", "POST", "/quota/widgets/consume", "", id, stdhttp.StatusNotFound, "not_found"},
		{"zero cost defaults to one", "POST", "/quota/claim/consume", `{"cost":0}`, id, stdhttp.StatusOK, ""},
		{"negative cost", "POST", "/quota/claim/consume", `{"cost":-2}`, id, stdhttp.StatusBadRequest, "validation"},
		{"unknown field", "POST", "/quota/claim/consume", `{"costs":1}`, id, stdhttp.StatusBadRequest, "validation"},
		{"wrong admin key", "GET", "/quota/claim", "", map[string]string{httpkit.HeaderAdminKey: "nope"}, stdhttp.StatusUnauthorized, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec, env := do(r, c.method, c.path, c.body, c.hdr)
			if rec.Code != c.want || env.Reason != c.reason {
				t.Fatalf("%d %q want %d %q (%s)", rec.Code, env.Reason, c.want, c.reason, rec.Body.String())
			}
		})
	}
}

func TestBucketCaseShared(t *testing.T) {
	r := newServer(t)
	free := map[string]string{httpkit.HeaderIdentity: "buyer@acme.test", httpkit.HeaderPlan: "free"}

	for _, path := range []string{"/quota/CLAIM/consume", "/quota/Claim/consume", "/quota/claim/consume"} {
		if rec, _ := do(r, "POST", path, "", free); rec.Code != stdhttp.StatusOK {
			t.Fatalf("%s = %d %s", path, rec.Code, rec.Body.String())
		}
	}
	rec, env := do(r, "POST", "/quota/claim/consume", "", free)
	if rec.Code != stdhttp.StatusTooManyRequests || env.Reason != "quota_exceeded" {
		t.Fatalf("fourth claim = %d %s", rec.Code, rec.Body.String())
	}
	_, env = do(r, "GET", "/quota/Claim", "", free)
	data, _ := env.Data.(map[string]any)
	if data["bucket"] != "claim" || data["used"] != float64(3) || data["limit"] != float64(3) {
		t.Fatalf("status body = %v", data)
	}
}

func TestAdminBypass(t *testing.T) {
	r := newServer(t)
	hdr := map[string]string{httpkit.HeaderIdentity: "ops", httpkit.HeaderAdminKey: "ops-key"}
	for i := 0; i < 10; i++ {
		rec, env := do(r, "POST", "/quota/claim/consume", "", hdr)
		data, _ := env.Data.(map[string]any)
		if rec.Code != stdhttp.StatusOK || data["bypassed"] != true {
			t.Fatalf("bypass %d = %d %s", i, rec.Code, rec.Body.String())
		}
	}
}
