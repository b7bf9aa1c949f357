package http

import (
	"context"
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
	"galactly/internal/services/claims/service"
	leads "galactly/internal/services/leads/domain"
	leadsvc "galactly/internal/services/leads/service"
	quotasvc "galactly/internal/services/quota/service"
)

type fixture struct {
	r     httpkit.Router
	clk   *testkit.Clock
	store *leadsvc.Store
}

func newServer(t *testing.T) fixture {
	t.Helper()
	clk := testkit.NewClock(time.Date(2025, 10, 20, 15, 0, 0, 0, time.UTC))
	store := leadsvc.New(nil, nil, nil, nil, leadsvc.Config{Now: clk.Now})
	ledger := quotasvc.New(nil, nil, nil, quotasvc.Config{Now: clk.Now})
	coord := service.New(nil, nil, store, ledger, nil, service.Config{Now: clk.Now})

	r := phttp.AdaptChi(chi.NewRouter())
	r.Use(httpkit.Identity(httpkit.HeaderPort{AdminKey: "ops-key"}))
	r.Route("/claims", func(rr httpkit.Router) { Register(rr, coord, clk.Now) })
	return fixture{r: r, clk: clk, store: store}
}

func (f fixture) lead(t *testing.T, text string) string {
	t.Helper()
	l, _, err := f.store.Score(context.Background(), leads.RawItem{Platform: "reddit", SourceID: "src-1", Text: text})
	if err != nil {
		t.Fatal(err)
	}
	return l.ID.String()
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

func who(identity, plan string) map[string]string {
	return map[string]string{httpkit.HeaderIdentity: identity, httpkit.HeaderPlan: plan}
}

func TestClaimHideAndStatus(t *testing.T) {
	f := newServer(t)
	id := f.lead(t, "RFQ for 5,000 custom mailer boxes")

	rec, env := do(f.r, "POST", "/claims/"+id, `{"hide":true}`, who("vera", "vip"))
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("claim = %d %s", rec.Code, rec.Body.String())
	}
	data, _ := env.Data.(map[string]any)
	if data["hidden"] != true || data["hide_until"] != "2025-10-23T15:00:00Z" || data["owner"] != "vera" {
		t.Fatalf("claim body = %v", data)
	}

	rec, env = do(f.r, "POST", "/claims/"+id, "", who("bob", "free"))
	if rec.Code != stdhttp.StatusConflict || env.Reason != "hidden_by_other" {
		t.Fatalf("bob claim = %d %s", rec.Code, rec.Body.String())
	}
	if env.Details["competitor_count"] != float64(1) {
		t.Fatalf("details = %v", env.Details)
	}

	rec, _ = do(f.r, "POST", "/claims/"+id+"/seen", "", who("bob", "free"))
	if rec.Code != stdhttp.StatusNoContent {
		t.Fatalf("seen = %d", rec.Code)
	}

	rec, env = do(f.r, "GET", "/claims/"+id, "", who("vera", "vip"))
	data, _ = env.Data.(map[string]any)
	if rec.Code != stdhttp.StatusOK || data["hidden"] != true || data["competitor_count"] != float64(1) || data["claimed_by_count"] != float64(1) {
		t.Fatalf("status = %d %v", rec.Code, data)
	}

	f.clk.Advance(73 * time.Hour)
	_, env = do(f.r, "GET", "/claims/"+id, "", nil)
	data, _ = env.Data.(map[string]any)
	if data["hidden"] != false || data["lifecycle_state"] != "Claimed" {
		t.Fatalf("status after ttl = %v", data)
	}
}

func TestClaimQuotaExceeded(t *testing.T) {
	f := newServer(t)
	for i, text := range []string{"rfq one for boxes", "rfq two for bags", "rfq three for tape"} {
		rec, _ := do(f.r, "POST", "/claims/"+f.lead(t, text), "", who("fred", "free"))
		if rec.Code != stdhttp.StatusOK {
			t.Fatalf("claim %d = %d %s", i, rec.Code, rec.Body.String())
		}
	}
	rec, env := do(f.r, "POST", "/claims/"+f.lead(t, "rfq four for labels"), "", who("fred", "free"))
	if rec.Code != stdhttp.StatusTooManyRequests || env.Reason != "quota_exceeded" {
		t.Fatalf("over quota = %d %s", rec.Code, rec.Body.String())
	}
	if env.Details["remaining"] != float64(0) || env.Details["limit"] != float64(3) {
		t.Fatalf("details = %v", env.Details)
	}
}

func TestClaimAdminRoutes(t *testing.T) {
	f := newServer(t)
	id := f.lead(t, "tender for pallets")
	admin := map[string]string{httpkit.HeaderAdminKey: "ops-key"}

	rec, env := do(f.r, "POST", "/claims/"+id+"/expire", "", who("bob", "free"))
	if rec.Code != stdhttp.StatusForbidden || env.Reason != "admin_required" {
		t.Fatalf("non admin expire = %d %s", rec.Code, rec.Body.String())
	}

	rec, env = do(f.r, "POST", "/claims/"+id+"/expire", "", admin)
	data, _ := env.Data.(map[string]any)
	if rec.Code != stdhttp.StatusOK || data["lifecycle_state"] != "Expired" {
		t.Fatalf("expire = %d %s", rec.Code, rec.Body.String())
	}

	rec, env = do(f.r, "POST", "/claims/"+id, "", who("bob", "free"))
	if rec.Code != stdhttp.StatusConflict || env.Reason != "lead_expired" {
		t.Fatalf("claim expired = %d %s", rec.Code, rec.Body.String())
	}

	f.lead(t, "tender for drums")
	f.clk.Advance(48 * time.Hour)
	rec, env = do(f.r, "POST", "/claims/sweep", `{"max_age":"24h"}`, admin)
	data, _ = env.Data.(map[string]any)
	if rec.Code != stdhttp.StatusOK || data["expired"] != float64(1) {
		t.Fatalf("sweep = %d %s", rec.Code, rec.Body.String())
	}
}

func TestClaimRejects(t *testing.T) {
	f := newServer(t)
	id := f.lead(t, "bid for crates")

	cases := []struct {
		name, method, path, body string
		hdr                      map[string]string
		want                     int
		reason                   string
	}{
		{"no identity", "POST", "/claims/" + id, "", nil, stdhttp.StatusUnauthorized, "identity_required"},
		{"bad id", "POST", "/claims/not-a-uuid", "", who("a", "free"), stdhttp.StatusBadRequest, "validation"},
		{"unknown lead", "POST", "/claims/7f1b3c6e-4c52-4f8e-9e2a-1d2c3b4a5f60", "", who("a", "free"), stdhttp.StatusNotFound, "not_found"},
		{"cost too high", "POST", "/claims/" + id, `{"cost":500}`, who("a", "free"), stdhttp.StatusBadRequest, "validation"},
		{"bad sweep age", "POST", "/claims/sweep", `{"max_age":"soon"}`, map[string]string{httpkit.HeaderAdminKey: "ops-key"}, stdhttp.StatusBadRequest, "validation"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec, env := do(f.r, c.method, c.path, c.body, c.hdr)
			if rec.Code != c.want || env.Reason != c.reason {
				t.Fatalf("%s %s = %d %s", c.method, c.path, rec.Code, rec.Body.String())
			}
		})
	}
}
