package http

import (
	"context"
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"galactly/internal/modkit/httpkit"
	phttp "galactly/internal/platform/net/http"
	"galactly/internal/platform/testkit"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func get(t *testing.T, d Deps, path string) map[string]any {
	t.Helper()
	r := phttp.AdaptChi(chi.NewRouter())
	r.Route("/meta", func(rr httpkit.Router) { Register(rr, d) })
	rec := httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("GET %s = %d %s", path, rec.Code, rec.Body.String())
	}
	var env httpkit.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	data, _ := env.Data.(map[string]any)
	return data
}

func TestReady(t *testing.T) {
	clk := testkit.NewClock(time.Date(2025, 10, 20, 13, 0, 0, 0, time.UTC))
	cases := []struct {
		name   string
		pg, ch any
		want   string
	}{
		{"memory only", nil, nil, "ok"},
		{"all up", pinger{}, pinger{}, "ok"},
		{"ch down", pinger{}, pinger{err: errors.New("refused")}, "fail"},
		{"cannot ping", struct{}{}, nil, "degraded"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			data := get(t, Deps{PG: c.pg, CH: c.ch, Now: clk.Now}, "/meta/ready")
			if data["status"] != c.want {
				t.Fatalf("status = %v want %s", data, c.want)
			}
		})
	}
}

func TestServiceAndScoring(t *testing.T) {
	started := time.Date(2025, 10, 20, 13, 0, 0, 0, time.UTC)
	clk := testkit.NewClock(started)
	clk.Advance(5 * time.Minute)
	d := Deps{ServiceName: "galactly-api", StartedAt: started, Now: clk.Now}

	svc := get(t, d, "/meta/service")
	if svc["name"] != "galactly-api" || svc["uptime"] != float64(300) {
		t.Fatalf("service = %v", svc)
	}

	sc := get(t, d, "/meta/scoring")
	w, _ := sc["weights"].(map[string]any)
	if sc["lexicon_version"] != float64(1) || w["base_hot"] != float64(42) || sc["recency_half_life"] != "168h0m0s" {
		t.Fatalf("scoring = %v", sc)
	}
}
