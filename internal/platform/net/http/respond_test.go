package http_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	perr "galactly/internal/platform/errors"
	pnet "galactly/internal/platform/net"
	phttp "galactly/internal/platform/net/http"
)

func reqWithID(method, path, rid string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	return req.WithContext(pnet.WithRequest(req.Context(), rid))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) phttp.Envelope {
	t.Helper()
	var env phttp.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	return env
}

func TestJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	phttp.JSON(rec, http.StatusAccepted, map[string]int{"n": 1})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("content type = %q", ct)
	}
}

func TestRespondError_CarriesReasonAndDetails(t *testing.T) {
	err := perr.WithDetail(
		perr.Reasonf(perr.ErrorCodeConflict, "hidden_by_other", "lead is hidden"),
		"competitor_count", 2,
	)
	rec := httptest.NewRecorder()
	phttp.RespondError(rec, reqWithID("POST", "/claim", "rid-1"), err)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d", rec.Code)
	}
	env := decode(t, rec)
	if env.Reason != "hidden_by_other" || env.RequestID != "rid-1" || env.Code != perr.ErrorCodeConflict {
		t.Fatalf("envelope = %+v", env)
	}
	// numbers decode as float64
	if env.Details["competitor_count"] != float64(2) {
		t.Fatalf("details = %#v", env.Details)
	}
}

func TestHandle(t *testing.T) {
	cases := []struct {
		name   string
		resp   phttp.Response
		status int
	}{
		{"ok", phttp.OK("hello"), http.StatusOK},
		{"created", phttp.Created(map[string]string{"id": "x"}), http.StatusCreated},
		{"no content", phttp.NoContent(), http.StatusNoContent},
		{"project error", phttp.Error(perr.Forbiddenf("nope")), http.StatusForbidden},
		{"foreign error", phttp.Error(errors.New("boom")), http.StatusInternalServerError},
		{"zero status", phttp.Response{Body: 1}, http.StatusOK},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			h := phttp.Handle(func(*http.Request) phttp.Response { return c.resp })
			rec := httptest.NewRecorder()
			h(rec, reqWithID("GET", "/", "rid-2"))
			if rec.Code != c.status {
				t.Fatalf("status = %d, want %d", rec.Code, c.status)
			}
			if c.status == http.StatusNoContent {
				if rec.Body.Len() != 0 {
					t.Fatalf("204 must not carry a body")
				}
				return
			}
			if env := decode(t, rec); env.StatusCode != c.status || env.RequestID != "rid-2" {
				t.Fatalf("envelope = %+v", env)
			}
		})
	}
}

func TestHandle_Headers(t *testing.T) {
	h := phttp.Handle(func(*http.Request) phttp.Response {
		resp := phttp.OK("hello")
		resp.Header = http.Header{}
		resp.Header.Set("Retry-After", "30")
		return resp
	})
	rec := httptest.NewRecorder()
	h(rec, reqWithID("GET", "/", ""))
	if got := rec.Header().Get("Retry-After"); got != "30" {
		t.Fatalf("header = %q", got)
	}
}

func TestList(t *testing.T) {
	h := phttp.Handle(func(*http.Request) phttp.Response {
		return phttp.List([]string{"a", "b"}, 2, 1, 25, "")
	})
	rec := httptest.NewRecorder()
	h(rec, reqWithID("GET", "/", "rid-3"))

	var body struct {
		Data struct {
			Items []string   `json:"items"`
			Page  phttp.Page `json:"page"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Data.Items) != 2 || body.Data.Page.Total != 2 || body.Data.Page.PageSize != 25 {
		t.Fatalf("list body = %+v", body)
	}
}
