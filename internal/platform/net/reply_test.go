package net_test

import (
	"errors"
	"net/http"
	"testing"

	perr "galactly/internal/platform/errors"
	pnet "galactly/internal/platform/net"
)

func TestOK(t *testing.T) {
	status, w := pnet.OK(map[string]any{"x": 1}, "req-1")
	if status != http.StatusOK || w.StatusCode != http.StatusOK {
		t.Fatalf("status mismatch: %d %+v", status, w)
	}
	if w.RequestID != "req-1" {
		t.Fatalf("req id %q", w.RequestID)
	}
	if got := w.Data.(map[string]any)["x"]; got != 1 {
		t.Fatalf("data mismatch: %+v", w.Data)
	}
}

func TestError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		reason string
	}{
		{name: "nil is ok", err: nil, status: http.StatusOK},
		{name: "foreign error is 500", err: errors.New("boom"), status: http.StatusInternalServerError},
		{name: "unauthorized", err: perr.Unauthorizedf("missing identity"), status: http.StatusUnauthorized},
		{
			name:   "rejection keeps reason and details",
			err:    perr.WithDetail(perr.Reasonf(perr.ErrorCodeConflict, "hidden_by_other", "lead hidden"), "competitor_count", 2),
			status: http.StatusConflict,
			reason: "hidden_by_other",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, w := pnet.Error(tt.err, "req-9")
			if status != tt.status || w.StatusCode != tt.status {
				t.Fatalf("status %d/%d want %d", status, w.StatusCode, tt.status)
			}
			if w.Reason != tt.reason {
				t.Fatalf("reason %q want %q", w.Reason, tt.reason)
			}
			if tt.reason != "" && w.Details["competitor_count"] != 2 {
				t.Fatalf("details lost: %+v", w.Details)
			}
			if w.RequestID != "req-9" {
				t.Fatalf("req id %q", w.RequestID)
			}
		})
	}
}
