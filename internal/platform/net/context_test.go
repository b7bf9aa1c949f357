package net_test

import (
	"context"
	"testing"

	pnet "galactly/internal/platform/net"
)

func TestWithRequest(t *testing.T) {
	base := context.Background()

	ctx := pnet.WithRequest(base, "req-123")
	if got := pnet.RequestID(ctx); got != "req-123" {
		t.Fatalf("RequestID got %q want %q", got, "req-123")
	}

	if same := pnet.WithRequest(base, ""); same != base {
		t.Fatalf("expected ctx to be unchanged when id empty")
	}
	if got := pnet.RequestID(base); got != "" {
		t.Fatalf("RequestID got %q want empty", got)
	}
}

func TestCallerRoundTrip(t *testing.T) {
	base := context.Background()

	if _, ok := pnet.CallerFrom(base); ok {
		t.Fatalf("empty ctx should carry no caller")
	}
	if pnet.Identity(base) != "" || pnet.Plan(base) != "" || pnet.IsAdmin(base) {
		t.Fatalf("getters on empty ctx should be zero")
	}

	ctx := pnet.WithCaller(base, pnet.Caller{Identity: "buyer@acme.test", Plan: "pro"})
	if pnet.Identity(ctx) != "buyer@acme.test" || pnet.Plan(ctx) != "pro" || pnet.IsAdmin(ctx) {
		t.Fatalf("caller mismatch: %+v", ctx.Value("caller"))
	}

	admin := pnet.WithCaller(base, pnet.Caller{Admin: true})
	if !pnet.IsAdmin(admin) || pnet.Identity(admin) != "" {
		t.Fatalf("admin-only caller should be stored")
	}

	if same := pnet.WithCaller(base, pnet.Caller{Plan: "vip"}); same != base {
		t.Fatalf("caller without identity or admin flag should be ignored")
	}
}
