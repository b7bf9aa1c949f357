// Package net provides utilities for working with request contexts
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// ctxKey is an unexported key type for context values
type ctxKey string

const keyCaller ctxKey = "caller"

// Caller is the identity resolved upstream and trusted by this service
// Plan is the plan tier name; Admin marks operator credentials
type Caller struct {
	Identity string
	Plan     string
	Admin    bool
}

// WithRequest annotates context with the request id
func WithRequest(ctx context.Context, reqID string) context.Context {
	if reqID != "" {
		// set chi RequestID so chimw.GetReqID can retrieve it
		ctx = context.WithValue(ctx, chimw.RequestIDKey, reqID)
	}
	return ctx
}

// WithCaller annotates context with the resolved caller
func WithCaller(ctx context.Context, c Caller) context.Context {
	if c.Identity == "" && !c.Admin {
		return ctx
	}
	return context.WithValue(ctx, keyCaller, c)
}

// CallerFrom returns the caller on the context if present
func CallerFrom(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(keyCaller).(Caller)
	return c, ok
}

// RequestID returns the request id on the context if present
func RequestID(ctx context.Context) string { return chimw.GetReqID(ctx) }

// Identity returns the caller identity on the context if present
func Identity(ctx context.Context) string {
	c, _ := CallerFrom(ctx)
	return c.Identity
}

// Plan returns the caller plan on the context if present
func Plan(ctx context.Context) string {
	c, _ := CallerFrom(ctx)
	return c.Plan
}

// IsAdmin reports whether the caller presented an operator credential
func IsAdmin(ctx context.Context) bool {
	c, _ := CallerFrom(ctx)
	return c.Admin
}
