package modkit

import (
	"context"
	"fmt"

	"galactly/internal/modkit/module"
)

// Module is what the api package mounts and loads
// each service constructor returns one from New(deps, opts...)
type Module = module.Module

// Loader is implemented by modules that warm their state from storage
type Loader interface {
	Load(ctx context.Context) error
}

// LoadAll warms every module that implements Loader, in order
func LoadAll(ctx context.Context, mods ...Module) error {
	for _, m := range mods {
		l, ok := m.(Loader)
		if !ok {
			continue
		}
		if err := l.Load(ctx); err != nil {
			return fmt.Errorf("load %s: %w", m.Name(), err)
		}
	}
	return nil
}

// Runner is implemented by modules that own a background loop
// Run blocks until ctx ends
type Runner interface {
	Run(ctx context.Context) error
}

// Runners picks the modules that implement Runner, in order
func Runners(mods ...Module) []Runner {
	var out []Runner
	for _, m := range mods {
		if r, ok := m.(Runner); ok {
			out = append(out, r)
		}
	}
	return out
}
