// Package model provides the host-facing contracts.
package model

import "context"

// Stream is the host's opaque streaming response handle. The router
// returns it verbatim and never reads from it.
type Stream = any

// StreamFunc is the host's inference entry point. The router wraps one
// StreamFunc and exposes another with the identical signature.
type StreamFunc func(ctx context.Context, m *Model, c *Context, opts *Options) (Stream, error)

// Resolver binds a model reference to a concrete backend descriptor
// using the host's model-resolution service.
type Resolver interface {
	Resolve(ctx context.Context, ref ModelRef) (*Model, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, ref ModelRef) (*Model, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, ref ModelRef) (*Model, error) {
	return f(ctx, ref)
}
