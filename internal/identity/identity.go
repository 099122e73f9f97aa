// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package identity resolves the quota identity of a request: anonymous
// callers are keyed by client IP, authenticated callers by user id.
package identity

import "context"

// Identity is the key quota state is indexed by.
type Identity struct {
	Key           string
	UserID        int64
	Authenticated bool
}

type contextKey struct{}

// NewContext returns a context carrying the identity.
func NewContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext extracts the identity from the context.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}
