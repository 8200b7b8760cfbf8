// Package access carries the per-request scope (organization and role) and
// applies the read-side visibility projection. It never mutates stored
// records; write-side validation lives with the integrity coordinator and is
// stricter.
package access

import (
	"context"

	"github.com/steeplehq/steeple/internal/model"
)

type contextKey struct{}

// Scope is threaded through every call explicitly: the fronting
// authorization layer decides who the caller is, the core only projects.
type Scope struct {
	OrgID int64
	Role  model.Role
}

func WithScope(ctx context.Context, sc Scope) context.Context {
	return context.WithValue(ctx, contextKey{}, sc)
}

func ScopeFrom(ctx context.Context) (Scope, bool) {
	sc, ok := ctx.Value(contextKey{}).(Scope)
	return sc, ok
}
