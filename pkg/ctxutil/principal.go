// Package ctxutil carries the resolved principal through request contexts.
package ctxutil

import (
	"context"

	"github.com/google/uuid"

	"github.com/aura-travel/backend/internal/models"
)

type principalKey struct{}

// Principal is the identity and role the access gate resolved for a request.
type Principal struct {
	UserID uuid.UUID
	Email  string
	Role   models.Role
}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored by WithPrincipal.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	if !ok || p.UserID == uuid.Nil {
		return Principal{}, false
	}
	return p, true
}
