// Package auth threads the authenticated user's identity through request
// contexts. The store refuses every operation issued without one.
package auth

import (
	"context"

	"github.com/google/uuid"

	"kopilka/internal/core"
)

type ctxKey struct{}

// WithUser returns a context carrying the authenticated user's id.
func WithUser(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserID extracts the authenticated user from the context, or
// core.ErrNotAuthenticated when the context carries none.
func UserID(ctx context.Context) (uuid.UUID, error) {
	id, ok := ctx.Value(ctxKey{}).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, core.ErrNotAuthenticated
	}
	return id, nil
}
