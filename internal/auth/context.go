// ABOUTME: Authentication context for tracking identity through request handlers
// ABOUTME: Provides WithAuth/FromContext for propagating auth info via context

package auth

import (
	"context"
	"errors"
)

// ErrNoContext is returned by FromContext when no authenticated identity is
// bound to the context. Hitting it means a handler ran outside the auth
// middleware, which is a programming error, not a client error.
var ErrNoContext = errors.New("no auth context available")

// AuthContext holds the authenticated identity extracted from a verified
// access token. It is created once per request by the middleware, never
// mutated, and discarded when the request completes.
type AuthContext struct {
	UserID      string // subject claim of the verified token
	ClientID    string // OAuth client ID, empty for direct user sessions
	Email       string // email claim, if present
	AccessToken string // raw bearer token, forwarded to the store for RLS
}

// authContextKey is the key type for storing AuthContext in context.Context.
type authContextKey struct{}

// WithAuth returns a new context with the AuthContext attached.
func WithAuth(ctx context.Context, auth *AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey{}, auth)
}

// FromContext retrieves the AuthContext from the context.
// Returns ErrNoContext when called outside an authenticated request.
func FromContext(ctx context.Context) (*AuthContext, error) {
	auth, ok := ctx.Value(authContextKey{}).(*AuthContext)
	if !ok || auth == nil {
		return nil, ErrNoContext
	}
	return auth, nil
}

// MustFromContext retrieves the AuthContext, panicking if not present.
// Only for call sites that are unreachable without the auth middleware.
func MustFromContext(ctx context.Context) *AuthContext {
	auth, err := FromContext(ctx)
	if err != nil {
		panic("auth: AuthContext not found in context")
	}
	return auth
}
