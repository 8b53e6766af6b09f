package auth

import (
	"context"

	"github.com/smarteros/mcp-router/pkg/api"
)

// authContextKey is a private type for the auth context key.
type authContextKey struct{}

// SetAuthContext stores the authorized context for the request.
func SetAuthContext(ctx context.Context, ac *api.AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey{}, ac)
}

// AuthContextFrom retrieves the authorized context. Returns nil if the
// request has not passed the authorization gate.
func AuthContextFrom(ctx context.Context) *api.AuthContext {
	if v, ok := ctx.Value(authContextKey{}).(*api.AuthContext); ok {
		return v
	}
	return nil
}
