package guard

import "context"

type contextKey struct{ name string }

var authContextKey = &contextKey{name: "guard_auth"}

// WithAuthContext attaches the authenticated identity to a context.
func WithAuthContext(ctx context.Context, auth *AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, auth)
}

// AuthFromContext returns the identity stored by the guard middleware.
func AuthFromContext(ctx context.Context) (*AuthContext, bool) {
	auth, ok := ctx.Value(authContextKey).(*AuthContext)
	return auth, ok
}
