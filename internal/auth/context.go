package auth

import "context"

type contextKey struct{}

// NewContext returns a copy of ctx carrying the verified claims.
func NewContext(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, contextKey{}, claims)
}

// FromContext returns the claims stored by NewContext.
func FromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(contextKey{}).(*Claims)
	return claims, ok
}

// UserIDFromContext returns the authenticated user id, or "" when the
// request did not pass the auth middleware.
func UserIDFromContext(ctx context.Context) string {
	if claims, ok := FromContext(ctx); ok {
		return claims.UserID()
	}
	return ""
}
