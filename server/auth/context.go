package auth

import "context"

type contextKey int

const userClaimsContextKey contextKey = iota

// UserClaims identifies the caller of a request.
type UserClaims struct {
	UserID int32
}

// WithUserClaims returns a copy of ctx carrying claims.
func WithUserClaims(ctx context.Context, claims *UserClaims) context.Context {
	return context.WithValue(ctx, userClaimsContextKey, claims)
}

// GetUserClaims returns the caller set by the middleware, or nil.
func GetUserClaims(ctx context.Context) *UserClaims {
	claims, _ := ctx.Value(userClaimsContextKey).(*UserClaims)
	return claims
}
