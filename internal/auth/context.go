package auth

import (
	"context"
	"strings"
)

type userContextKey struct{}

// ContextWithUser attaches the authenticated user to the context.
func ContextWithUser(ctx context.Context, user *User) context.Context {
	if user == nil {
		return ctx
	}
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext extracts the authenticated user from the context.
func UserFromContext(ctx context.Context) (*User, bool) {
	if ctx == nil {
		return nil, false
	}
	u, ok := ctx.Value(userContextKey{}).(*User)
	if !ok || u == nil {
		return nil, false
	}
	return u, true
}

// UserIDFromContext returns the authenticated user ID if present.
func UserIDFromContext(ctx context.Context) (string, bool) {
	u, ok := UserFromContext(ctx)
	if !ok {
		return "", false
	}
	return u.ID, true
}

// HasRole checks whether the context user carries the specified role.
func HasRole(ctx context.Context, role string) bool {
	role = strings.TrimSpace(strings.ToLower(role))
	if role == "" {
		return false
	}
	u, ok := UserFromContext(ctx)
	if !ok {
		return false
	}
	return u.Role == role
}
