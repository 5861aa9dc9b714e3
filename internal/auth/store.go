package auth

import "context"

// UserStore describes persistence operations required by the auth subsystem.
// Callers pass already-hashed passwords; the store never hashes.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	// FindByEmailAndRole treats role as part of the lookup key, so a login
	// presented with the wrong role context is indistinguishable from an
	// unknown email.
	FindByEmailAndRole(ctx context.Context, email, role string) (*User, error)
	// Disable soft-disables an account. Users are never hard-deleted.
	Disable(ctx context.Context, id string) error
}
