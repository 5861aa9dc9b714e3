package auth

import (
	"strings"
	"time"
)

const (
	RoleCustomer = "customer"
	RoleMerchant = "merchant"
	RoleAdmin    = "admin"
)

const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// ValidRole reports whether role is one of the fixed role enumeration.
func ValidRole(role string) bool {
	switch role {
	case RoleCustomer, RoleMerchant, RoleAdmin:
		return true
	default:
		return false
	}
}

// NormalizeEmail lower-cases and trims an email for case-insensitive matching.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// User represents an account holder. PasswordHash never leaves the process:
// it is excluded from JSON and stripped again by Public.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Role           string    `json:"role"`
	PasswordHash   string    `json:"-"`
	WalletAddress  string    `json:"wallet_address,omitempty"`
	Certifications []string  `json:"certifications,omitempty"`
	AgeVerified    bool      `json:"age_verified"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Public returns a copy safe to hand to external collaborators.
func (u *User) Public() *User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.PasswordHash = ""
	return &cp
}
