package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"
)

const defaultMinPasswordLen = 8

// Service orchestrates the credential store and verifier for registration
// and login. It raises typed failures and leaves HTTP mapping to callers.
type Service struct {
	store          UserStore
	now            func() time.Time
	minPasswordLen int
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithMinPasswordLen overrides the minimum accepted password length.
func WithMinPasswordLen(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.minPasswordLen = n
		}
	}
}

// NewService constructs a Service on top of the given user store.
func NewService(store UserStore, opts ...ServiceOption) *Service {
	svc := &Service{
		store:          store,
		now:            time.Now,
		minPasswordLen: defaultMinPasswordLen,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// RegisterParams carries the fields accepted at registration.
type RegisterParams struct {
	Email          string
	Password       string
	Role           string
	Name           string
	WalletAddress  string
	Certifications []string
	AgeVerified    bool
}

// Register validates input, hashes the password and persists the user.
// Duplicate emails surface as ErrConflict from the store's unique index;
// there is no application-level pre-check.
func (s *Service) Register(ctx context.Context, p RegisterParams) (*User, error) {
	email := NormalizeEmail(p.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if len(p.Password) < s.minPasswordLen || len(p.Password) > maxPasswordBytes {
		return nil, ErrInvalidInput
	}
	if !ValidRole(p.Role) {
		return nil, ErrInvalidInput
	}
	if strings.TrimSpace(p.Name) == "" {
		return nil, ErrInvalidInput
	}
	// Age-gated marketplace: customers must have passed age verification
	// before an account is created.
	if p.Role == RoleCustomer && !p.AgeVerified {
		return nil, ErrInvalidInput
	}

	hash, err := HashPassword(p.Password)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	user := &User{
		Email:          email,
		Name:           strings.TrimSpace(p.Name),
		Role:           p.Role,
		PasswordHash:   hash,
		WalletAddress:  strings.TrimSpace(p.WalletAddress),
		Certifications: p.Certifications,
		AgeVerified:    p.AgeVerified,
		Status:         StatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login authenticates a role-scoped email/password pair. Every failure mode
// except storage errors returns a LoginError, so unknown email, wrong role,
// disabled account and wrong password are indistinguishable to callers.
func (s *Service) Login(ctx context.Context, email, password, role string) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" || !ValidRole(role) {
		return nil, &LoginError{Reason: ReasonMalformedRequest}
	}
	user, err := s.store.FindByEmailAndRole(ctx, email, role)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &LoginError{Reason: ReasonNoMatchingUser}
		}
		return nil, err
	}
	if user.Status != StatusActive {
		return nil, &LoginError{Reason: ReasonUserDisabled}
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, &LoginError{Reason: ReasonPasswordMismatch}
	}
	return user, nil
}

func validateEmail(email string) error {
	if email == "" || len(email) > 254 {
		return ErrInvalidInput
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidInput
	}
	return nil
}
