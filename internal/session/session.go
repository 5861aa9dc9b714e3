// Package session mints and validates the signed, time-bounded tokens that
// represent an authenticated browser or API session.
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"leafmarket.io/internal/auth"
	"leafmarket.io/internal/secrets"
)

const (
	defaultIssuer = "leafmarket"

	// DefaultTTL matches the cookie max-age: sessions live for seven days.
	DefaultTTL = 7 * 24 * time.Hour
)

var (
	// ErrInvalidToken indicates the token failed validation for any reason.
	ErrInvalidToken = errors.New("session: invalid token")
	// ErrNoSecret indicates no signing secret material is available.
	ErrNoSecret = errors.New("session: signing secret is not configured")
)

// Claims are the JWT claims embedded in a session token.
type Claims struct {
	Role   string `json:"role"`
	Wallet string `json:"wallet,omitempty"`
	jwt.RegisteredClaims
}

// Issuer mints and verifies session tokens. Secret material is injected
// through a secrets.Provider; issuance always signs with the current
// secret, verification additionally accepts the previous one to tolerate
// an in-flight rotation.
type Issuer struct {
	secrets secrets.Provider
	issuer  string
	ttl     time.Duration
	now     func() time.Time
}

// Option configures Issuer behavior.
type Option func(*Issuer)

// WithTTL overrides the session lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(i *Issuer) {
		if ttl > 0 {
			i.ttl = ttl
		}
	}
}

// WithIssuerName overrides the iss claim.
func WithIssuerName(name string) Option {
	return func(i *Issuer) {
		if strings.TrimSpace(name) != "" {
			i.issuer = strings.TrimSpace(name)
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(i *Issuer) {
		if fn != nil {
			i.now = fn
		}
	}
}

// NewIssuer constructs an Issuer backed by the given secret provider.
func NewIssuer(provider secrets.Provider, opts ...Option) *Issuer {
	iss := &Issuer{
		secrets: provider,
		issuer:  defaultIssuer,
		ttl:     DefaultTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(iss)
	}
	return iss
}

// TTL returns the configured session lifetime.
func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue signs a session token for the user with the current secret only.
func (i *Issuer) Issue(user *auth.User) (string, time.Time, error) {
	if user == nil || strings.TrimSpace(user.ID) == "" {
		return "", time.Time{}, fmt.Errorf("session: user is required")
	}
	secret, err := i.secrets.Current()
	if err != nil || len(secret) == 0 {
		return "", time.Time{}, ErrNoSecret
	}

	now := i.now().UTC()
	expiresAt := now.Add(i.ttl)
	claims := Claims{
		Role:   user.Role,
		Wallet: user.WalletAddress,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("session: sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify validates the token against the current secret, falling back to
// the previous secret for the rotation grace window. Every failure mode
// collapses to ErrInvalidToken; an unverified token is never partially
// trusted.
func (i *Issuer) Verify(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	current, err := i.secrets.Current()
	if err != nil || len(current) == 0 {
		return nil, ErrNoSecret
	}

	claims, err := i.parseWithSecret(token, current)
	if err != nil {
		previous := i.secrets.Previous()
		if len(previous) == 0 {
			return nil, ErrInvalidToken
		}
		claims, err = i.parseWithSecret(token, previous)
		if err != nil {
			return nil, ErrInvalidToken
		}
	}
	if err := i.validateClaims(claims); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (i *Issuer) parseWithSecret(token string, secret []byte) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return i.now().UTC() }),
	)
	parsed, err := parser.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (i *Issuer) validateClaims(claims *Claims) error {
	if claims.Issuer != i.issuer {
		return fmt.Errorf("unexpected issuer: %s", claims.Issuer)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return errors.New("subject missing")
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return errors.New("timestamps missing")
	}
	if !auth.ValidRole(claims.Role) {
		return fmt.Errorf("unexpected role: %s", claims.Role)
	}
	now := i.now().UTC()
	if now.After(claims.ExpiresAt.Time) {
		return errors.New("token expired")
	}
	// Allow a small clock skew of 5 seconds when validating issued-at.
	if claims.IssuedAt.Time.After(now.Add(5 * time.Second)) {
		return errors.New("token issued in the future")
	}
	if claims.ExpiresAt.Time.Before(claims.IssuedAt.Time) {
		return errors.New("token expiry precedes issued-at")
	}
	return nil
}
