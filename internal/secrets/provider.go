// Package secrets manages the signing secret material used by session
// tokens: a current secret for issuance plus one previous secret retained
// for verification during the rotation grace window.
package secrets

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"
)

var (
	ErrNotConfigured       = errors.New("secrets: signing secret is not configured")
	ErrOperatorRequired    = errors.New("secrets: operator identity is required")
	ErrRotationUnsupported = errors.New("secrets: rotation is not supported by this provider")
)

// MaterialBytes is the length of freshly generated secret material.
const MaterialBytes = 64

// Rotation describes a completed rotation. It never carries secret values.
type Rotation struct {
	ID         string    `json:"id"`
	Operator   string    `json:"operator"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Provider supplies signing secret material to the session issuer. Current
// is used for issuance and verification; Previous for verification only.
type Provider interface {
	Current() ([]byte, error)
	Previous() []byte
	Rotate(ctx context.Context, operator, reason string) (Rotation, error)
}

// NewMaterial returns MaterialBytes of cryptographically random data,
// base64-encoded for storage and transport.
func NewMaterial() (string, error) {
	buf := make([]byte, MaterialBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

var _ Provider = (*Static)(nil)

// Static serves fixed secret material sourced from configuration. It cannot
// rotate; operators rotate the backing store (environment, secret manager)
// out of band and restart the process.
type Static struct {
	current  []byte
	previous []byte
}

// NewStatic builds a Static provider. previous may be empty.
func NewStatic(current, previous string) *Static {
	s := &Static{}
	if current != "" {
		s.current = []byte(current)
	}
	if previous != "" {
		s.previous = []byte(previous)
	}
	return s
}

func (s *Static) Current() ([]byte, error) {
	if len(s.current) == 0 {
		return nil, ErrNotConfigured
	}
	return s.current, nil
}

func (s *Static) Previous() []byte {
	return s.previous
}

func (s *Static) Rotate(ctx context.Context, operator, reason string) (Rotation, error) {
	return Rotation{}, ErrRotationUnsupported
}
