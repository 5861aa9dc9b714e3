package auth

import "errors"

var (
	ErrInvalidInput       = errors.New("auth: invalid input")
	ErrNotFound           = errors.New("auth: not found")
	ErrConflict           = errors.New("auth: already exists")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
)

// Login failure reasons kept for logging and tests. They are never serialized
// to clients; every LoginError renders as the same generic message.
const (
	ReasonNoMatchingUser   = "no_matching_user"
	ReasonUserDisabled     = "user_disabled"
	ReasonPasswordMismatch = "password_mismatch"
	ReasonMalformedRequest = "malformed_request"
)

// LoginError carries the internal cause of an authentication failure while
// matching ErrInvalidCredentials through errors.Is.
type LoginError struct {
	Reason string
}

func (e *LoginError) Error() string { return ErrInvalidCredentials.Error() }

func (e *LoginError) Is(target error) bool { return target == ErrInvalidCredentials }
