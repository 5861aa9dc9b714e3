package auth

import "golang.org/x/crypto/bcrypt"

// bcrypt silently truncates input beyond 72 bytes, so longer passwords are
// rejected outright instead of being hashed on a prefix.
const maxPasswordBytes = 72

// HashPassword hashes a plaintext password using bcrypt with a random salt.
func HashPassword(password string) (string, error) {
	if password == "" || len(password) > maxPasswordBytes {
		return "", ErrInvalidInput
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether plaintext matches the stored hash. A
// malformed or empty stored hash is a mismatch, never a bypass.
func CheckPassword(hash, password string) bool {
	if hash == "" || password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
