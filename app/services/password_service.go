// Package services provides technical concerns like password hashing and tokens
package services

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordService hashes and verifies account passwords
type PasswordService interface {
	Hash(plaintext string) (string, error)
	Verify(hash, plaintext string) bool
}

// PasswordServiceImpl implements PasswordService using bcrypt
type PasswordServiceImpl struct {
	cost int
}

// NewPasswordService creates a password service. A cost outside bcrypt's
// supported range falls back to bcrypt.DefaultCost.
func NewPasswordService(cost int) PasswordService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordServiceImpl{cost: cost}
}

// Hash derives a bcrypt hash from the plaintext password
func (s *PasswordServiceImpl) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), s.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches the stored hash. A malformed or
// empty hash verifies as false rather than surfacing an error, so corrupted
// rows behave like a wrong password.
func (s *PasswordServiceImpl) Verify(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
