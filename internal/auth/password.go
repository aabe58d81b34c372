// Package auth holds the forum's credential primitives: bcrypt password
// hashing, optional HS256 session tokens and the middleware that reads them.
//
// PASSWORD STORAGE:
// The users.password column never holds plaintext. bcrypt output is
// self-describing, so the salt and cost travel inside the stored string:
//
//	$2a$10$<22-char salt><31-char hash>
//	 ^   ^
//	 |   cost (10 rounds → 2^10 iterations)
//	 version
//
// Two users registering the same password get different hashes because
// every call to GenerateFromPassword draws a fresh salt.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the bcrypt input limit. Longer inputs would be
// silently truncated by the algorithm, so Hash rejects them.
const MaxPasswordBytes = 72

// DefaultCost is the work factor used for stored passwords.
const DefaultCost = 10

// ErrPasswordMismatch is returned by Verify when the plaintext does not
// match the stored hash.
var ErrPasswordMismatch = errors.New("auth: password mismatch")

// PasswordService hashes and verifies passwords with bcrypt.
//
// The cost is a field so tests can run at bcrypt.MinCost.
type PasswordService struct {
	cost int
}

// NewPasswordService returns a PasswordService. A cost of 0 selects
// DefaultCost; values outside bcrypt's range are clamped by the library
// (it falls back to bcrypt.DefaultCost below MinCost).
func NewPasswordService(cost int) *PasswordService {
	if cost == 0 {
		cost = DefaultCost
	}
	return &PasswordService{cost: cost}
}

// Hash returns the bcrypt encoding of plaintext.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", fmt.Errorf("auth: password must be %d bytes or fewer", MaxPasswordBytes)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches hash. A mismatch yields
// ErrPasswordMismatch; a malformed hash yields a wrapped bcrypt error.
//
// bcrypt.CompareHashAndPassword compares in constant time.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
