// Package auth provides password hashing and JWT token services.
package auth

import (
	"errors"
	"fmt"
	"unicode"

	passwordvalidator "github.com/wagslane/go-password-validator"
	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor. Cost 12 takes roughly ~250ms on a
// modern server — negligible for login, brutal for attackers. Tune so that
// hashing stays in the 200–300ms range on production hardware.
const defaultCost = 12

// Strength policy for new passwords.
//
// minPasswordLength and the not-entirely-numeric rule mirror the classic
// validator chain (minimum length, not all digits); minPasswordEntropy adds
// a guessability floor — 50 bits rejects "password1" and keyboard walks
// while accepting any four-word passphrase.
const (
	minPasswordLength  = 8
	minPasswordEntropy = 50
)

// PasswordService provides bcrypt hashing, verification, and the strength
// policy applied at registration and password change.
//
// It's a struct (not free functions) so that the cost can be injected in
// tests — cost 4 makes tests run much faster without changing the logic.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the default cost (12).
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest creates a PasswordService with a custom bcrypt
// cost. Use bcrypt.MinCost (4) in tests to avoid the ~250ms overhead of
// cost 12 per hashing operation. Do NOT use in production.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash hashes the given plaintext password with bcrypt.
//
// The output is self-contained (salt and cost are embedded), so it can be
// stored directly and later checked with Verify. Returns an error if the
// plaintext exceeds 72 bytes — bcrypt silently truncates beyond that, so
// we reject explicitly rather than surprise the caller.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks whether a plaintext password matches a stored bcrypt hash.
// Returns nil on match. bcrypt compares in constant time, so this is safe
// against timing attacks.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}

// CheckStrength validates a candidate password against the strength policy.
// The returned error message is safe to show to the end user.
func (p *PasswordService) CheckStrength(plaintext string) error {
	if len(plaintext) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}

	allDigits := true
	for _, r := range plaintext {
		if !unicode.IsDigit(r) {
			allDigits = false
			break
		}
	}
	if allDigits {
		return errors.New("password cannot be entirely numeric")
	}

	if err := passwordvalidator.Validate(plaintext, minPasswordEntropy); err != nil {
		// The validator's message already suggests a fix ("try adding more
		// special characters", etc.) — pass it through as-is.
		return err
	}

	return nil
}
