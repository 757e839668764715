package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor for newly hashed passwords.
// 12 rounds takes roughly a quarter second on current server hardware,
// comfortably above the cost-10 floor the credential store requires.
const defaultCost = 12

// minCost is the lowest work factor NewPasswordServiceWithCost accepts for
// production use. Tests bypass it via NewPasswordServiceForTest.
const minCost = 10

// PasswordService provides bcrypt hashing and verification. The cost is a
// struct field rather than a package constant so tests can drop it to the
// bcrypt minimum and avoid ~250ms per hash.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the default cost.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceWithCost creates a PasswordService with an explicit
// cost, clamped to the production floor.
func NewPasswordServiceWithCost(cost int) *PasswordService {
	if cost < minCost {
		cost = minCost
	}
	return &PasswordService{cost: cost}
}

// NewPasswordServiceForTest creates a PasswordService with an arbitrary
// cost. Use bcrypt.MinCost (4) in tests; never in production.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash hashes a plaintext password. The returned string embeds the salt and
// cost, so it stores as a single column and Verify needs no extra inputs.
//
// bcrypt silently truncates inputs past 72 bytes; reject those explicitly so
// callers aren't surprised.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", errors.New("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify checks a plaintext password against a stored hash. The comparison
// is constant-time inside bcrypt. Returns a non-nil error on mismatch.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return errors.New("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
