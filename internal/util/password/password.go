package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Cost is the bcrypt work factor used for new verifiers.
const Cost = 10

// ErrTooLong is returned when the plaintext exceeds what bcrypt can hash.
var ErrTooLong = errors.New("password is too long")

// Hash transforms a plaintext password into a salted one-way verifier.
// Every call uses a fresh random salt.
func Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), Cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrTooLong
		}

		return "", fmt.Errorf("generate hash: %w", err)
	}

	return string(hashed), nil
}

// Verify reports whether plaintext matches the verifier hash.
// A malformed hash never matches.
func Verify(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// IsHash reports whether value is already a bcrypt verifier.
func IsHash(value string) bool {
	_, err := bcrypt.Cost([]byte(value))

	return err == nil
}
