package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrDuplicateEmail is returned when an account with the same email already exists.
	ErrDuplicateEmail = errors.New("email is already registered")
	// ErrAccountNotFound is returned when looking up a non-existent account.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidCredentials is returned when the email/password combination is incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrStoreUnavailable is returned when the backing store cannot be reached.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Account represents a registered user. PasswordHash only ever holds a verifier hash.
type Account struct {
	ID           string    // Store-assigned identifier
	Email        string    // Email as entered at registration
	PasswordHash string    // One-way verifier hash
	CreatedAt    time.Time // Creation time
	UpdatedAt    time.Time // Last mutation time
}

// AccountResponse is the public representation of an account.
type AccountResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Response returns the public view of the account, without any password material.
func (a Account) Response() AccountResponse {
	return AccountResponse{
		ID:        a.ID,
		Email:     a.Email,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// EmailKey returns the value used to compare emails for uniqueness.
// Emails are compared case-insensitively but stored as entered.
func EmailKey(email string) string {
	return strings.ToLower(email)
}

// Now returns the current time truncated to the precision kept by the stores.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
