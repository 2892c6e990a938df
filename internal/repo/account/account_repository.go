package account

import (
	"context"
	"time"

	"github.com/reelspro/reelspro/internal/domain"
)

// Repository defines the interface for account persistence.
// Implementations enforce email uniqueness atomically, comparing emails
// case-insensitively.
type Repository interface {
	// CreateAccount stores a new account and returns it with its assigned ID.
	// PasswordHash must already be a verifier hash.
	// Returns domain.ErrDuplicateEmail if the email is already registered.
	CreateAccount(ctx context.Context, account domain.Account) (domain.Account, error)

	// GetAccountByEmail retrieves an account by email, ignoring case.
	// Returns domain.ErrAccountNotFound if there is none.
	GetAccountByEmail(ctx context.Context, email string) (domain.Account, error)

	// GetAccountByID retrieves an account by its ID.
	// Returns domain.ErrAccountNotFound if there is none.
	GetAccountByID(ctx context.Context, id string) (domain.Account, error)

	// UpdatePasswordHash replaces the stored verifier and bumps UpdatedAt.
	// Returns domain.ErrAccountNotFound if there is no such account.
	UpdatePasswordHash(ctx context.Context, id string, passwordHash string, updatedAt time.Time) error

	// Close releases any resources held by the repository.
	Close() error
}

// RepositoryFactory is a function that creates a new Repository instance.
// Returns an error if initialization fails.
type RepositoryFactory func(ctx context.Context) (Repository, error)
