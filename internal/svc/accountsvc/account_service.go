package accountsvc

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/reelspro/reelspro/internal/domain"
	"github.com/reelspro/reelspro/internal/infra/logging"
	"github.com/reelspro/reelspro/internal/repo/account"
	"github.com/reelspro/reelspro/internal/util/password"
)

// MinStoredPasswordLength is the minimum password length accepted by the store.
// It is enforced independently of the shorter minimum checked at the HTTP boundary.
const MinStoredPasswordLength = 8

// AccountService owns the account invariants: required fields, the stored
// password minimum, and hashing before any write.
type AccountService struct {
	Repo account.Repository
	Log  logging.Logger
}

var _ Registrar = (*AccountService)(nil)

// NewAccountService creates a new AccountService using the given repository factory.
// Returns an error if the repository cannot be created.
func NewAccountService(ctx context.Context, repoFactory account.RepositoryFactory) (*AccountService, error) {
	repo, err := repoFactory(ctx)
	if err != nil {
		return nil, fmt.Errorf("new account repo: %w", err)
	}

	return &AccountService{
		Repo: repo,
		Log:  logging.GetLogger("svc.accountsvc.account_service"),
	}, nil
}

func validateStoredPassword(plaintext string) error {
	if plaintext == "" {
		return domain.NewValidationError("password is required")
	}

	if utf8.RuneCountInString(plaintext) < MinStoredPasswordLength {
		return domain.NewValidationError(
			fmt.Sprintf("password must be at least %d characters long", MinStoredPasswordLength))
	}

	return nil
}

// hashPassword is the explicit transform applied before a password reaches the repository.
func hashPassword(plaintext string) (string, error) {
	hash, err := password.Hash(plaintext)
	if err != nil {
		if errors.Is(err, password.ErrTooLong) {
			return "", errors.Join(domain.NewValidationError("password must be at most 72 bytes long"), err)
		}

		return "", fmt.Errorf("hash password: %w", err)
	}

	return hash, nil
}

// CreateAccount validates the input, hashes the password and stores a new account.
// Returns domain.ErrValidation, domain.ErrDuplicateEmail or domain.ErrStoreUnavailable.
func (s *AccountService) CreateAccount(ctx context.Context, email, plaintextPassword string) (_ domain.Account, err error) {
	log := s.Log.With(logging.Group("account", "email", email))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "create account failed", logging.Err(err))
		} else {
			log.DebugContext(ctx, "account created")
		}
	}()

	if email == "" {
		return domain.Account{}, domain.NewValidationError("email is required")
	}

	if err := validateStoredPassword(plaintextPassword); err != nil {
		return domain.Account{}, err
	}

	hash, err := hashPassword(plaintextPassword)
	if err != nil {
		return domain.Account{}, err
	}

	now := domain.Now()

	created, err := s.Repo.CreateAccount(ctx, domain.Account{
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return domain.Account{}, fmt.Errorf("create account: %w", err)
	}

	log = log.With(logging.Group("account", "id", created.ID))

	return created, nil
}

// UpdatePassword replaces the password of an existing account. newPassword is
// always treated as plaintext: it is validated and hashed before the write.
func (s *AccountService) UpdatePassword(ctx context.Context, id, newPassword string) (err error) {
	log := s.Log.With(logging.Group("account", "id", id))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "update password failed", logging.Err(err))
		} else {
			log.DebugContext(ctx, "password updated")
		}
	}()

	if err := validateStoredPassword(newPassword); err != nil {
		return err
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.Repo.UpdatePasswordHash(ctx, id, hash, domain.Now()); err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}

	return nil
}

// SetPasswordHash stores an existing verifier hash without hashing it again.
// Returns domain.ErrValidation if hash is not a verifier.
func (s *AccountService) SetPasswordHash(ctx context.Context, id, hash string) (err error) {
	log := s.Log.With(logging.Group("account", "id", id))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "set password hash failed", logging.Err(err))
		} else {
			log.DebugContext(ctx, "password hash set")
		}
	}()

	if !password.IsHash(hash) {
		return domain.NewValidationError("password hash is not a valid verifier")
	}

	if err := s.Repo.UpdatePasswordHash(ctx, id, hash, domain.Now()); err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}

	return nil
}

// FindByEmail looks up an account by email, ignoring case.
// Returns domain.ErrAccountNotFound if there is none.
func (s *AccountService) FindByEmail(ctx context.Context, email string) (domain.Account, error) {
	acc, err := s.Repo.GetAccountByEmail(ctx, email)
	if err != nil {
		return domain.Account{}, fmt.Errorf("get account: %w", err)
	}

	return acc, nil
}

// Authenticate checks plaintext against the stored verifier of the account with the given email.
// Returns domain.ErrInvalidCredentials if the account is unknown or the password does not match.
func (s *AccountService) Authenticate(ctx context.Context, email, plaintext string) (_ domain.Account, err error) {
	log := s.Log

	defer func() {
		if err != nil {
			log.WarnContext(ctx, "authentication failed", logging.Err(err))
		} else {
			log.DebugContext(ctx, "authentication successful")
		}
	}()

	acc, err := s.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return domain.Account{}, errors.Join(domain.ErrInvalidCredentials, err)
		}

		return domain.Account{}, err
	}

	log = log.With(logging.Group("account", "id", acc.ID))

	if !password.Verify(acc.PasswordHash, plaintext) {
		return domain.Account{}, domain.ErrInvalidCredentials
	}

	return acc, nil
}

// Close releases resources held by the service.
func (s *AccountService) Close() error {
	if err := s.Repo.Close(); err != nil {
		return fmt.Errorf("close account repo: %w", err)
	}

	return nil
}
