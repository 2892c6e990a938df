package accountsvc_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelspro/reelspro/internal/domain"
	"github.com/reelspro/reelspro/internal/infra/logging"
	"github.com/reelspro/reelspro/internal/infra/sqlitedb"
	"github.com/reelspro/reelspro/internal/repo/account"
	"github.com/reelspro/reelspro/internal/svc/accountsvc"
	"github.com/reelspro/reelspro/internal/util/password"
)

func setupTestService(t *testing.T) *accountsvc.AccountService {
	t.Helper()

	db, err := sqlitedb.Open(t.Context(), filepath.Join(t.TempDir(), "accounts.db"))
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	svc, err := accountsvc.NewAccountService(t.Context(), account.SQLiteAccountRepositoryFactory(db))
	require.NoError(t, err)

	return svc
}

// failingRepository implements account.Repository, failing every call with err.
type failingRepository struct {
	err error
}

func (r failingRepository) CreateAccount(context.Context, domain.Account) (domain.Account, error) {
	return domain.Account{}, r.err
}

func (r failingRepository) GetAccountByEmail(context.Context, string) (domain.Account, error) {
	return domain.Account{}, r.err
}

func (r failingRepository) GetAccountByID(context.Context, string) (domain.Account, error) {
	return domain.Account{}, r.err
}

func (r failingRepository) UpdatePasswordHash(context.Context, string, string, time.Time) error {
	return r.err
}

func (r failingRepository) Close() error {
	return nil
}

func TestAccountService_CreateAccount_StoresOnlyHash(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	svc := setupTestService(t)

	tests := []struct {
		email    string
		password string
	}{
		{email: "a@b.com", password: "secret12"},
		{email: "long@example.org", password: "correct horse battery staple"},
		{email: "unicode@example.org", password: "pässwörd"},
	}

	for _, tt := range tests {
		acc, err := svc.CreateAccount(ctx, tt.email, tt.password)
		require.NoError(t, err)

		assert.NotEmpty(t, acc.ID)
		assert.Equal(t, tt.email, acc.Email)
		assert.NotEqual(t, tt.password, acc.PasswordHash)
		assert.True(t, password.IsHash(acc.PasswordHash))
		assert.Equal(t, acc.CreatedAt, acc.UpdatedAt)

		stored, err := svc.FindByEmail(ctx, tt.email)
		require.NoError(t, err)
		assert.NotEqual(t, tt.password, stored.PasswordHash)
	}
}

func TestAccountService_CreateAccount_Validation(t *testing.T) {
	t.Parallel()

	svc := setupTestService(t)

	tests := []struct {
		name     string
		email    string
		password string
		wantMsg  string
	}{
		{name: "missing email", email: "", password: "secret12", wantMsg: "email is required"},
		{name: "missing password", email: "a@b.com", password: "", wantMsg: "password is required"},
		{name: "seven characters", email: "a@b.com", password: "secret1", wantMsg: "password must be at least 8 characters long"},
		{name: "seven multibyte characters", email: "a@b.com", password: "ääääääää"[:14], wantMsg: "password must be at least 8 characters long"},
		{name: "four astral characters", email: "a@b.com", password: "🔑🔑🔑🔑", wantMsg: "password must be at least 8 characters long"},
		{name: "over bcrypt limit", email: "a@b.com", password: string(make([]byte, 73)), wantMsg: "password must be at most 72 bytes long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := svc.CreateAccount(t.Context(), tt.email, tt.password)
			require.ErrorIs(t, err, domain.ErrValidation)

			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantMsg, verr.Message)
		})
	}
}

func TestAccountService_CreateAccount_Duplicate(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	svc := setupTestService(t)

	_, err := svc.CreateAccount(ctx, "dup@example.com", "secret12")
	require.NoError(t, err)

	for _, email := range []string{"dup@example.com", "DUP@example.com"} {
		_, err = svc.CreateAccount(ctx, email, "another-secret")
		require.ErrorIs(t, err, domain.ErrDuplicateEmail)
	}

	acc, err := svc.FindByEmail(ctx, "dup@example.com")
	require.NoError(t, err)
	assert.True(t, password.Verify(acc.PasswordHash, "secret12"), "first registration must be kept")
}

func TestAccountService_CreateAccount_Concurrent(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	svc := setupTestService(t)

	const n = 10

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		successes  int
		duplicates int
	)

	for range n {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := svc.CreateAccount(ctx, "same@example.com", "secret12")

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				successes++
			case errors.Is(err, domain.ErrDuplicateEmail):
				duplicates++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, duplicates)
}

func TestAccountService_Authenticate(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	svc := setupTestService(t)

	created, err := svc.CreateAccount(ctx, "Round.Trip@example.com", "secret12")
	require.NoError(t, err)

	acc, err := svc.Authenticate(ctx, "round.trip@example.com", "secret12")
	require.NoError(t, err)
	assert.Equal(t, created.ID, acc.ID)

	for _, other := range []string{"", "secret1", "secret123", "SECRET12", acc.PasswordHash} {
		_, err := svc.Authenticate(ctx, "round.trip@example.com", other)
		require.ErrorIs(t, err, domain.ErrInvalidCredentials, "password %q", other)
	}

	_, err = svc.Authenticate(ctx, "nobody@example.com", "secret12")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestAccountService_UpdatePassword(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	svc := setupTestService(t)

	created, err := svc.CreateAccount(ctx, "update@example.com", "secret12")
	require.NoError(t, err)

	t.Run("hashes a new plaintext", func(t *testing.T) {
		require.NoError(t, svc.UpdatePassword(ctx, created.ID, "new-secret"))

		_, err := svc.Authenticate(ctx, "update@example.com", "new-secret")
		require.NoError(t, err)
	})

	t.Run("hashes a plaintext shaped like a verifier", func(t *testing.T) {
		plaintext := "$2a$10$" + strings.Repeat("x", 53)
		require.True(t, password.IsHash(plaintext))

		require.NoError(t, svc.UpdatePassword(ctx, created.ID, plaintext))

		acc, err := svc.FindByEmail(ctx, "update@example.com")
		require.NoError(t, err)
		assert.NotEqual(t, plaintext, acc.PasswordHash)
		assert.True(t, password.Verify(acc.PasswordHash, plaintext))

		_, err = svc.Authenticate(ctx, "update@example.com", plaintext)
		require.NoError(t, err)
	})

	t.Run("rejects short plaintext", func(t *testing.T) {
		err := svc.UpdatePassword(ctx, created.ID, "short")
		require.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("unknown account", func(t *testing.T) {
		err := svc.UpdatePassword(ctx, "missing", "new-secret")
		require.ErrorIs(t, err, domain.ErrAccountNotFound)
	})
}

func TestAccountService_SetPasswordHash(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	svc := setupTestService(t)

	created, err := svc.CreateAccount(ctx, "sethash@example.com", "secret12")
	require.NoError(t, err)

	hash, err := password.Hash("third-secret")
	require.NoError(t, err)

	require.NoError(t, svc.SetPasswordHash(ctx, created.ID, hash))

	acc, err := svc.FindByEmail(ctx, "sethash@example.com")
	require.NoError(t, err)
	assert.Equal(t, hash, acc.PasswordHash)
	assert.False(t, acc.UpdatedAt.Before(created.UpdatedAt))

	_, err = svc.Authenticate(ctx, "sethash@example.com", "third-secret")
	require.NoError(t, err)

	err = svc.SetPasswordHash(ctx, created.ID, "plain-secret")
	require.ErrorIs(t, err, domain.ErrValidation)

	acc, err = svc.FindByEmail(ctx, "sethash@example.com")
	require.NoError(t, err)
	assert.Equal(t, hash, acc.PasswordHash)

	err = svc.SetPasswordHash(ctx, "missing", hash)
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestAccountService_StoreUnavailable(t *testing.T) {
	t.Parallel()

	storeErr := errors.Join(domain.ErrStoreUnavailable, errors.New("dial tcp: connection refused"))
	svc := &accountsvc.AccountService{
		Repo: failingRepository{err: storeErr},
		Log:  logging.NewNopLogger(),
	}

	_, err := svc.CreateAccount(t.Context(), "a@b.com", "secret12")
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)

	_, err = svc.Authenticate(t.Context(), "a@b.com", "secret12")
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
	require.NotErrorIs(t, err, domain.ErrInvalidCredentials)
}
