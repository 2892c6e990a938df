package account_test

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelspro/reelspro/internal/domain"
	"github.com/reelspro/reelspro/internal/infra/sqlitedb"
	"github.com/reelspro/reelspro/internal/repo/account"
)

func newSQLiteRepo(t *testing.T) *account.SQLiteAccountRepository {
	t.Helper()

	db, err := sqlitedb.Open(t.Context(), filepath.Join(t.TempDir(), "accounts.db"))
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	return account.NewSQLiteAccountRepository(db)
}

func newAccount(email string) domain.Account {
	now := domain.Now()

	return domain.Account{
		Email:        email,
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuuMQ1BU6eBLmTCm1qXvi6y5fBt1R7/Uyi",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestSQLiteAccountRepository_CreateAndGet(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	repo := newSQLiteRepo(t)

	created, err := repo.CreateAccount(ctx, newAccount("Jane.Doe@Example.com"))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Jane.Doe@Example.com", created.Email)

	byEmail, err := repo.GetAccountByEmail(ctx, "jane.doe@example.com")
	require.NoError(t, err)
	assert.Equal(t, created, byEmail)

	byID, err := repo.GetAccountByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, byID)
}

func TestSQLiteAccountRepository_NotFound(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	repo := newSQLiteRepo(t)

	_, err := repo.GetAccountByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)

	_, err = repo.GetAccountByID(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)

	err = repo.UpdatePasswordHash(ctx, "missing", "hash", domain.Now())
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestSQLiteAccountRepository_DuplicateIgnoresCase(t *testing.T) {
	t.Parallel()

	tests := []struct {
		first, second string
	}{
		{first: "user@example.com", second: "user@example.com"},
		{first: "user@example.com", second: "USER@Example.COM"},
		{first: "USER@EXAMPLE.COM", second: "user@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.first+"/"+tt.second, func(t *testing.T) {
			t.Parallel()

			ctx := t.Context()
			repo := newSQLiteRepo(t)

			_, err := repo.CreateAccount(ctx, newAccount(tt.first))
			require.NoError(t, err)

			_, err = repo.CreateAccount(ctx, newAccount(tt.second))
			require.ErrorIs(t, err, domain.ErrDuplicateEmail)
		})
	}
}

func TestSQLiteAccountRepository_ConcurrentCreateSameEmail(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	repo := newSQLiteRepo(t)

	const n = 10

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		created    int
		duplicates int
		others     []error
	)

	for i := range n {
		wg.Add(1)

		go func() {
			defer wg.Done()

			email := "race@example.com"
			if i%2 == 1 {
				email = "RACE@example.com"
			}

			_, err := repo.CreateAccount(ctx, newAccount(email))

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				created++
			case errors.Is(err, domain.ErrDuplicateEmail):
				duplicates++
			default:
				others = append(others, err)
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, n-1, duplicates)
	assert.Empty(t, others)
}

func TestSQLiteAccountRepository_UpdatePasswordHash(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	repo := newSQLiteRepo(t)

	created, err := repo.CreateAccount(ctx, newAccount("update@example.com"))
	require.NoError(t, err)

	later := created.UpdatedAt.Add(time.Minute)
	require.NoError(t, repo.UpdatePasswordHash(ctx, created.ID, "new-hash", later))

	got, err := repo.GetAccountByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)
	assert.Equal(t, later, got.UpdatedAt)
	assert.Equal(t, created.CreatedAt, got.CreatedAt)
}

func TestSQLiteAccountRepository_DistinctEmails(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	repo := newSQLiteRepo(t)

	ids := make(map[string]struct{})

	for i := range 5 {
		created, err := repo.CreateAccount(ctx, newAccount(fmt.Sprintf("user%d@example.com", i)))
		require.NoError(t, err)

		ids[created.ID] = struct{}{}
	}

	assert.Len(t, ids, 5)
}
