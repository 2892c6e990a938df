package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/reelspro/reelspro/internal/domain"
	"github.com/reelspro/reelspro/internal/infra/logging"
	"github.com/reelspro/reelspro/internal/infra/sqlitedb"
)

// SQLiteAccountRepository implements Repository on the embedded SQLite backend.
type SQLiteAccountRepository struct {
	db  *sqlitedb.DB
	log logging.Logger
}

var _ Repository = (*SQLiteAccountRepository)(nil)

// SQLiteAccountRepositoryFactory creates a factory function that returns a new SQLiteAccountRepository.
func SQLiteAccountRepositoryFactory(db *sqlitedb.DB) RepositoryFactory {
	return func(context.Context) (Repository, error) {
		return NewSQLiteAccountRepository(db), nil
	}
}

// NewSQLiteAccountRepository creates a repository on an already migrated database.
func NewSQLiteAccountRepository(db *sqlitedb.DB) *SQLiteAccountRepository {
	return &SQLiteAccountRepository{
		db:  db,
		log: logging.GetLogger("repo.account.sqlite_account_repository"),
	}
}

// CreateAccount implements Repository.CreateAccount using SQLite.
// The UNIQUE constraint on email_key makes the uniqueness check and the insert one step.
func (r *SQLiteAccountRepository) CreateAccount(ctx context.Context, account domain.Account) (domain.Account, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return domain.Account{}, fmt.Errorf("new id: %w", err)
	}

	account.ID = id.String()

	r.db.WriteLock.Lock()
	defer r.db.WriteLock.Unlock()

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, email_key, password, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		account.ID,
		account.Email,
		domain.EmailKey(account.Email),
		account.PasswordHash,
		account.CreatedAt.UnixMilli(),
		account.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		var liteErr *sqlite.Error
		if errors.As(err, &liteErr) {
			switch liteErr.Code() {
			case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
				r.log.DebugContext(ctx, "duplicate email rejected by constraint")

				err = errors.Join(domain.ErrDuplicateEmail, err)
			default:
			}
		}

		return domain.Account{}, fmt.Errorf("insert account: %w", err)
	}

	return account, nil
}

// GetAccountByEmail implements Repository.GetAccountByEmail using SQLite.
func (r *SQLiteAccountRepository) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	return r.queryAccount(ctx, "email_key = ?", domain.EmailKey(email))
}

// GetAccountByID implements Repository.GetAccountByID using SQLite.
func (r *SQLiteAccountRepository) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	return r.queryAccount(ctx, "id = ?", id)
}

func (r *SQLiteAccountRepository) queryAccount(ctx context.Context, where string, arg any) (domain.Account, error) {
	var (
		account              domain.Account
		createdAt, updatedAt int64
	)

	//nolint:gosec
	err := r.db.QueryRowContext(ctx,
		"SELECT id, email, password, created_at, updated_at FROM users WHERE "+where,
		arg,
	).Scan(&account.ID, &account.Email, &account.PasswordHash, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = errors.Join(domain.ErrAccountNotFound, err)
		}

		return domain.Account{}, fmt.Errorf("query account: %w", err)
	}

	account.CreatedAt = time.UnixMilli(createdAt).UTC()
	account.UpdatedAt = time.UnixMilli(updatedAt).UTC()

	return account, nil
}

// UpdatePasswordHash implements Repository.UpdatePasswordHash using SQLite.
func (r *SQLiteAccountRepository) UpdatePasswordHash(
	ctx context.Context,
	id string,
	passwordHash string,
	updatedAt time.Time,
) error {
	r.db.WriteLock.Lock()
	defer r.db.WriteLock.Unlock()

	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET password = ?, updated_at = ? WHERE id = ?",
		passwordHash, updatedAt.UnixMilli(), id,
	)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if n == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// Close implements Repository.Close. The database handle is owned by the caller.
func (r *SQLiteAccountRepository) Close() error {
	return nil
}
