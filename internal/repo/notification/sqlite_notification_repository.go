package notification

import (
	"context"
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

// MsgUnknownAccount is reported when a sender or recipient id names no account.
const MsgUnknownAccount = "from and to must be existing account ids"

// SQLiteNotificationRepository implements Repository on the embedded SQLite backend.
type SQLiteNotificationRepository struct {
	db  *sqlitedb.DB
	log logging.Logger
}

var _ Repository = (*SQLiteNotificationRepository)(nil)

// SQLiteNotificationRepositoryFactory creates a factory function that returns a new SQLiteNotificationRepository.
func SQLiteNotificationRepositoryFactory(db *sqlitedb.DB) RepositoryFactory {
	return func(context.Context) (Repository, error) {
		return NewSQLiteNotificationRepository(db), nil
	}
}

// NewSQLiteNotificationRepository creates a repository on an already migrated database.
func NewSQLiteNotificationRepository(db *sqlitedb.DB) *SQLiteNotificationRepository {
	return &SQLiteNotificationRepository{
		db:  db,
		log: logging.GetLogger("repo.notification.sqlite_notification_repository"),
	}
}

// CreateNotification implements Repository.CreateNotification using SQLite.
func (r *SQLiteNotificationRepository) CreateNotification(
	ctx context.Context,
	n domain.Notification,
) (domain.Notification, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return domain.Notification{}, fmt.Errorf("new id: %w", err)
	}

	n.ID = id.String()

	r.db.WriteLock.Lock()
	defer r.db.WriteLock.Unlock()

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO notifications (id, from_id, to_id, type, read, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.From, n.To, string(n.Type), n.Read, n.CreatedAt.UnixMilli(), n.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		var liteErr *sqlite.Error
		if errors.As(err, &liteErr) && liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY {
			err = errors.Join(domain.NewValidationError(MsgUnknownAccount), err)
		}

		return domain.Notification{}, fmt.Errorf("insert notification: %w", err)
	}

	r.log.DebugContext(ctx, "notification stored", "id", n.ID)

	return n, nil
}

// ListForRecipient implements Repository.ListForRecipient using SQLite.
func (r *SQLiteNotificationRepository) ListForRecipient(
	ctx context.Context,
	to string,
	unreadOnly bool,
	limit int,
) ([]domain.Notification, error) {
	query := "SELECT id, from_id, to_id, type, read, created_at, updated_at FROM notifications WHERE to_id = ?"
	args := []any{to}

	if unreadOnly {
		query += " AND read = 0"
	}

	query += " ORDER BY created_at DESC, id DESC"

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	notifications := []domain.Notification{}

	for rows.Next() {
		var (
			n                    domain.Notification
			kind                 string
			createdAt, updatedAt int64
		)

		if err := rows.Scan(&n.ID, &n.From, &n.To, &kind, &n.Read, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}

		n.Type = domain.NotificationType(kind)
		n.CreatedAt = time.UnixMilli(createdAt).UTC()
		n.UpdatedAt = time.UnixMilli(updatedAt).UTC()

		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}

	return notifications, nil
}

// MarkRead implements Repository.MarkRead using SQLite.
func (r *SQLiteNotificationRepository) MarkRead(ctx context.Context, id string, updatedAt time.Time) error {
	r.db.WriteLock.Lock()
	defer r.db.WriteLock.Unlock()

	res, err := r.db.ExecContext(ctx,
		"UPDATE notifications SET read = 1, updated_at = ? WHERE id = ?",
		updatedAt.UnixMilli(), id,
	)
	if err != nil {
		return fmt.Errorf("update notification: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if n == 0 {
		return domain.ErrNotificationNotFound
	}

	return nil
}

// Close implements Repository.Close. The database handle is owned by the caller.
func (r *SQLiteNotificationRepository) Close() error {
	return nil
}
