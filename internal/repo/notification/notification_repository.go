package notification

import (
	"context"
	"time"

	"github.com/reelspro/reelspro/internal/domain"
)

// Repository defines the interface for notification persistence.
type Repository interface {
	// CreateNotification stores a new notification and returns it with its assigned ID.
	CreateNotification(ctx context.Context, n domain.Notification) (domain.Notification, error)

	// ListForRecipient returns notifications addressed to the given account, newest first.
	// A limit of zero or less returns all matches.
	ListForRecipient(ctx context.Context, to string, unreadOnly bool, limit int) ([]domain.Notification, error)

	// MarkRead flags a notification as read.
	// Returns domain.ErrNotificationNotFound if there is no such notification.
	MarkRead(ctx context.Context, id string, updatedAt time.Time) error

	// Close releases any resources held by the repository.
	Close() error
}

// RepositoryFactory is a function that creates a new Repository instance.
type RepositoryFactory func(ctx context.Context) (Repository, error)
