package notificationsvc

import (
	"context"

	"github.com/reelspro/reelspro/internal/domain"
)

//go:generate mockgen -source=notifier.go -destination=mocks/mocks.go -package=mocks Notifier

// Notifier is the notification behaviour the HTTP transport depends on.
type Notifier interface {
	Create(ctx context.Context, from, to string, kind domain.NotificationType) (domain.Notification, error)
	ListForRecipient(ctx context.Context, to string, unreadOnly bool, limit int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id string) error
}
