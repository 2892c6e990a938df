package notificationsvc

import (
	"context"
	"fmt"

	"github.com/reelspro/reelspro/internal/domain"
	"github.com/reelspro/reelspro/internal/infra/logging"
	"github.com/reelspro/reelspro/internal/infra/metrics"
	"github.com/reelspro/reelspro/internal/repo/notification"
)

// NotificationService records and lists notifications between accounts.
type NotificationService struct {
	Repo    notification.Repository
	Log     logging.Logger
	Metrics *metrics.Metrics
}

var _ Notifier = (*NotificationService)(nil)

// NewNotificationService creates a new NotificationService using the given repository factory.
func NewNotificationService(
	ctx context.Context,
	repoFactory notification.RepositoryFactory,
	m *metrics.Metrics,
) (*NotificationService, error) {
	repo, err := repoFactory(ctx)
	if err != nil {
		return nil, fmt.Errorf("new notification repo: %w", err)
	}

	return &NotificationService{
		Repo:    repo,
		Log:     logging.GetLogger("svc.notificationsvc.notification_service"),
		Metrics: m,
	}, nil
}

// Create stores an unread notification from one account to another.
// Returns domain.ErrValidation when an id is missing or the type is unknown.
func (s *NotificationService) Create(
	ctx context.Context,
	from, to string,
	kind domain.NotificationType,
) (_ domain.Notification, err error) {
	log := s.Log.With(logging.Group("notification", "from", from, "to", to, "type", kind))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "create notification failed", logging.Err(err))
		} else {
			log.DebugContext(ctx, "notification created")
		}
	}()

	switch {
	case from == "":
		return domain.Notification{}, domain.NewValidationError("from is required")
	case to == "":
		return domain.Notification{}, domain.NewValidationError("to is required")
	case !kind.Valid():
		return domain.Notification{}, domain.NewValidationError("type must be one of like, comment, follow")
	}

	now := domain.Now()

	n, err := s.Repo.CreateNotification(ctx, domain.Notification{
		From:      from,
		To:        to,
		Type:      kind,
		Read:      false,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return domain.Notification{}, fmt.Errorf("create notification: %w", err)
	}

	if s.Metrics != nil {
		s.Metrics.IncrementNotificationCreated()
	}

	return n, nil
}

// ListForRecipient returns the notifications addressed to an account, newest first.
func (s *NotificationService) ListForRecipient(
	ctx context.Context,
	to string,
	unreadOnly bool,
	limit int,
) ([]domain.Notification, error) {
	if to == "" {
		return nil, domain.NewValidationError("to is required")
	}

	list, err := s.Repo.ListForRecipient(ctx, to, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	return list, nil
}

// MarkRead flags a notification as read.
// Returns domain.ErrNotificationNotFound if there is no such notification.
func (s *NotificationService) MarkRead(ctx context.Context, id string) (err error) {
	log := s.Log.With(logging.Group("notification", "id", id))

	defer func() {
		if err != nil {
			log.WarnContext(ctx, "mark read failed", logging.Err(err))
		} else {
			log.DebugContext(ctx, "notification marked read")
		}
	}()

	if err := s.Repo.MarkRead(ctx, id, domain.Now()); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}

	return nil
}

// Close releases resources held by the service.
func (s *NotificationService) Close() error {
	if err := s.Repo.Close(); err != nil {
		return fmt.Errorf("close notification repo: %w", err)
	}

	return nil
}
