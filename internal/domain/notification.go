package domain

import (
	"errors"
	"time"
)

// ErrNotificationNotFound is returned when looking up a non-existent notification.
var ErrNotificationNotFound = errors.New("notification not found")

// NotificationType tags what happened between sender and recipient.
type NotificationType string

const (
	NotificationLike    NotificationType = "like"
	NotificationComment NotificationType = "comment"
	NotificationFollow  NotificationType = "follow"
)

// Valid reports whether t is one of the known notification types.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationLike, NotificationComment, NotificationFollow:
		return true
	default:
		return false
	}
}

// Notification links a sending and a receiving account.
type Notification struct {
	ID        string           `json:"id"`
	From      string           `json:"from"`
	To        string           `json:"to"`
	Type      NotificationType `json:"type"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}
