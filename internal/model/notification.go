package model

import (
	"time"
)

// NotificationKind is the event that produced a notification.
type NotificationKind string

// Notification kinds
const (
	NotificationLike    NotificationKind = "like"
	NotificationComment NotificationKind = "comment"
	NotificationFollow  NotificationKind = "follow"
)

// Valid reports whether k is a known kind.
func (k NotificationKind) Valid() bool {
	switch k {
	case NotificationLike, NotificationComment, NotificationFollow:
		return true
	}
	return false
}

// Notification represents a single notification record.
type Notification struct {
	ID          string           `json:"id" yaml:"id"`
	RecipientID string           `json:"recipient_id" yaml:"recipient_id"`
	ActorID     string           `json:"actor_id" yaml:"actor_id"`
	Kind        NotificationKind `json:"kind" yaml:"kind"`
	PostID      *string          `json:"post_id,omitempty" yaml:"post_id"`
	Read        bool             `json:"read" yaml:"read"`
	CreatedAt   time.Time        `json:"created_at" yaml:"-"`
}

// NotificationView is a notification with its actor for display.
type NotificationView struct {
	Notification
	Actor   UserSummary `json:"actor"`
	Message string      `json:"message"`
}

// NotificationListResponse is the response of GET /notifications.
type NotificationListResponse struct {
	Notifications []NotificationView `json:"notifications"`
	UnreadCount   int                `json:"unread_count"`
}

// Message renders the display line for a notification.
func (k NotificationKind) Message(actorUsername string) string {
	switch k {
	case NotificationLike:
		return actorUsername + " liked your post"
	case NotificationComment:
		return actorUsername + " commented on your post"
	case NotificationFollow:
		return actorUsername + " started following you"
	default:
		return ""
	}
}
