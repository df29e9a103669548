package repository

import (
	"connecthub/internal/model"
)

type notificationRepository struct{}

func NewNotificationRepository() NotificationRepository {
	return &notificationRepository{}
}

// Create places the notification at the head of the collection.
func (r *notificationRepository) Create(tx *Tx, notification model.Notification) (*model.Notification, error) {
	if _, err := tx.notifications(); err != nil {
		return nil, err
	}
	tx.state.notifications = append([]model.Notification{notification}, tx.state.notifications...)
	return &notification, nil
}

func (r *notificationRepository) ListByRecipient(tx *Tx, userID string) []model.Notification {
	out := []model.Notification{}
	for _, n := range tx.state.notifications {
		if n.RecipientID == userID {
			out = append(out, n)
		}
	}
	return out
}

func (r *notificationRepository) MarkAllAsRead(tx *Tx, userID string) (int, error) {
	changed := 0
	for _, n := range tx.state.notifications {
		if n.RecipientID == userID && !n.Read {
			changed++
		}
	}
	if changed == 0 {
		return 0, nil
	}

	notifications, err := tx.notifications()
	if err != nil {
		return 0, err
	}
	for i := range notifications {
		if notifications[i].RecipientID == userID {
			notifications[i].Read = true
		}
	}
	return changed, nil
}

func (r *notificationRepository) UnreadCount(tx *Tx, userID string) int {
	n := 0
	for _, notif := range tx.state.notifications {
		if notif.RecipientID == userID && !notif.Read {
			n++
		}
	}
	return n
}
