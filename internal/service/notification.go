package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"

	"connecthub/internal/metrics"
	"connecthub/internal/model"
	"connecthub/internal/repository"
)

// NotificationService reads a user's notifications and emits new ones on behalf of
// the like, comment and follow operations.
type NotificationService struct {
	store     *repository.Store
	notifRepo repository.NotificationRepository
	userRepo  repository.UserRepository
	metrics   *metrics.Collector
}

func NewNotificationService(
	store *repository.Store,
	notifRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	collector *metrics.Collector,
) *NotificationService {
	return &NotificationService{
		store:     store,
		notifRepo: notifRepo,
		userRepo:  userRepo,
		metrics:   collector,
	}
}

// notify records a notification inside the caller's transaction.
// It returns nil without writing when actor and recipient are the same user.
func (s *NotificationService) notify(tx *repository.Tx, recipientID, actorID string, kind model.NotificationKind, postID *string) (*model.Notification, error) {
	if recipientID == actorID {
		return nil, nil
	}

	n, err := s.notifRepo.Create(tx, model.Notification{
		ID:          tx.NewID("n"),
		RecipientID: recipientID,
		ActorID:     actorID,
		Kind:        kind,
		PostID:      postID,
		CreatedAt:   tx.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	return n, nil
}

// emitted logs and counts a notification after its transaction committed.
func (s *NotificationService) emitted(n *model.Notification) {
	if n == nil {
		return
	}
	s.metrics.RecordNotification(string(n.Kind))
	log.Debug().
		Str("component", "NotificationService").
		Str("kind", string(n.Kind)).
		Str("recipient_id", n.RecipientID).
		Str("actor_id", n.ActorID).
		Msg("Notification created")
}

// List returns the user's notifications newest first together with the unread count.
// Notifications whose actor no longer resolves are left out of the list.
func (s *NotificationService) List(ctx context.Context, userID string) (*model.NotificationListResponse, error) {
	resp := &model.NotificationListResponse{Notifications: []model.NotificationView{}}

	err := s.store.View(ctx, func(tx *repository.Tx) error {
		notifs := s.notifRepo.ListByRecipient(tx, userID)
		slices.SortStableFunc(notifs, func(a, b model.Notification) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})

		for _, n := range notifs {
			actor, err := s.userRepo.GetByID(tx, n.ActorID)
			if err != nil {
				continue
			}
			resp.Notifications = append(resp.Notifications, model.NotificationView{
				Notification: n,
				Actor:        actor.Summary(),
				Message:      n.Kind.Message(actor.Username),
			})
		}
		resp.UnreadCount = s.notifRepo.UnreadCount(tx, userID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// UnreadCount returns the number of unread notifications (for badge display).
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.store.View(ctx, func(tx *repository.Tx) error {
		count = s.notifRepo.UnreadCount(tx, userID)
		return nil
	})
	return count, err
}

// MarkAllAsRead marks every notification of the user as read and touches nothing else.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID string) error {
	var changed int
	err := s.store.Update(ctx, func(tx *repository.Tx) error {
		var err error
		changed, err = s.notifRepo.MarkAllAsRead(tx, userID)
		return err
	})
	if err != nil {
		return fmt.Errorf("mark notifications read: %w", err)
	}

	s.metrics.RecordMutation("mark_all_read")
	log.Debug().Str("component", "NotificationService").Str("user_id", userID).Int("changed", changed).Msg("Marked notifications as read")
	return nil
}
