package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"connecthub/internal/metrics"
	"connecthub/internal/model"
	"connecthub/internal/repository"
)

type FollowService struct {
	store      *repository.Store
	followRepo repository.FollowRepository
	notifier   *NotificationService
	metrics    *metrics.Collector
}

func NewFollowService(
	store *repository.Store,
	followRepo repository.FollowRepository,
	notifier *NotificationService,
	collector *metrics.Collector,
) *FollowService {
	return &FollowService{
		store:      store,
		followRepo: followRepo,
		notifier:   notifier,
		metrics:    collector,
	}
}

// Toggle follows or unfollows targetID. Both users change in the same transaction.
// It reports whether followerID now follows targetID.
func (s *FollowService) Toggle(ctx context.Context, followerID, targetID string) (bool, error) {
	if followerID == targetID {
		return false, model.ErrCannotFollowSelf
	}

	var (
		following bool
		notif     *model.Notification
	)
	err := s.store.Update(ctx, func(tx *repository.Tx) error {
		var err error
		following, err = s.followRepo.Toggle(tx, followerID, targetID)
		if err != nil {
			return err
		}
		if following {
			notif, err = s.notifier.notify(tx, targetID, followerID, model.NotificationFollow, nil)
		}
		return err
	})
	if err != nil {
		return false, fmt.Errorf("toggle follow: %w", err)
	}

	s.metrics.RecordMutation("toggle_follow")
	s.notifier.emitted(notif)
	log.Info().
		Str("component", "FollowService").
		Str("follower_id", followerID).
		Str("target_id", targetID).
		Bool("following", following).
		Msg("Follow toggled")
	return following, nil
}

// IsFollowing reports whether followerID follows targetID.
func (s *FollowService) IsFollowing(ctx context.Context, followerID, targetID string) (bool, error) {
	var ok bool
	err := s.store.View(ctx, func(tx *repository.Tx) error {
		ok = s.followRepo.Exists(tx, followerID, targetID)
		return nil
	})
	return ok, err
}
