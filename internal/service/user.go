package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"connecthub/internal/model"
	"connecthub/internal/repository"
)

const searchLimit = 20

// UserService handles business logic for user operations
type UserService struct {
	store      *repository.Store
	repo       repository.UserRepository
	followRepo repository.FollowRepository
	postRepo   repository.PostRepository
	notifRepo  repository.NotificationRepository
}

func NewUserService(
	store *repository.Store,
	repo repository.UserRepository,
	followRepo repository.FollowRepository,
	postRepo repository.PostRepository,
	notifRepo repository.NotificationRepository,
) *UserService {
	return &UserService{
		store:      store,
		repo:       repo,
		followRepo: followRepo,
		postRepo:   postRepo,
		notifRepo:  notifRepo,
	}
}

// FindByEmail looks a user up by exact email.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user *model.User
	err := s.store.View(ctx, func(tx *repository.Tx) error {
		var err error
		user, err = s.repo.GetByEmail(tx, email)
		return err
	})
	return user, err
}

// AddUser inserts a registered user into the shared collection.
func (s *UserService) AddUser(ctx context.Context, user model.User) (*model.User, error) {
	var created *model.User
	err := s.store.Update(ctx, func(tx *repository.Tx) error {
		if user.ID == "" {
			user.ID = tx.NewID("u")
		}
		var err error
		created, err = s.repo.Create(tx, user)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("add user: %w", err)
	}

	log.Info().Str("component", "UserService").Str("user_id", created.ID).Str("username", created.Username).Msg("User added")
	return created, nil
}

// GetByID returns a user by id.
func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user *model.User
	err := s.store.View(ctx, func(tx *repository.Tx) error {
		var err error
		user, err = s.repo.GetByID(tx, id)
		return err
	})
	return user, err
}

// Profile returns a user with derived counts relative to viewerID.
func (s *UserService) Profile(ctx context.Context, userID, viewerID string) (*model.Profile, error) {
	var profile *model.Profile
	err := s.store.View(ctx, func(tx *repository.Tx) error {
		var err error
		profile, err = s.profile(tx, userID, viewerID)
		return err
	})
	return profile, err
}

// Me returns the viewer's own profile with the unread notification badge.
func (s *UserService) Me(ctx context.Context, userID string) (*model.MeResponse, error) {
	var me *model.MeResponse
	err := s.store.View(ctx, func(tx *repository.Tx) error {
		profile, err := s.profile(tx, userID, userID)
		if err != nil {
			return err
		}
		me = &model.MeResponse{Profile: *profile, UnreadCount: s.notifRepo.UnreadCount(tx, userID)}
		return nil
	})
	return me, err
}

func (s *UserService) profile(tx *repository.Tx, userID, viewerID string) (*model.Profile, error) {
	user, err := s.repo.GetByID(tx, userID)
	if err != nil {
		return nil, err
	}
	return &model.Profile{
		User:           *user,
		PostCount:      s.postRepo.CountByAuthor(tx, userID),
		FollowerCount:  s.followRepo.FollowerCount(tx, userID),
		FollowingCount: s.followRepo.FollowingCount(tx, userID),
		IsFollowing:    viewerID != "" && viewerID != userID && s.followRepo.Exists(tx, viewerID, userID),
		IsMe:           viewerID == userID,
	}, nil
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := s.store.View(ctx, func(tx *repository.Tx) error {
		users = s.repo.List(tx)
		return nil
	})
	return users, err
}

// Search matches usernames case-insensitively.
func (s *UserService) Search(ctx context.Context, query string) ([]model.UserSummary, error) {
	out := []model.UserSummary{}
	err := s.store.View(ctx, func(tx *repository.Tx) error {
		for _, u := range s.repo.Search(tx, query, searchLimit) {
			out = append(out, u.Summary())
		}
		return nil
	})
	return out, err
}

// FollowerCount is derived from the user's follower set on every call.
func (s *UserService) FollowerCount(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.store.View(ctx, func(tx *repository.Tx) error {
		n = s.followRepo.FollowerCount(tx, userID)
		return nil
	})
	return n, err
}

// FollowingCount is derived from the user's following set on every call.
func (s *UserService) FollowingCount(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.store.View(ctx, func(tx *repository.Tx) error {
		n = s.followRepo.FollowingCount(tx, userID)
		return nil
	})
	return n, err
}
