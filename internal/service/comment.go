package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"connecthub/internal/metrics"
	"connecthub/internal/model"
	"connecthub/internal/repository"
)

type CommentService struct {
	store       *repository.Store
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	userRepo    repository.UserRepository
	notifier    *NotificationService
	metrics     *metrics.Collector
}

func NewCommentService(
	store *repository.Store,
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	notifier *NotificationService,
	collector *metrics.Collector,
) *CommentService {
	return &CommentService{
		store:       store,
		commentRepo: commentRepo,
		postRepo:    postRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		metrics:     collector,
	}
}

// Create appends a comment and notifies the post author unless they wrote it.
func (s *CommentService) Create(ctx context.Context, authorID, postID, text string) (*model.CommentView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, model.ErrContentRequired
	}
	if utf8.RuneCountInString(text) > model.MaxCommentLength {
		return nil, model.ErrContentTooLong
	}

	var (
		view  *model.CommentView
		notif *model.Notification
	)
	err := s.store.Update(ctx, func(tx *repository.Tx) error {
		author, err := s.userRepo.GetByID(tx, authorID)
		if err != nil {
			return err
		}
		post, err := s.postRepo.GetByID(tx, postID)
		if err != nil {
			return err
		}

		comment, err := s.commentRepo.Create(tx, model.Comment{
			ID:        tx.NewID("c"),
			AuthorID:  authorID,
			PostID:    postID,
			Text:      text,
			CreatedAt: tx.Now(),
		})
		if err != nil {
			return fmt.Errorf("create comment: %w", err)
		}

		notif, err = s.notifier.notify(tx, post.AuthorID, authorID, model.NotificationComment, &post.ID)
		if err != nil {
			return err
		}
		view = &model.CommentView{Comment: *comment, Author: author.Summary()}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordMutation("create_comment")
	s.notifier.emitted(notif)
	log.Debug().Str("component", "CommentService").Str("comment_id", view.ID).Str("post_id", postID).Msg("Comment created")
	return view, nil
}
