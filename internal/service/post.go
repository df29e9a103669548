package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"connecthub/internal/metrics"
	"connecthub/internal/model"
	"connecthub/internal/repository"
)

type PostService struct {
	store       *repository.Store
	postRepo    repository.PostRepository
	userRepo    repository.UserRepository
	commentRepo repository.CommentRepository
	notifier    *NotificationService
	metrics     *metrics.Collector
}

func NewPostService(
	store *repository.Store,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	commentRepo repository.CommentRepository,
	notifier *NotificationService,
	collector *metrics.Collector,
) *PostService {
	return &PostService{
		store:       store,
		postRepo:    postRepo,
		userRepo:    userRepo,
		commentRepo: commentRepo,
		notifier:    notifier,
		metrics:     collector,
	}
}

// Create adds a post at the head of the feed.
func (s *PostService) Create(ctx context.Context, authorID, text string, image, video *string) (*model.FeedPost, error) {
	post := model.Post{AuthorID: authorID, Text: text, Image: blankToNil(image), Video: blankToNil(video)}
	if !post.HasContent() {
		return nil, model.ErrEmptyPost
	}
	if utf8.RuneCountInString(text) > model.MaxPostTextLength {
		return nil, model.ErrPostTooLong
	}

	var out *model.FeedPost
	err := s.store.Update(ctx, func(tx *repository.Tx) error {
		if _, err := s.userRepo.GetByID(tx, authorID); err != nil {
			return err
		}
		post.ID = tx.NewID("p")
		post.CreatedAt = tx.Now()

		created, err := s.postRepo.Create(tx, post)
		if err != nil {
			return fmt.Errorf("create post: %w", err)
		}
		out, err = s.feedPost(tx, *created, authorID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordMutation("create_post")
	log.Info().Str("component", "PostService").Str("post_id", out.ID).Str("author_id", authorID).Msg("Post created")
	return out, nil
}

// Update replaces a post's text. An unknown post id is silently ignored.
func (s *PostService) Update(ctx context.Context, postID, text string) error {
	var updated bool
	err := s.store.Update(ctx, func(tx *repository.Tx) error {
		var err error
		updated, err = s.postRepo.UpdateText(tx, postID, text)
		return err
	})
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	if updated {
		s.metrics.RecordMutation("update_post")
	}
	return nil
}

// Edit updates the text of a post owned by editorID and returns the result.
func (s *PostService) Edit(ctx context.Context, postID, editorID, text string) (*model.FeedPost, error) {
	if utf8.RuneCountInString(text) > model.MaxPostTextLength {
		return nil, model.ErrPostTooLong
	}

	var out *model.FeedPost
	err := s.store.Update(ctx, func(tx *repository.Tx) error {
		post, err := s.postRepo.GetByID(tx, postID)
		if err != nil {
			return err
		}
		if post.AuthorID != editorID {
			return model.ErrNotPostOwner
		}

		edited := *post
		edited.Text = text
		if !edited.HasContent() {
			return model.ErrEmptyPost
		}
		if _, err := s.postRepo.UpdateText(tx, postID, text); err != nil {
			return fmt.Errorf("update post: %w", err)
		}
		out, err = s.feedPost(tx, edited, editorID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordMutation("update_post")
	return out, nil
}

// ToggleLike flips the user's like on the post. Only the transition to liked notifies
// the author, and never when the author likes their own post.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID string) (*model.LikeResponse, error) {
	var (
		resp  model.LikeResponse
		notif *model.Notification
	)
	err := s.store.Update(ctx, func(tx *repository.Tx) error {
		if _, err := s.userRepo.GetByID(tx, userID); err != nil {
			return err
		}
		liked, err := s.postRepo.ToggleLike(tx, postID, userID)
		if err != nil {
			return err
		}
		post, err := s.postRepo.GetByID(tx, postID)
		if err != nil {
			return err
		}
		resp = model.LikeResponse{Liked: liked, LikeCount: len(post.Likes)}

		if liked {
			notif, err = s.notifier.notify(tx, post.AuthorID, userID, model.NotificationLike, &post.ID)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordMutation("toggle_like")
	s.notifier.emitted(notif)
	return &resp, nil
}

// AmbientPicker is the randomness source of the ambient like. *rand.Rand satisfies it.
type AmbientPicker interface {
	Intn(n int) int
	Float64() float64
}

// AmbientLike is a like added by the ambient activity tick.
type AmbientLike struct {
	UserID string
	PostID string
}

// AddAmbientLike picks a random user and a random post and, with the given probability,
// adds that user's like if it is absent. No notification is generated.
func (s *PostService) AddAmbientLike(ctx context.Context, rnd AmbientPicker, probability float64) (*AmbientLike, error) {
	var like *AmbientLike
	err := s.store.Update(ctx, func(tx *repository.Tx) error {
		users := s.userRepo.List(tx)
		posts := s.postRepo.List(tx)
		if len(users) == 0 || len(posts) == 0 {
			return nil
		}
		user := users[rnd.Intn(len(users))]
		post := posts[rnd.Intn(len(posts))]
		if rnd.Float64() >= probability {
			return nil
		}

		added, err := s.postRepo.AddLike(tx, post.ID, user.ID)
		if err != nil {
			return err
		}
		if added {
			like = &AmbientLike{UserID: user.ID, PostID: post.ID}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ambient like: %w", err)
	}
	if like != nil {
		s.metrics.RecordAmbientLike()
	}
	return like, nil
}

// Feed returns every post newest first.
func (s *PostService) Feed(ctx context.Context, viewerID string) ([]model.FeedPost, error) {
	var out []model.FeedPost
	err := s.store.View(ctx, func(tx *repository.Tx) error {
		out = s.feedPosts(tx, s.postRepo.List(tx), viewerID)
		return nil
	})
	return out, err
}

// UserPosts returns the posts authored by userID newest first.
func (s *PostService) UserPosts(ctx context.Context, userID, viewerID string) ([]model.FeedPost, error) {
	var out []model.FeedPost
	err := s.store.View(ctx, func(tx *repository.Tx) error {
		if _, err := s.userRepo.GetByID(tx, userID); err != nil {
			return err
		}
		out = s.feedPosts(tx, s.postRepo.ListByAuthor(tx, userID), viewerID)
		return nil
	})
	return out, err
}

// Detail returns a post with its comments newest first.
func (s *PostService) Detail(ctx context.Context, postID, viewerID string) (*model.PostDetail, error) {
	var out *model.PostDetail
	err := s.store.View(ctx, func(tx *repository.Tx) error {
		post, err := s.postRepo.GetByID(tx, postID)
		if err != nil {
			return err
		}
		fp, err := s.feedPost(tx, *post, viewerID)
		if err != nil {
			return err
		}

		comments := s.commentRepo.ListByPost(tx, postID)
		slices.SortStableFunc(comments, func(a, b model.Comment) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
		views := make([]model.CommentView, 0, len(comments))
		for _, c := range comments {
			author, err := s.userRepo.GetByID(tx, c.AuthorID)
			if err != nil {
				continue
			}
			views = append(views, model.CommentView{Comment: c, Author: author.Summary()})
		}

		out = &model.PostDetail{FeedPost: *fp, Comments: views}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CommentCount is derived from the comment collection on every call.
func (s *PostService) CommentCount(ctx context.Context, postID string) (int, error) {
	var n int
	err := s.store.View(ctx, func(tx *repository.Tx) error {
		n = s.commentRepo.CountByPost(tx, postID)
		return nil
	})
	return n, err
}

// PostCount is derived from the post collection on every call.
func (s *PostService) PostCount(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.store.View(ctx, func(tx *repository.Tx) error {
		n = s.postRepo.CountByAuthor(tx, userID)
		return nil
	})
	return n, err
}

// feedPosts enriches posts and orders them newest first. Posts whose author does not
// resolve are skipped.
func (s *PostService) feedPosts(tx *repository.Tx, posts []model.Post, viewerID string) []model.FeedPost {
	slices.SortStableFunc(posts, func(a, b model.Post) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	out := make([]model.FeedPost, 0, len(posts))
	for _, p := range posts {
		fp, err := s.feedPost(tx, p, viewerID)
		if err != nil {
			continue
		}
		out = append(out, *fp)
	}
	return out
}

func (s *PostService) feedPost(tx *repository.Tx, p model.Post, viewerID string) (*model.FeedPost, error) {
	author, err := s.userRepo.GetByID(tx, p.AuthorID)
	if err != nil {
		return nil, err
	}
	return &model.FeedPost{
		Post:         p,
		Author:       author.Summary(),
		LikeCount:    len(p.Likes),
		CommentCount: s.commentRepo.CountByPost(tx, p.ID),
		IsLiked:      viewerID != "" && p.IsLikedBy(viewerID),
	}, nil
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
