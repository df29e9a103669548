package model

import (
	"slices"
	"strings"
	"time"
)

// Post represents a user's post. Likes is a set of user ids.
type Post struct {
	ID        string    `json:"id" yaml:"id"`
	AuthorID  string    `json:"author_id" yaml:"author_id"`
	Text      string    `json:"text" yaml:"text"`
	Image     *string   `json:"image,omitempty" yaml:"image"`
	Video     *string   `json:"video,omitempty" yaml:"video"`
	Likes     []string  `json:"likes" yaml:"likes"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
}

// Clone returns a deep copy of the post.
func (p Post) Clone() Post {
	c := p
	c.Likes = slices.Clone(p.Likes)
	if c.Likes == nil {
		c.Likes = []string{}
	}
	if p.Image != nil {
		v := *p.Image
		c.Image = &v
	}
	if p.Video != nil {
		v := *p.Video
		c.Video = &v
	}
	return c
}

// IsLikedBy reports whether the user has liked the post.
func (p Post) IsLikedBy(userID string) bool {
	return slices.Contains(p.Likes, userID)
}

// HasContent reports whether the post carries text or at least one media reference.
func (p Post) HasContent() bool {
	return strings.TrimSpace(p.Text) != "" || nonEmpty(p.Image) || nonEmpty(p.Video)
}

func nonEmpty(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}

// FeedPost is a post enriched for display.
type FeedPost struct {
	Post
	Author       UserSummary `json:"author"`
	LikeCount    int         `json:"like_count"`
	CommentCount int         `json:"comment_count"`
	IsLiked      bool        `json:"is_liked"`
}

// PostDetail is a post with its comments, newest first.
type PostDetail struct {
	FeedPost
	Comments []CommentView `json:"comments"`
}

// FeedResponse is the response of GET /feed and GET /users/{id}/posts.
type FeedResponse struct {
	Posts []FeedPost `json:"posts"`
}

// CreatePostRequest is the request body for creating a post.
type CreatePostRequest struct {
	Text  string  `json:"text" validate:"max=2200"`
	Image *string `json:"image,omitempty" validate:"omitempty,max=2048"`
	Video *string `json:"video,omitempty" validate:"omitempty,max=2048"`
}

// UpdatePostRequest is the request body for editing a post's text.
type UpdatePostRequest struct {
	Text string `json:"text" validate:"max=2200"`
}

// LikeResponse is returned after toggling a like.
type LikeResponse struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}

// Post constraints
const (
	MaxPostTextLength = 2200
)
