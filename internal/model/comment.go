package model

import (
	"time"
)

// Comment represents a comment on a post. Comments are never edited.
type Comment struct {
	ID        string    `json:"id" yaml:"id"`
	AuthorID  string    `json:"author_id" yaml:"author_id"`
	PostID    string    `json:"post_id" yaml:"post_id"`
	Text      string    `json:"text" yaml:"text"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
}

// CommentView is a comment with its author for display.
type CommentView struct {
	Comment
	Author UserSummary `json:"author"`
}

// CreateCommentRequest is the request body for creating a comment.
type CreateCommentRequest struct {
	Text string `json:"text" validate:"required,max=2200"`
}

// Comment constraints
const (
	MaxCommentLength = 2200
)
