package repository

import (
	"connecthub/internal/model"
)

type commentRepository struct{}

func NewCommentRepository() CommentRepository {
	return &commentRepository{}
}

// Create appends the comment. Comments are immutable once stored.
func (r *commentRepository) Create(tx *Tx, comment model.Comment) (*model.Comment, error) {
	if tx.postIndex(comment.PostID) < 0 {
		return nil, model.ErrPostNotFound
	}
	comments, err := tx.comments()
	if err != nil {
		return nil, err
	}
	tx.state.comments = append(comments, comment)
	return &comment, nil
}

// ListByPost returns the post's comments in insertion order.
func (r *commentRepository) ListByPost(tx *Tx, postID string) []model.Comment {
	out := []model.Comment{}
	for _, c := range tx.state.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	return out
}

func (r *commentRepository) CountByPost(tx *Tx, postID string) int {
	n := 0
	for _, c := range tx.state.comments {
		if c.PostID == postID {
			n++
		}
	}
	return n
}
