package repository

import (
	"slices"

	"connecthub/internal/model"
)

type postRepository struct{}

func NewPostRepository() PostRepository {
	return &postRepository{}
}

// Create places the post at the head of the collection.
func (r *postRepository) Create(tx *Tx, post model.Post) (*model.Post, error) {
	if _, err := tx.posts(); err != nil {
		return nil, err
	}
	stored := post.Clone()
	tx.state.posts = append([]model.Post{stored}, tx.state.posts...)

	out := stored.Clone()
	return &out, nil
}

func (r *postRepository) GetByID(tx *Tx, postID string) (*model.Post, error) {
	i := tx.postIndex(postID)
	if i < 0 {
		return nil, model.ErrPostNotFound
	}
	p := tx.state.posts[i].Clone()
	return &p, nil
}

// List returns posts in collection order, most recently created first.
func (r *postRepository) List(tx *Tx) []model.Post {
	out := make([]model.Post, 0, len(tx.state.posts))
	for _, p := range tx.state.posts {
		out = append(out, p.Clone())
	}
	return out
}

func (r *postRepository) ListByAuthor(tx *Tx, authorID string) []model.Post {
	out := []model.Post{}
	for _, p := range tx.state.posts {
		if p.AuthorID == authorID {
			out = append(out, p.Clone())
		}
	}
	return out
}

func (r *postRepository) UpdateText(tx *Tx, postID, text string) (bool, error) {
	i := tx.postIndex(postID)
	if i < 0 {
		return false, nil
	}
	posts, err := tx.posts()
	if err != nil {
		return false, err
	}
	posts[i].Text = text
	return true, nil
}

func (r *postRepository) ToggleLike(tx *Tx, postID, userID string) (bool, error) {
	i := tx.postIndex(postID)
	if i < 0 {
		return false, model.ErrPostNotFound
	}
	posts, err := tx.posts()
	if err != nil {
		return false, err
	}
	liked := !slices.Contains(posts[i].Likes, userID)
	posts[i].Likes = setMembership(posts[i].Likes, userID, liked)
	return liked, nil
}

func (r *postRepository) AddLike(tx *Tx, postID, userID string) (bool, error) {
	i := tx.postIndex(postID)
	if i < 0 {
		return false, model.ErrPostNotFound
	}
	if slices.Contains(tx.state.posts[i].Likes, userID) {
		return false, nil
	}
	posts, err := tx.posts()
	if err != nil {
		return false, err
	}
	posts[i].Likes = setMembership(posts[i].Likes, userID, true)
	return true, nil
}

func (r *postRepository) CountByAuthor(tx *Tx, authorID string) int {
	n := 0
	for _, p := range tx.state.posts {
		if p.AuthorID == authorID {
			n++
		}
	}
	return n
}
