package repository

import (
	"connecthub/internal/model"
)

type UserRepository interface {
	Create(tx *Tx, user model.User) (*model.User, error)
	GetByID(tx *Tx, id string) (*model.User, error)
	GetByEmail(tx *Tx, email string) (*model.User, error)
	ExistsByEmail(tx *Tx, email string) bool
	List(tx *Tx) []model.User
	Search(tx *Tx, query string, limit int) []model.User
}

type FollowRepository interface {
	// Toggle flips follower->followee on both users and reports whether the edge now exists.
	Toggle(tx *Tx, followerID, followeeID string) (bool, error)
	Exists(tx *Tx, followerID, followeeID string) bool
	FollowerCount(tx *Tx, userID string) int
	FollowingCount(tx *Tx, userID string) int
}

type PostRepository interface {
	Create(tx *Tx, post model.Post) (*model.Post, error)
	GetByID(tx *Tx, postID string) (*model.Post, error)
	List(tx *Tx) []model.Post
	ListByAuthor(tx *Tx, authorID string) []model.Post
	// UpdateText reports false when the post does not exist.
	UpdateText(tx *Tx, postID, text string) (bool, error)
	// ToggleLike flips the user's like and reports whether the post is now liked.
	ToggleLike(tx *Tx, postID, userID string) (bool, error)
	// AddLike adds the user's like if absent and reports whether it was added.
	AddLike(tx *Tx, postID, userID string) (bool, error)
	CountByAuthor(tx *Tx, authorID string) int
}

type CommentRepository interface {
	Create(tx *Tx, comment model.Comment) (*model.Comment, error)
	ListByPost(tx *Tx, postID string) []model.Comment
	CountByPost(tx *Tx, postID string) int
}

type NotificationRepository interface {
	Create(tx *Tx, notification model.Notification) (*model.Notification, error)
	ListByRecipient(tx *Tx, userID string) []model.Notification
	// MarkAllAsRead returns the number of notifications that changed.
	MarkAllAsRead(tx *Tx, userID string) (int, error)
	UnreadCount(tx *Tx, userID string) int
}
