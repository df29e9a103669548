package repository

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"connecthub/internal/model"
	"connecthub/internal/seed"
)

// ErrReadOnly is returned when a write is attempted inside View.
var ErrReadOnly = errors.New("write inside read-only transaction")

// Store owns the social-graph collections.
// Readers share a snapshot under a read lock; writers run one at a time and publish
// their changes only when the closure returns nil.
type Store struct {
	mu    sync.RWMutex
	state collections

	now   func() time.Time
	newID func(prefix string) string
}

type collections struct {
	users         []model.User
	posts         []model.Post
	comments      []model.Comment
	notifications []model.Notification
}

type Option func(*Store)

// WithClock overrides the time source used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides id generation for new entities.
func WithIDGenerator(fn func(prefix string) string) Option {
	return func(s *Store) { s.newID = fn }
}

// NewStore builds a store from seed data. A nil seed yields empty collections.
func NewStore(data *seed.Data, opts ...Option) *Store {
	s := &Store{
		now:   time.Now,
		newID: func(prefix string) string { return prefix + "-" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}

	if data != nil {
		for _, u := range data.Users {
			s.state.users = append(s.state.users, u.Clone())
		}
		for _, p := range data.Posts {
			s.state.posts = append(s.state.posts, p.Clone())
		}
		s.state.comments = slices.Clone(data.Comments)
		s.state.notifications = slices.Clone(data.Notifications)
	}
	return s
}

// View runs fn against a consistent snapshot.
func (s *Store) View(ctx context.Context, fn func(tx *Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(&Tx{state: s.state, now: s.now(), newID: s.newID})
}

// Update runs fn as a single unit of change. Nothing is published if fn fails.
func (s *Store) Update(ctx context.Context, fn func(tx *Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{state: s.state, writable: true, now: s.now(), newID: s.newID}
	if err := fn(tx); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

// Tx is the view of the collections handed to repositories.
// The first write to a collection copies it, so snapshots held elsewhere never change.
type Tx struct {
	state    collections
	writable bool
	owned    struct{ users, posts, comments, notifications bool }

	now   time.Time
	newID func(prefix string) string
}

// Now is the timestamp shared by every entity created in this transaction.
func (tx *Tx) Now() time.Time {
	return tx.now
}

// NewID returns a fresh id with the given kind prefix.
func (tx *Tx) NewID(prefix string) string {
	return tx.newID(prefix)
}

func (tx *Tx) users() ([]model.User, error) {
	if !tx.writable {
		return nil, ErrReadOnly
	}
	if !tx.owned.users {
		tx.state.users = slices.Clone(tx.state.users)
		tx.owned.users = true
	}
	return tx.state.users, nil
}

func (tx *Tx) posts() ([]model.Post, error) {
	if !tx.writable {
		return nil, ErrReadOnly
	}
	if !tx.owned.posts {
		tx.state.posts = slices.Clone(tx.state.posts)
		tx.owned.posts = true
	}
	return tx.state.posts, nil
}

func (tx *Tx) comments() ([]model.Comment, error) {
	if !tx.writable {
		return nil, ErrReadOnly
	}
	if !tx.owned.comments {
		tx.state.comments = slices.Clone(tx.state.comments)
		tx.owned.comments = true
	}
	return tx.state.comments, nil
}

func (tx *Tx) notifications() ([]model.Notification, error) {
	if !tx.writable {
		return nil, ErrReadOnly
	}
	if !tx.owned.notifications {
		tx.state.notifications = slices.Clone(tx.state.notifications)
		tx.owned.notifications = true
	}
	return tx.state.notifications, nil
}

func (tx *Tx) userIndex(id string) int {
	return slices.IndexFunc(tx.state.users, func(u model.User) bool { return u.ID == id })
}

func (tx *Tx) postIndex(id string) int {
	return slices.IndexFunc(tx.state.posts, func(p model.Post) bool { return p.ID == id })
}
