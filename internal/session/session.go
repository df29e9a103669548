// Package session keeps the single signed-in user of this process and persists it
// under one storage key so a restart resumes the session.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"connecthub/internal/model"
)

const (
	DefaultKey       = "connecthub_user"
	DefaultLoginHint = "Try: alex@example.com"
)

// Directory is the user collection the session signs in against.
type Directory interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	AddUser(ctx context.Context, user model.User) (*model.User, error)
}

// Options configures a Store. An empty Key or LoginHint falls back to the defaults above.
type Options struct {
	Key string
	// Latency is the simulated round trip before Login and Register resolve.
	Latency   time.Duration
	LoginHint string
}

// Store holds the current user. The persisted value is the signed token of the
// user snapshot taken at sign-in; later profile changes are not reflected.
type Store struct {
	dir     Directory
	storage Storage
	codec   *Codec

	key     string
	latency time.Duration
	hint    string

	mu    sync.RWMutex
	user  *model.User
	token string
}

func NewStore(dir Directory, storage Storage, codec *Codec, opts Options) *Store {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.Latency < 0 {
		opts.Latency = 0
	}
	if opts.LoginHint == "" {
		opts.LoginHint = DefaultLoginHint
	}
	return &Store{
		dir:     dir,
		storage: storage,
		codec:   codec,
		key:     opts.Key,
		latency: opts.Latency,
		hint:    opts.LoginHint,
	}
}

// Login signs in the user with exactly this email.
func (s *Store) Login(ctx context.Context, email string) (*model.User, string, error) {
	if err := s.wait(ctx); err != nil {
		return nil, "", err
	}

	user, err := s.dir.FindByEmail(ctx, email)
	if errors.Is(err, model.ErrUserNotFound) {
		return nil, "", &model.NotFoundError{Resource: "User", Hint: s.hint}
	}
	if err != nil {
		return nil, "", fmt.Errorf("find user: %w", err)
	}

	token, err := s.adopt(ctx, *user)
	if err != nil {
		return nil, "", err
	}
	log.Info().Str("component", "Session").Str("user_id", user.ID).Msg("User logged in")
	return user, token, nil
}

// Register creates a user with empty follow sets, adds it to the directory and signs it in.
func (s *Store) Register(ctx context.Context, username, email string) (*model.User, string, error) {
	if err := s.wait(ctx); err != nil {
		return nil, "", err
	}

	if _, err := s.dir.FindByEmail(ctx, email); err == nil {
		return nil, "", &model.ConflictError{Field: "email", Message: "Email already taken"}
	} else if !errors.Is(err, model.ErrUserNotFound) {
		return nil, "", fmt.Errorf("find user: %w", err)
	}

	user, err := s.dir.AddUser(ctx, model.User{
		Username:  username,
		Email:     email,
		Avatar:    AvatarURL(username),
		Followers: []string{},
		Following: []string{},
	})
	if err != nil {
		return nil, "", err
	}

	token, err := s.adopt(ctx, *user)
	if err != nil {
		return nil, "", err
	}
	log.Info().Str("component", "Session").Str("user_id", user.ID).Str("username", username).Msg("User registered")
	return user, token, nil
}

// Logout clears the session and removes the persisted key.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.mu.Unlock()

	if err := s.storage.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	log.Info().Str("component", "Session").Msg("User logged out")
	return nil
}

// Restore loads the persisted session. A missing or unreadable value, or a user no longer
// in the directory, leaves the store logged out and is never reported as an error.
func (s *Store) Restore(ctx context.Context) *model.User {
	raw, err := s.storage.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			log.Warn().Err(err).Str("component", "Session").Msg("Failed to read persisted session")
		}
		return nil
	}

	user, err := s.codec.Decode(raw)
	if err != nil {
		log.Warn().Err(err).Str("component", "Session").Msg("Discarding unreadable persisted session")
		return nil
	}

	// the graph reloads on restart, so a registered user may be gone
	if current, err := s.dir.FindByEmail(ctx, user.Email); err != nil || current.ID != user.ID {
		log.Warn().Err(err).Str("component", "Session").Str("user_id", user.ID).Msg("Discarding session of unknown user")
		return nil
	}

	s.mu.Lock()
	s.user = user
	s.token = raw
	s.mu.Unlock()

	log.Info().Str("component", "Session").Str("user_id", user.ID).Msg("Session restored")
	out := user.Clone()
	return &out
}

// Current returns a copy of the session user.
func (s *Store) Current() (*model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil, false
	}
	u := s.user.Clone()
	return &u, true
}

// Token returns the signed token of the current session, or "" when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Decode verifies a token issued by this store.
func (s *Store) Decode(token string) (*model.User, error) {
	return s.codec.Decode(token)
}

func (s *Store) adopt(ctx context.Context, user model.User) (string, error) {
	token, err := s.codec.Encode(user)
	if err != nil {
		return "", err
	}
	if err := s.storage.Set(ctx, s.key, token); err != nil {
		return "", fmt.Errorf("persist session: %w", err)
	}

	snapshot := user.Clone()
	s.mu.Lock()
	s.user = &snapshot
	s.token = token
	s.mu.Unlock()
	return token, nil
}

func (s *Store) wait(ctx context.Context) error {
	if s.latency == 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// AvatarURL is the generated avatar for a newly registered user.
func AvatarURL(username string) string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(strings.TrimSpace(username)) + "&background=random"
}
