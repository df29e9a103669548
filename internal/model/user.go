package model

import (
	"slices"
)

// User represents a member of the network.
// Followers and Following are id sets kept as mutual inverses by the store.
type User struct {
	ID        string   `json:"id" yaml:"id"`
	Username  string   `json:"username" yaml:"username"`
	Email     string   `json:"email" yaml:"email"`
	Avatar    string   `json:"avatar" yaml:"avatar"`
	Bio       *string  `json:"bio,omitempty" yaml:"bio"`
	Followers []string `json:"followers" yaml:"followers"`
	Following []string `json:"following" yaml:"following"`
}

// Clone returns a deep copy so callers never share id slices with the store.
func (u User) Clone() User {
	c := u
	c.Followers = slices.Clone(u.Followers)
	c.Following = slices.Clone(u.Following)
	if c.Followers == nil {
		c.Followers = []string{}
	}
	if c.Following == nil {
		c.Following = []string{}
	}
	if u.Bio != nil {
		bio := *u.Bio
		c.Bio = &bio
	}
	return c
}

// IsFollowing reports whether u follows the given user.
func (u User) IsFollowing(userID string) bool {
	return slices.Contains(u.Following, userID)
}

// UserSummary is the lightweight author/actor representation embedded in read models.
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// Summary projects a user onto its summary.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
}

// Profile is a user with derived counts relative to a viewer.
type Profile struct {
	User           User `json:"user"`
	PostCount      int  `json:"post_count"`
	FollowerCount  int  `json:"follower_count"`
	FollowingCount int  `json:"following_count"`
	IsFollowing    bool `json:"is_following"`
	IsMe           bool `json:"is_me"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=2,max=30"`
	Email    string `json:"email" validate:"required,email"`
}

// AuthResponse is returned after login and registration.
type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// MeResponse is returned by GET /me.
type MeResponse struct {
	Profile
	UnreadCount int `json:"unread_count"`
}
