package repository

import (
	"slices"

	"connecthub/internal/model"
)

type followRepository struct{}

func NewFollowRepository() FollowRepository {
	return &followRepository{}
}

// Toggle derives the direction from the follower's side and writes the same answer to
// both users, so an asymmetric pair is repaired rather than widened.
func (r *followRepository) Toggle(tx *Tx, followerID, followeeID string) (bool, error) {
	fi := tx.userIndex(followerID)
	ti := tx.userIndex(followeeID)
	if fi < 0 || ti < 0 {
		return false, model.ErrUserNotFound
	}

	users, err := tx.users()
	if err != nil {
		return false, err
	}

	follow := !slices.Contains(users[fi].Following, followeeID)
	users[fi].Following = setMembership(users[fi].Following, followeeID, follow)
	users[ti].Followers = setMembership(users[ti].Followers, followerID, follow)
	return follow, nil
}

func (r *followRepository) Exists(tx *Tx, followerID, followeeID string) bool {
	i := tx.userIndex(followerID)
	return i >= 0 && slices.Contains(tx.state.users[i].Following, followeeID)
}

func (r *followRepository) FollowerCount(tx *Tx, userID string) int {
	i := tx.userIndex(userID)
	if i < 0 {
		return 0
	}
	return len(tx.state.users[i].Followers)
}

func (r *followRepository) FollowingCount(tx *Tx, userID string) int {
	i := tx.userIndex(userID)
	if i < 0 {
		return 0
	}
	return len(tx.state.users[i].Following)
}

// setMembership returns a new slice with id present or absent. The input is never modified.
func setMembership(ids []string, id string, present bool) []string {
	out := make([]string, 0, len(ids)+1)
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	if present {
		out = append(out, id)
	}
	return out
}
