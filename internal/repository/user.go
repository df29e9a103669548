package repository

import (
	"strings"

	"connecthub/internal/model"
)

type userRepository struct{}

func NewUserRepository() UserRepository {
	return &userRepository{}
}

func (r *userRepository) Create(tx *Tx, user model.User) (*model.User, error) {
	if r.ExistsByEmail(tx, user.Email) {
		return nil, &model.ConflictError{Field: "email", Message: "Email already taken"}
	}
	if tx.userIndex(user.ID) >= 0 {
		return nil, &model.ConflictError{Field: "id", Message: "User id already exists"}
	}

	users, err := tx.users()
	if err != nil {
		return nil, err
	}
	stored := user.Clone()
	tx.state.users = append(users, stored)

	out := stored.Clone()
	return &out, nil
}

func (r *userRepository) GetByID(tx *Tx, id string) (*model.User, error) {
	i := tx.userIndex(id)
	if i < 0 {
		return nil, model.ErrUserNotFound
	}
	u := tx.state.users[i].Clone()
	return &u, nil
}

// GetByEmail matches the email exactly.
func (r *userRepository) GetByEmail(tx *Tx, email string) (*model.User, error) {
	for _, u := range tx.state.users {
		if u.Email == email {
			out := u.Clone()
			return &out, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (r *userRepository) ExistsByEmail(tx *Tx, email string) bool {
	for _, u := range tx.state.users {
		if u.Email == email {
			return true
		}
	}
	return false
}

func (r *userRepository) List(tx *Tx) []model.User {
	out := make([]model.User, 0, len(tx.state.users))
	for _, u := range tx.state.users {
		out = append(out, u.Clone())
	}
	return out
}

// Search returns users whose username contains query, case-insensitively.
func (r *userRepository) Search(tx *Tx, query string, limit int) []model.User {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []model.User{}
	for _, u := range tx.state.users {
		if limit > 0 && len(out) >= limit {
			break
		}
		if q == "" || strings.Contains(strings.ToLower(u.Username), q) {
			out = append(out, u.Clone())
		}
	}
	return out
}
