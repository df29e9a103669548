package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"connecthub/internal/httputil"
	"connecthub/internal/model"
	"connecthub/internal/service"
	"connecthub/internal/transport/http/middleware"
)

type UserHandler struct {
	userService *service.UserService
	postService *service.PostService
}

func NewUserHandler(userService *service.UserService, postService *service.PostService) *UserHandler {
	return &UserHandler{
		userService: userService,
		postService: postService,
	}
}

// List handles GET /users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "list users", "Failed to list users")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
	})
}

// Search handles GET /users/search?q=
// Matches usernames case-insensitively; an empty query returns the first page of users.
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, r, err, "search users", "Failed to search users")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
	})
}

// GetProfile handles GET /users/{id}
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	viewerID, _ := middleware.GetUserIDFromContext(r.Context())

	profile, err := h.userService.Profile(r.Context(), userID, viewerID)
	if err != nil {
		writeServiceError(w, r, err, "get profile", "Failed to get profile")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, profile)
}

// GetUserPosts handles GET /users/{id}/posts
// Returns the user's posts, newest first.
func (h *UserHandler) GetUserPosts(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	viewerID, _ := middleware.GetUserIDFromContext(r.Context())

	posts, err := h.postService.UserPosts(r.Context(), userID, viewerID)
	if err != nil {
		writeServiceError(w, r, err, "get user posts", "Failed to get user posts")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.FeedResponse{Posts: posts})
}
