package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"connecthub/internal/httputil"
	"connecthub/internal/model"
	"connecthub/internal/service"
	"connecthub/internal/transport/http/middleware"
)

type PostHandler struct {
	postService *service.PostService
}

func NewPostHandler(postService *service.PostService) *PostHandler {
	return &PostHandler{
		postService: postService,
	}
}

// Create handles POST /posts
// Creates a new post for the authenticated user.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.CreatePostRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	post, err := h.postService.Create(r.Context(), userID, req.Text, req.Image, req.Video)
	if err != nil {
		writeServiceError(w, r, err, "create post", "Failed to create post")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, post)
}

// GetByID handles GET /posts/{id}
// Returns a single post with its comments.
func (h *PostHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "id")
	viewerID, _ := middleware.GetUserIDFromContext(r.Context())

	post, err := h.postService.Detail(r.Context(), postID, viewerID)
	if err != nil {
		writeServiceError(w, r, err, "get post", "Failed to get post")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, post)
}

// Update handles PATCH /posts/{id}
// Replaces the text of a post (only the author can edit).
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	postID := chi.URLParam(r, "id")

	var req model.UpdatePostRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	post, err := h.postService.Edit(r.Context(), postID, userID, req.Text)
	if err != nil {
		writeServiceError(w, r, err, "update post", "Failed to update post")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, post)
}

// ToggleLike handles POST /posts/{id}/like
func (h *PostHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	postID := chi.URLParam(r, "id")

	resp, err := h.postService.ToggleLike(r.Context(), userID, postID)
	if err != nil {
		writeServiceError(w, r, err, "toggle like", "Failed to update like")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}
