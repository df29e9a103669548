package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"connecthub/internal/httputil"
	"connecthub/internal/model"
	"connecthub/internal/service"
	"connecthub/internal/transport/http/middleware"
)

type CommentHandler struct {
	commentService *service.CommentService
}

func NewCommentHandler(commentService *service.CommentService) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
	}
}

// Create handles POST /posts/{id}/comments
// Appends a comment and notifies the post author.
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	postID := chi.URLParam(r, "id")

	var req model.CreateCommentRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	comment, err := h.commentService.Create(r.Context(), userID, postID, req.Text)
	if err != nil {
		writeServiceError(w, r, err, "create comment", "Failed to create comment")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, comment)
}
