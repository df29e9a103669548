package handler

import (
	"net/http"

	"connecthub/internal/httputil"
	"connecthub/internal/model"
	"connecthub/internal/service"
	"connecthub/internal/transport/http/middleware"
)

type FeedHandler struct {
	postService *service.PostService
}

func NewFeedHandler(postService *service.PostService) *FeedHandler {
	return &FeedHandler{
		postService: postService,
	}
}

// GetFeed handles GET /feed
// Returns every post, newest first, with like state relative to the caller.
func (h *FeedHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	posts, err := h.postService.Feed(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "get feed", "Failed to get feed")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.FeedResponse{Posts: posts})
}
