package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"connecthub/internal/httputil"
	"connecthub/internal/service"
	"connecthub/internal/transport/http/middleware"
)

type FollowHandler struct {
	followService *service.FollowService
}

func NewFollowHandler(followService *service.FollowService) *FollowHandler {
	return &FollowHandler{
		followService: followService,
	}
}

// FollowResponse is the result of a follow toggle.
type FollowResponse struct {
	Following bool `json:"following"`
}

// Toggle handles POST /users/{id}/follow
// Follows the user when not yet following, unfollows otherwise.
func (h *FollowHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	targetID := chi.URLParam(r, "id")

	following, err := h.followService.Toggle(r.Context(), userID, targetID)
	if err != nil {
		writeServiceError(w, r, err, "toggle follow", "Failed to update follow")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FollowResponse{Following: following})
}
