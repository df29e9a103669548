package handler

import (
	"net/http"

	"connecthub/internal/httputil"
	"connecthub/internal/model"
	"connecthub/internal/service"
	"connecthub/internal/session"
	"connecthub/internal/transport/http/middleware"
)

type AuthHandler struct {
	sessions    *session.Store
	userService *service.UserService
}

func NewAuthHandler(sessions *session.Store, userService *service.UserService) *AuthHandler {
	return &AuthHandler{
		sessions:    sessions,
		userService: userService,
	}
}

// Login handles POST /auth/login
// Signs in the user with the given email and returns the session token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	user, token, err := h.sessions.Login(r.Context(), req.Email)
	if err != nil {
		writeServiceError(w, r, err, "login", "Failed to log in")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.AuthResponse{User: *user, Token: token})
}

// Register handles POST /auth/register
// Creates a user with empty follow sets and signs it in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	user, token, err := h.sessions.Register(r.Context(), req.Username, req.Email)
	if err != nil {
		writeServiceError(w, r, err, "register", "Failed to register")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, model.AuthResponse{User: *user, Token: token})
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context()); err != nil {
		writeServiceError(w, r, err, "logout", "Failed to log out")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Logged out successfully",
	})
}

// Me handles GET /me
// Returns the caller's profile with the unread notification count.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	me, err := h.userService.Me(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "me", "Failed to get current user")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, me)
}
