package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"connecthub/internal/handler"
	"connecthub/internal/httputil"
	"connecthub/internal/metrics"
	authmw "connecthub/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler         *handler.AuthHandler
	UserHandler         *handler.UserHandler
	FollowHandler       *handler.FollowHandler
	FeedHandler         *handler.FeedHandler
	PostHandler         *handler.PostHandler
	CommentHandler      *handler.CommentHandler
	NotificationHandler *handler.NotificationHandler
	AIHandler           *handler.AIHandler
	MediaHandler        *handler.MediaHandler
	Sessions            authmw.SessionSource
	Metrics             *metrics.Collector
	CORSOrigins         []string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(authmw.Logger(cfg.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	// Public routes - no authentication required
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", cfg.AuthHandler.Register)
		r.Post("/login", cfg.AuthHandler.Login)
	})

	// Stored media, the analogue of a browser object URL
	r.Get("/media/*", cfg.MediaHandler.Serve)

	// Public user endpoints with optional authentication
	r.Route("/users", func(r chi.Router) {
		r.Use(authmw.OptionalAuthMiddleware(cfg.Sessions))
		r.Get("/", cfg.UserHandler.List)
		r.Get("/search", cfg.UserHandler.Search)
		r.Get("/{id}", cfg.UserHandler.GetProfile)
		r.Get("/{id}/posts", cfg.UserHandler.GetUserPosts)
	})

	// Public post endpoint with optional authentication
	r.With(authmw.OptionalAuthMiddleware(cfg.Sessions)).Get("/posts/{id}", cfg.PostHandler.GetByID)

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.Sessions))

		// Current user endpoints
		r.Get("/me", cfg.AuthHandler.Me)
		r.Post("/auth/logout", cfg.AuthHandler.Logout)

		r.Post("/users/{id}/follow", cfg.FollowHandler.Toggle)

		r.Get("/feed", cfg.FeedHandler.GetFeed)

		// Post endpoints
		r.Post("/posts", cfg.PostHandler.Create)
		r.Patch("/posts/{id}", cfg.PostHandler.Update)
		r.Post("/posts/{id}/like", cfg.PostHandler.ToggleLike)
		r.Post("/posts/{id}/comments", cfg.CommentHandler.Create)

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", cfg.NotificationHandler.List)
			r.Get("/unread-count", cfg.NotificationHandler.UnreadCount)
			r.Post("/read-all", cfg.NotificationHandler.MarkAllAsRead)
		})

		r.Route("/ai", func(r chi.Router) {
			r.Post("/polish", cfg.AIHandler.Polish)
			r.Post("/caption", cfg.AIHandler.Caption)
			r.Post("/search", cfg.AIHandler.Search)
			r.Post("/video", cfg.AIHandler.GenerateVideo)
			r.Post("/video/publish", cfg.AIHandler.PublishVideo)
			r.Put("/credential", cfg.AIHandler.SetCredential)
		})
	})

	return r
}
