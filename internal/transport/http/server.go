package http

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"connecthub/internal/ai"
	"connecthub/internal/config"
	"connecthub/internal/database"
	"connecthub/internal/handler"
	"connecthub/internal/media"
	"connecthub/internal/metrics"
	"connecthub/internal/repository"
	"connecthub/internal/seed"
	"connecthub/internal/service"
	"connecthub/internal/session"
	"connecthub/internal/worker"
)

// Server owns the wired application and its background loop.
type Server struct {
	cfg      *config.Config
	handler  stdhttp.Handler
	sessions *session.Store
	ambient  *worker.Ambient
	closers  []func() error

	writeTimeout time.Duration
	videoTimeout time.Duration
}

const (
	// videoOverhead covers the provider calls and the download around the poll sleeps.
	videoOverhead = 2 * time.Minute
	// writeSlack leaves room to write the error response after a video deadline.
	writeSlack = 30 * time.Second
)

// requestTimeouts returns the server write timeout and the video handler deadline.
// The video deadline always ends before the write timeout.
func requestTimeouts(configured, pollBudget time.Duration) (write, video time.Duration) {
	video = pollBudget + videoOverhead
	write = configured
	if write <= 0 {
		write = video + writeSlack
	}
	if video > write-writeSlack {
		video = write - writeSlack
	}
	if video <= 0 {
		video = write / 2
	}
	return write, video
}

// NewServer wires config, seed data, services, session storage, media and AI into a router.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	s := &Server{cfg: cfg}
	collector := metrics.NewCollector("connecthub")

	// 1. Social graph
	data, err := seed.Load(cfg.SeedFile, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to load seed data: %w", err)
	}
	store := repository.NewStore(data)

	userRepo := repository.NewUserRepository()
	postRepo := repository.NewPostRepository()
	commentRepo := repository.NewCommentRepository()
	followRepo := repository.NewFollowRepository()
	notifRepo := repository.NewNotificationRepository()

	notificationService := service.NewNotificationService(store, notifRepo, userRepo, collector)
	userService := service.NewUserService(store, userRepo, followRepo, postRepo, notifRepo)
	postService := service.NewPostService(store, postRepo, userRepo, commentRepo, notificationService, collector)
	commentService := service.NewCommentService(store, commentRepo, postRepo, userRepo, notificationService, collector)
	followService := service.NewFollowService(store, followRepo, notificationService, collector)

	// 2. Session
	storage, err := s.openSessionStorage(ctx)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.sessions = session.NewStore(userService, storage, session.NewCodec(cfg.SessionSecret), session.Options{
		Key:     cfg.SessionKey,
		Latency: cfg.SessionLatency,
	})
	s.sessions.Restore(ctx)

	// 3. Media and AI
	var mediaStore media.Store
	if cfg.UseR2() {
		r2, err := media.NewR2Store(ctx, cfg)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to init R2 media store: %w", err)
		}
		mediaStore = r2
		log.Info().Str("component", "Server").Str("bucket", cfg.R2BucketName).Msg("Using R2 media store")
	} else {
		mediaStore = media.NewMemoryStore(cfg.MediaBaseURL, cfg.MediaMemoryMaxBytes)
		log.Info().Str("component", "Server").Msg("Using in-memory media store")
	}

	creds := ai.NewCredentials(cfg.GeminiAPIKey)
	aiClient := ai.NewClient(ai.NewGemini(cfg.AITextModel, cfg.AIVideoModel), creds, mediaStore, ai.Config{
		TextModel:           cfg.AITextModel,
		VideoModel:          cfg.AIVideoModel,
		PollInterval:        cfg.AIVideoPollInterval,
		PollMaxInterval:     cfg.AIVideoPollMaxInterval,
		MaxPolls:            cfg.AIVideoMaxPolls,
		RateLimit:           cfg.AIRateLimit,
		RateBurst:           cfg.AIRateBurst,
		BreakerFailureRatio: cfg.AIBreakerFailureRatio,
		BreakerMinRequests:  cfg.AIBreakerMinRequests,
		BreakerOpenTimeout:  cfg.AIBreakerOpenTimeout,
	}, collector)
	studio := ai.NewStudio(aiClient, ai.NewEnvKeySelector(creds))
	s.writeTimeout, s.videoTimeout = requestTimeouts(cfg.WriteTimeout, aiClient.VideoBudget())
	if s.videoTimeout < aiClient.VideoBudget() {
		log.Warn().Str("component", "Server").
			Dur("write_timeout", s.writeTimeout).
			Dur("poll_budget", aiClient.VideoBudget()).
			Msg("Write timeout is shorter than the video poll budget, video requests may time out early")
	}

	// 4. Ambient activity
	if cfg.AmbientEnabled {
		s.ambient = worker.NewAmbient(postService, worker.AmbientConfig{
			Interval:    cfg.AmbientInterval,
			Probability: cfg.AmbientProbability,
		})
	}

	// 5. HTTP
	s.handler = NewRouter(RouterConfig{
		AuthHandler:         handler.NewAuthHandler(s.sessions, userService),
		UserHandler:         handler.NewUserHandler(userService, postService),
		FollowHandler:       handler.NewFollowHandler(followService),
		FeedHandler:         handler.NewFeedHandler(postService),
		PostHandler:         handler.NewPostHandler(postService),
		CommentHandler:      handler.NewCommentHandler(commentService),
		NotificationHandler: handler.NewNotificationHandler(notificationService),
		AIHandler:           handler.NewAIHandler(aiClient, studio, aiClient.Credentials(), postService, s.videoTimeout),
		MediaHandler:        handler.NewMediaHandler(mediaStore),
		Sessions:            s.sessions,
		Metrics:             collector,
		CORSOrigins:         cfg.CORSOrigins,
	})
	return s, nil
}

// openSessionStorage selects the backend that persists the session key.
func (s *Server) openSessionStorage(ctx context.Context) (session.Storage, error) {
	switch strings.ToLower(s.cfg.StorageDriver) {
	case "memory":
		return session.NewMemoryStorage(), nil
	case "file":
		fs, err := session.NewFileStorage(s.cfg.StoragePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open file storage: %w", err)
		}
		return fs, nil
	case "redis":
		rs, err := session.NewRedisStorage(s.cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis storage: %w", err)
		}
		s.closers = append(s.closers, rs.Close)
		if err := rs.Ping(ctx); err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return rs, nil
	case "postgres":
		db, err := database.Connect(s.cfg)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, db.Close)
		ps := session.NewPostgresStorage(db)
		if err := ps.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("failed to prepare session table: %w", err)
		}
		return ps, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", s.cfg.StorageDriver)
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() stdhttp.Handler {
	return s.handler
}

// Close releases storage connections.
func (s *Server) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			log.Warn().Err(err).Str("component", "Server").Msg("Failed to close resource")
		}
	}
	s.closers = nil
}

// Run loads configuration, serves HTTP and shuts down on SIGINT or SIGTERM.
func Run() error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	setupLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Wire the application
	srv, err := NewServer(ctx, cfg)
	if err != nil {
		return err
	}
	defer srv.Close()

	if srv.ambient != nil {
		srv.ambient.Start(ctx)
		defer srv.ambient.Stop()
	}

	// 3. Serve
	httpServer := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      srv.writeTimeout,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.ServerPort).Msg("Starting server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
	return nil
}

// setupLogger configures the global zerolog logger
func setupLogger(level, format string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
