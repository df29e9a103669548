package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"connecthub/internal/media"
	"connecthub/internal/metrics"
	"connecthub/internal/model"
	"connecthub/internal/repository"
	"connecthub/internal/seed"
	"connecthub/internal/service"
	"connecthub/internal/session"
	"connecthub/internal/transport/http/middleware"
)

// fakeAssistant lets each test define the AI responses.
type fakeAssistant struct {
	polishFn  func(text string) string
	captionFn func(image []byte) string
	searchFn  func(query string) model.SearchAnswer
}

func (f *fakeAssistant) PolishText(_ context.Context, text string) string {
	if f.polishFn != nil {
		return f.polishFn(text)
	}
	return text
}

func (f *fakeAssistant) DescribeImage(_ context.Context, image []byte) string {
	if f.captionFn != nil {
		return f.captionFn(image)
	}
	return ""
}

func (f *fakeAssistant) AnswerWithSearch(_ context.Context, query string) model.SearchAnswer {
	if f.searchFn != nil {
		return f.searchFn(query)
	}
	return model.SearchAnswer{Sources: []model.Source{}}
}

type fakeStudio struct {
	generateFn func(prompt string, image []byte) (*model.VideoHandle, error)
	blockFn    func(ctx context.Context) error
}

func (f *fakeStudio) Generate(ctx context.Context, prompt string, image []byte) (*model.VideoHandle, error) {
	if f.blockFn != nil {
		return nil, f.blockFn(ctx)
	}
	return f.generateFn(prompt, image)
}

type fakeCredentials struct {
	key string
}

func (f *fakeCredentials) Set(key string) { f.key = key }

type fixture struct {
	router      chi.Router
	sessions    *session.Store
	media       *media.MemoryStore
	assistant   *fakeAssistant
	studio      *fakeStudio
	credentials *fakeCredentials
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	data, err := seed.Default(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	store := repository.NewStore(data)
	collector := metrics.NewCollector("test")

	userRepo := repository.NewUserRepository()
	postRepo := repository.NewPostRepository()
	commentRepo := repository.NewCommentRepository()
	followRepo := repository.NewFollowRepository()
	notifRepo := repository.NewNotificationRepository()

	notifs := service.NewNotificationService(store, notifRepo, userRepo, collector)
	users := service.NewUserService(store, userRepo, followRepo, postRepo, notifRepo)
	posts := service.NewPostService(store, postRepo, userRepo, commentRepo, notifs, collector)
	comments := service.NewCommentService(store, commentRepo, postRepo, userRepo, notifs, collector)
	follows := service.NewFollowService(store, followRepo, notifs, collector)

	f := &fixture{
		sessions:    session.NewStore(users, session.NewMemoryStorage(), session.NewCodec("test-secret"), session.Options{}),
		media:       media.NewMemoryStore("/media", 0),
		assistant:   &fakeAssistant{},
		studio:      &fakeStudio{},
		credentials: &fakeCredentials{},
	}

	authH := NewAuthHandler(f.sessions, users)
	userH := NewUserHandler(users, posts)
	followH := NewFollowHandler(follows)
	feedH := NewFeedHandler(posts)
	postH := NewPostHandler(posts)
	commentH := NewCommentHandler(comments)
	notifH := NewNotificationHandler(notifs)
	aiH := NewAIHandler(f.assistant, f.studio, f.credentials, posts, 0)
	mediaH := NewMediaHandler(f.media)

	r := chi.NewRouter()
	r.Post("/auth/login", authH.Login)
	r.Post("/auth/register", authH.Register)
	r.Get("/media/*", mediaH.Serve)
	r.With(middleware.OptionalAuthMiddleware(f.sessions)).Get("/users/{id}", userH.GetProfile)
	r.Get("/users/search", userH.Search)
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(f.sessions))
		r.Get("/me", authH.Me)
		r.Post("/auth/logout", authH.Logout)
		r.Get("/users/{id}/posts", userH.GetUserPosts)
		r.Post("/users/{id}/follow", followH.Toggle)
		r.Get("/feed", feedH.GetFeed)
		r.Post("/posts", postH.Create)
		r.Get("/posts/{id}", postH.GetByID)
		r.Patch("/posts/{id}", postH.Update)
		r.Post("/posts/{id}/like", postH.ToggleLike)
		r.Post("/posts/{id}/comments", commentH.Create)
		r.Get("/notifications", notifH.List)
		r.Get("/notifications/unread-count", notifH.UnreadCount)
		r.Post("/notifications/read-all", notifH.MarkAllAsRead)
		r.Post("/ai/polish", aiH.Polish)
		r.Post("/ai/caption", aiH.Caption)
		r.Post("/ai/search", aiH.Search)
		r.Post("/ai/video", aiH.GenerateVideo)
		r.Post("/ai/video/publish", aiH.PublishVideo)
		r.Put("/ai/credential", aiH.SetCredential)
	})
	f.router = r
	return f
}

func (f *fixture) do(t *testing.T, method, path, token string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) login(t *testing.T, email string) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/auth/login", "", `{"email":"`+email+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp model.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Token
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	var resp struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error.Code, resp.Error.Message
}

func TestLogin(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/auth/login", "", `{"email":"nobody@example.com"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	code, msg := decodeError(t, rec)
	assert.Equal(t, "NOT_FOUND", code)
	assert.Contains(t, msg, "Try: alex@example.com")

	rec = f.do(t, http.MethodPost, "/auth/login", "", `{"email":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	token := f.login(t, "alex@example.com")
	assert.NotEmpty(t, token)

	// the process session now answers without a token
	rec = f.do(t, http.MethodGet, "/me", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var me model.MeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "u1", me.User.ID)
	assert.Equal(t, 1, me.UnreadCount)
	assert.True(t, me.IsMe)

	rec = f.do(t, http.MethodPost, "/auth/logout", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodGet, "/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegister(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/auth/register", "", `{"username":"dup","email":"alex@example.com"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	_, msg := decodeError(t, rec)
	assert.Equal(t, "Email already taken", msg)

	rec = f.do(t, http.MethodPost, "/auth/register", "", `{"username":"new_user","email":"new@example.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp model.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.User.Followers)
	assert.Empty(t, resp.User.Following)
	assert.Contains(t, resp.User.Avatar, "name=new_user")

	rec = f.do(t, http.MethodGet, "/users/search?q=new_", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), resp.User.ID)
}

func TestFeedRequiresAuth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/feed", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/feed", "forged", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	code, _ := decodeError(t, rec)
	assert.Equal(t, model.CodeTokenInvalid, code)
}

func TestPostLifecycle(t *testing.T) {
	f := newFixture(t)
	alex := f.login(t, "alex@example.com")
	sarah := f.login(t, "sarah@example.com")

	rec := f.do(t, http.MethodPost, "/posts", sarah, `{"text":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/posts", sarah, `{"text":"hello world"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created model.FeedPost
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "u2", created.AuthorID)

	rec = f.do(t, http.MethodGet, "/feed", alex, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var feed model.FeedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feed))
	require.NotEmpty(t, feed.Posts)
	assert.Equal(t, created.ID, feed.Posts[0].ID)

	rec = f.do(t, http.MethodPatch, "/posts/"+created.ID, alex, `{"text":"hijack"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPatch, "/posts/"+created.ID, sarah, `{"text":"edited"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"edited"`)

	rec = f.do(t, http.MethodPost, "/posts/"+created.ID+"/like", alex, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"liked":true,"like_count":1}`, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/posts/"+created.ID+"/comments", alex, `{"text":"nice"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodGet, "/posts/"+created.ID, alex, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var detail model.PostDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.True(t, detail.IsLiked)
	assert.Equal(t, 1, detail.CommentCount)
	require.Len(t, detail.Comments, 1)
	assert.Equal(t, "alex_dev", detail.Comments[0].Author.Username)

	rec = f.do(t, http.MethodGet, "/notifications/unread-count", sarah, "")
	assert.JSONEq(t, `{"unread_count":2}`, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/notifications/read-all", sarah, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodGet, "/notifications/unread-count", sarah, "")
	assert.JSONEq(t, `{"unread_count":0}`, rec.Body.String())

	// alex keeps the seeded unread like
	rec = f.do(t, http.MethodGet, "/notifications", alex, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list model.NotificationListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.UnreadCount)
}

func TestPostNotFound(t *testing.T) {
	f := newFixture(t)
	alex := f.login(t, "alex@example.com")

	rec := f.do(t, http.MethodGet, "/posts/missing", alex, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/posts/missing/comments", alex, `{"text":"hi"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFollowToggle(t *testing.T) {
	f := newFixture(t)
	guru := f.login(t, "guru@example.com")

	rec := f.do(t, http.MethodPost, "/users/u3/follow", guru, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/users/u2/follow", guru, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"following":true}`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/users/u2", guru, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var profile model.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	assert.True(t, profile.IsFollowing)
	assert.Equal(t, 2, profile.FollowerCount)

	rec = f.do(t, http.MethodPost, "/users/u2/follow", guru, "")
	assert.JSONEq(t, `{"following":false}`, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/users/nobody/follow", guru, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/users/nobody/posts", guru, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAIPolishAndSearch(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "alex@example.com")
	f.assistant.polishFn = func(text string) string { return strings.ToUpper(text) }
	f.assistant.searchFn = func(query string) model.SearchAnswer {
		return model.SearchAnswer{Text: "answer to " + query, Sources: []model.Source{{Title: "Go", URI: "https://go.dev"}}}
	}

	rec := f.do(t, http.MethodPost, "/ai/polish", token, `{"text":"hi"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"text":"HI"}`, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/ai/polish", token, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/ai/search", token, `{"query":"go"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"text":"answer to go","sources":[{"title":"Go","uri":"https://go.dev"}]}`, rec.Body.String())
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestAICaption(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "alex@example.com")
	var seen int
	f.assistant.captionFn = func(image []byte) string {
		seen = len(image)
		return "a red dot"
	}
	data := pngBytes(t)

	t.Run("raw body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/ai/caption", bytes.NewReader(data))
		req.Header.Set("Content-Type", "image/png")
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"caption":"a red dot"}`, rec.Body.String())
		assert.Equal(t, len(data), seen)
	})

	t.Run("multipart", func(t *testing.T) {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("image", "dot.png")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/ai/caption", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"caption":"a red dot"}`, rec.Body.String())
	})

	t.Run("not an image", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/ai/caption", strings.NewReader("plain text"))
		req.Header.Set("Content-Type", "text/plain")
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		code, _ := decodeError(t, rec)
		assert.Equal(t, model.CodeInvalidImage, code)
	})
}

func videoRequest(t *testing.T, token, prompt string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("prompt", prompt))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/ai/video", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestAIGenerateVideo(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"no credential", model.ErrAPIKeyRequired, http.StatusPreconditionRequired, model.CodeAPIKeyRequired},
		{"rejected credential", model.ErrAPIKeyInvalid, http.StatusPreconditionRequired, model.CodeAPIKeyInvalid},
		{"timeout", model.ErrVideoTimeout, http.StatusGatewayTimeout, model.CodeVideoTimeout},
		{"failed", model.ErrVideoFailed, http.StatusBadGateway, model.CodeVideoFailed},
		{"empty prompt", model.ErrEmptyPrompt, http.StatusBadRequest, "BAD_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			token := f.login(t, "alex@example.com")
			f.studio.generateFn = func(string, []byte) (*model.VideoHandle, error) { return nil, tt.err }

			rec := httptest.NewRecorder()
			f.router.ServeHTTP(rec, videoRequest(t, token, "a cat"))

			assert.Equal(t, tt.wantStatus, rec.Code)
			code, _ := decodeError(t, rec)
			assert.Equal(t, tt.wantCode, code)
		})
	}

	t.Run("success", func(t *testing.T) {
		f := newFixture(t)
		token := f.login(t, "alex@example.com")
		var gotPrompt string
		f.studio.generateFn = func(prompt string, image []byte) (*model.VideoHandle, error) {
			gotPrompt = prompt
			assert.Nil(t, image)
			return &model.VideoHandle{Key: "videos/v.mp4", URL: "/media/videos/v.mp4", ContentType: "video/mp4", Size: 3}, nil
		}

		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, videoRequest(t, token, "  a cat  "))

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "a cat", gotPrompt)
		assert.Contains(t, rec.Body.String(), `"url":"/media/videos/v.mp4"`)
	})

	t.Run("handler deadline", func(t *testing.T) {
		f := newFixture(t)
		token := f.login(t, "alex@example.com")
		f.studio.blockFn = func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}
		h := NewAIHandler(f.assistant, f.studio, f.credentials, nil, 20*time.Millisecond)

		rec := httptest.NewRecorder()
		h.GenerateVideo(rec, videoRequest(t, token, "a cat"))

		assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
		code, _ := decodeError(t, rec)
		assert.Equal(t, model.CodeVideoTimeout, code)
	})
}

func TestAIPublishVideoAndCredential(t *testing.T) {
	f := newFixture(t)
	token := f.login(t, "alex@example.com")

	rec := f.do(t, http.MethodPut, "/ai/credential", token, `{"api_key":" new-key "}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "new-key", f.credentials.key)

	rec = f.do(t, http.MethodPost, "/ai/video/publish", token, `{"prompt":"a cat","video":"/media/videos/v.mp4"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var post model.FeedPost
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &post))
	require.NotNil(t, post.Video)
	assert.Equal(t, "/media/videos/v.mp4", *post.Video)
	assert.Equal(t, "a cat", post.Text)
}

func TestMediaServe(t *testing.T) {
	f := newFixture(t)
	_, err := f.media.Put(context.Background(), "videos/v.mp4", "video/mp4", []byte("mp4"))
	require.NoError(t, err)

	rec := f.do(t, http.MethodGet, "/media/videos/v.mp4", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
	assert.Equal(t, "mp4", rec.Body.String())

	rec = f.do(t, http.MethodGet, "/media/videos/missing.mp4", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
