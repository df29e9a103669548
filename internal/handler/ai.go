package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"connecthub/internal/httputil"
	"connecthub/internal/media"
	"connecthub/internal/model"
	"connecthub/internal/service"
	"connecthub/internal/transport/http/middleware"
)

// Assistant is the degrade-on-failure half of the AI wrapper.
type Assistant interface {
	PolishText(ctx context.Context, text string) string
	DescribeImage(ctx context.Context, image []byte) string
	AnswerWithSearch(ctx context.Context, query string) model.SearchAnswer
}

// VideoStudio generates videos, selecting a credential when the provider asks for one.
type VideoStudio interface {
	Generate(ctx context.Context, prompt string, image []byte) (*model.VideoHandle, error)
}

// CredentialSetter replaces the generation credential at runtime.
type CredentialSetter interface {
	Set(key string)
}

type AIHandler struct {
	assistant   Assistant
	studio      VideoStudio
	credentials CredentialSetter
	postService *service.PostService

	// videoTimeout bounds GenerateVideo; zero leaves it to the request context.
	videoTimeout time.Duration
}

func NewAIHandler(assistant Assistant, studio VideoStudio, credentials CredentialSetter, postService *service.PostService, videoTimeout time.Duration) *AIHandler {
	return &AIHandler{
		assistant:    assistant,
		studio:       studio,
		credentials:  credentials,
		postService:  postService,
		videoTimeout: videoTimeout,
	}
}

// Polish handles POST /ai/polish
// Returns the rewritten text, or the input unchanged when the provider fails.
func (h *AIHandler) Polish(w http.ResponseWriter, r *http.Request) {
	var req model.PolishRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.PolishResponse{
		Text: h.assistant.PolishText(r.Context(), req.Text),
	})
}

// Caption handles POST /ai/caption
// Accepts a multipart "image" field or a raw image body. The caption is "" on failure.
func (h *AIHandler) Caption(w http.ResponseWriter, r *http.Request) {
	var (
		image []byte
		err   error
	)
	if isMultipart(r) {
		image, err = h.formImage(r, true)
	} else {
		image, _, err = media.ReadImageBody(r.Body, r.Header.Get("Content-Type"), model.MaxImageSizeBytes)
	}
	if err != nil {
		writeUploadError(w, err)
		return
	}
	if len(image) == 0 {
		httputil.WriteBadRequest(w, "image is required")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.CaptionResponse{
		Caption: h.assistant.DescribeImage(r.Context(), image),
	})
}

// Search handles POST /ai/search
// Answers with web sources; provider failures come back as a fallback text.
func (h *AIHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req model.SearchRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	httputil.WriteJSON(w, http.StatusOK, h.assistant.AnswerWithSearch(r.Context(), req.Query))
}

// GenerateVideo handles POST /ai/video
// Multipart form with "prompt" and an optional "image". Blocks until the video is stored.
func (h *AIHandler) GenerateVideo(w http.ResponseWriter, r *http.Request) {
	var (
		image []byte
		err   error
	)
	if isMultipart(r) {
		image, err = h.formImage(r, false)
		if err != nil {
			writeUploadError(w, err)
			return
		}
	}
	prompt := strings.TrimSpace(r.FormValue("prompt"))

	ctx := r.Context()
	if h.videoTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.videoTimeout)
		defer cancel()
	}

	handle, err := h.studio.Generate(ctx, prompt, image)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrAPIKeyRequired):
			httputil.WritePreconditionRequired(w, model.CodeAPIKeyRequired, "Select an API key to generate videos")
		case errors.Is(err, model.ErrAPIKeyInvalid):
			httputil.WritePreconditionRequired(w, model.CodeAPIKeyInvalid, "The selected API key was rejected, select another one")
		case errors.Is(err, model.ErrEmptyPrompt):
			httputil.WriteBadRequest(w, "prompt or image is required")
		case errors.Is(err, model.ErrVideoTimeout), errors.Is(err, context.DeadlineExceeded):
			httputil.WriteGatewayTimeout(w, model.CodeVideoTimeout, "Video generation did not finish in time")
		case errors.Is(err, model.ErrVideoFailed):
			httputil.WriteError(w, http.StatusBadGateway, model.CodeVideoFailed, "Video generation failed")
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			httputil.WriteServiceUnavailable(w, "Video generation is temporarily unavailable")
		default:
			writeServiceError(w, r, err, "generate video", "Failed to generate video")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, handle)
}

// SetCredential handles PUT /ai/credential
func (h *AIHandler) SetCredential(w http.ResponseWriter, r *http.Request) {
	var req model.CredentialRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	h.credentials.Set(strings.TrimSpace(req.APIKey))
	log.Info().Str("component", "AIHandler").Msg("Generation credential replaced")
	w.WriteHeader(http.StatusNoContent)
}

// PublishVideo handles POST /ai/video/publish
// Creates a post carrying the generated video, with the prompt as its text.
func (h *AIHandler) PublishVideo(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.PublishVideoRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	post, err := h.postService.Create(r.Context(), userID, req.Prompt, req.Image, &req.Video)
	if err != nil {
		writeServiceError(w, r, err, "publish video", "Failed to publish video")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, post)
}

// formImage reads the "image" form file. A missing file is an error only when required.
func (h *AIHandler) formImage(r *http.Request, required bool) ([]byte, error) {
	if err := r.ParseMultipartForm(model.MaxImageSizeBytes); err != nil {
		return nil, errInvalidForm
	}
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		if required {
			return nil, errMissingImage
		}
		return nil, nil
	}
	if err != nil {
		return nil, errInvalidForm
	}
	defer file.Close()

	data, _, err := media.ReadImage(file, header, model.MaxImageSizeBytes)
	return data, err
}

var (
	errInvalidForm  = errors.New("invalid multipart form")
	errMissingImage = errors.New("image is required")
)

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

func writeUploadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrFileTooLarge):
		httputil.WriteBadRequestWithCode(w, model.CodeFileTooLarge, "Image exceeds 10MB limit")
	case errors.Is(err, model.ErrInvalidImageType):
		httputil.WriteBadRequestWithCode(w, model.CodeInvalidImage, "Unsupported image type. Allowed: jpeg, png, gif")
	default:
		httputil.WriteBadRequest(w, err.Error())
	}
}
