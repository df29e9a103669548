package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"connecthub/internal/httputil"
	"connecthub/internal/model"
)

// writeServiceError maps the domain errors shared by several handlers to a response.
// Anything unrecognised is logged and reported as a 500 with the fallback message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, op, fallback string) {
	var notFound *model.NotFoundError
	var conflict *model.ConflictError

	switch {
	case errors.As(err, &notFound):
		httputil.WriteNotFound(w, notFound.Error())
	case errors.As(err, &conflict):
		httputil.WriteConflict(w, conflict.Message)
	case errors.Is(err, model.ErrUserNotFound):
		httputil.WriteNotFound(w, "User not found")
	case errors.Is(err, model.ErrPostNotFound):
		httputil.WriteNotFound(w, "Post not found")
	case errors.Is(err, model.ErrMediaNotFound):
		httputil.WriteNotFound(w, "Media not found")
	case errors.Is(err, model.ErrNotPostOwner):
		httputil.WriteForbidden(w, "You can only edit your own posts")
	case errors.Is(err, model.ErrCannotFollowSelf):
		httputil.WriteBadRequest(w, "You cannot follow yourself")
	case errors.Is(err, model.ErrEmptyPost):
		httputil.WriteBadRequest(w, "Post needs text, an image or a video")
	case errors.Is(err, model.ErrPostTooLong):
		httputil.WriteBadRequest(w, "Post text too long (max 2200 characters)")
	case errors.Is(err, model.ErrContentRequired):
		httputil.WriteBadRequest(w, "Comment content is required")
	case errors.Is(err, model.ErrContentTooLong):
		httputil.WriteBadRequest(w, "Comment too long (max 2200 characters)")
	case errors.Is(err, model.ErrNotAuthenticated):
		httputil.WriteUnauthorized(w, "Not logged in")
	case errors.Is(err, context.Canceled):
		// client went away
		log.Debug().Str("component", "Handler").Str("op", op).Msg("Request cancelled")
	case errors.Is(err, context.DeadlineExceeded):
		httputil.WriteGatewayTimeout(w, httputil.ErrCodeTimeout, "Request timed out")
	default:
		log.Error().Err(err).Str("component", "Handler").Str("op", op).Str("path", r.URL.Path).Msg("Request failed")
		httputil.WriteInternalError(w, fallback)
	}
}
