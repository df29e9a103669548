package model

import (
	"errors"
)

// Error categories. Typed errors below match these with errors.Is.
var (
	// ErrNotFound is the category of lookup misses surfaced to the user.
	ErrNotFound = errors.New("not found")

	// ErrConflict is the category of uniqueness violations.
	ErrConflict = errors.New("conflict")
)

// User errors
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrCannotFollowSelf = errors.New("cannot follow yourself")
	ErrNotAuthenticated = errors.New("not logged in")
)

// Post and comment errors
var (
	ErrPostNotFound    = errors.New("post not found")
	ErrNotPostOwner    = errors.New("not the owner of this post")
	ErrEmptyPost       = errors.New("post needs text, an image or a video")
	ErrPostTooLong     = errors.New("post text too long")
	ErrContentRequired = errors.New("comment content is required")
	ErrContentTooLong  = errors.New("comment content too long")
)

// AI errors
var (
	// ErrAPIKeyRequired means no generation credential is configured.
	ErrAPIKeyRequired = errors.New("API_KEY_REQUIRED")

	// ErrAPIKeyInvalid means the provider rejected the configured credential.
	ErrAPIKeyInvalid = errors.New("API_KEY_INVALID")

	ErrVideoFailed  = errors.New("video generation failed or returned no URI")
	ErrVideoTimeout = errors.New("video generation did not finish in time")
	ErrEmptyPrompt  = errors.New("prompt is required")
)

// Media errors
var (
	ErrMediaNotFound    = errors.New("media not found")
	ErrFileTooLarge     = errors.New("file too large")
	ErrInvalidImageType = errors.New("invalid image type")
)

// NotFoundError is a lookup miss carrying a hint for the user.
type NotFoundError struct {
	Resource string
	Hint     string
}

func (e *NotFoundError) Error() string {
	if e.Hint == "" {
		return e.Resource + " not found"
	}
	return e.Resource + " not found (" + e.Hint + ")"
}

// Is makes errors.Is(err, ErrNotFound) hold.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ConflictError is a uniqueness violation on a named field.
type ConflictError struct {
	Field   string
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// Is makes errors.Is(err, ErrConflict) hold.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// Error codes for HTTP responses
const (
	CodeTokenInvalid   = "TOKEN_INVALID"
	CodeAPIKeyRequired = "API_KEY_REQUIRED"
	CodeAPIKeyInvalid  = "API_KEY_INVALID"
	CodeVideoTimeout   = "VIDEO_TIMEOUT"
	CodeVideoFailed    = "VIDEO_FAILED"
	CodeFileTooLarge   = "FILE_TOO_LARGE"
	CodeInvalidImage   = "INVALID_IMAGE_TYPE"
)
