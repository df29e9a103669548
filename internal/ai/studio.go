package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"connecthub/internal/model"
)

// VideoGenerator is the part of Client the studio drives.
type VideoGenerator interface {
	GenerateVideo(ctx context.Context, prompt string, image []byte) (*model.VideoHandle, error)
}

// Studio runs video generation for a caller that can pick a new credential.
// When the provider asks for a key, the selector runs once and the request is retried once.
type Studio struct {
	generator VideoGenerator
	selector  KeySelector
}

func NewStudio(generator VideoGenerator, selector KeySelector) *Studio {
	return &Studio{generator: generator, selector: selector}
}

func (s *Studio) Generate(ctx context.Context, prompt string, image []byte) (*model.VideoHandle, error) {
	handle, err := s.generator.GenerateVideo(ctx, prompt, image)
	if err == nil || !needsKey(err) || s.selector == nil {
		return handle, err
	}

	log.Info().Err(err).Str("component", "Studio").Msg("Credential needed, selecting key and retrying once")
	if selErr := s.selector.SelectKey(ctx); selErr != nil {
		if needsKey(selErr) {
			return nil, selErr
		}
		return nil, fmt.Errorf("select key: %w", selErr)
	}
	return s.generator.GenerateVideo(ctx, prompt, image)
}

func needsKey(err error) bool {
	return errors.Is(err, model.ErrAPIKeyRequired) || errors.Is(err, model.ErrAPIKeyInvalid)
}
