package ai

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"connecthub/internal/model"
)

// Credentials holds the optional provider key. It may be replaced at any time.
type Credentials struct {
	mu  sync.RWMutex
	key string
}

func NewCredentials(key string) *Credentials {
	return &Credentials{key: strings.TrimSpace(key)}
}

// Key returns the configured key and whether one is set.
func (c *Credentials) Key() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.key, c.key != ""
}

// Set replaces the key. An empty key clears it.
func (c *Credentials) Set(key string) {
	c.mu.Lock()
	c.key = strings.TrimSpace(key)
	c.mu.Unlock()
	log.Info().Str("component", "AI").Bool("configured", c.key != "").Msg("Credential replaced")
}

// KeySelector obtains a usable credential after the provider asked for one.
type KeySelector interface {
	SelectKey(ctx context.Context) error
}

// EnvKeySelector reloads the key from GEMINI_API_KEY or API_KEY.
type EnvKeySelector struct {
	creds  *Credentials
	lookup func(string) string
}

func NewEnvKeySelector(creds *Credentials) *EnvKeySelector {
	return &EnvKeySelector{creds: creds, lookup: os.Getenv}
}

func (s *EnvKeySelector) SelectKey(_ context.Context) error {
	key := s.lookup("GEMINI_API_KEY")
	if key == "" {
		key = s.lookup("API_KEY")
	}
	if strings.TrimSpace(key) == "" {
		return model.ErrAPIKeyRequired
	}
	s.creds.Set(key)
	return nil
}
