package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"SERVER_PORT", "SESSION_KEY", "STORAGE_DRIVER", "AMBIENT_INTERVAL",
		"AMBIENT_PROBABILITY", "AI_VIDEO_MAX_POLLS", "GEMINI_API_KEY", "API_KEY", "CORS_ORIGINS", "HTTP_WRITE_TIMEOUT", "MEDIA_MEMORY_MAX_MB"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "connecthub_user", cfg.SessionKey)
	assert.Equal(t, "file", cfg.StorageDriver)
	assert.Equal(t, 10*time.Second, cfg.AmbientInterval)
	assert.InDelta(t, 0.1, cfg.AmbientProbability, 1e-9)
	assert.Equal(t, 60, cfg.AIVideoMaxPolls)
	assert.Zero(t, cfg.WriteTimeout)
	assert.Equal(t, int64(512<<20), cfg.MediaMemoryMaxBytes)
	assert.Equal(t, "gemini-2.5-flash", cfg.AITextModel)
	assert.Empty(t, cfg.GeminiAPIKey)
	assert.Len(t, cfg.CORSOrigins, 2)
	assert.False(t, cfg.UseR2())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("AMBIENT_ENABLED", "false")
	t.Setenv("AMBIENT_INTERVAL", "250ms")
	t.Setenv("AI_VIDEO_POLL_INTERVAL", "not-a-duration")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "fallback-key")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("MEDIA_BASE_URL", "https://cdn.example/media/")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.ServerPort)
	assert.False(t, cfg.AmbientEnabled)
	assert.Equal(t, 250*time.Millisecond, cfg.AmbientInterval)
	assert.Equal(t, 5*time.Second, cfg.AIVideoPollInterval)
	assert.Equal(t, "fallback-key", cfg.GeminiAPIKey)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, "https://cdn.example/media", cfg.MediaBaseURL)
}
