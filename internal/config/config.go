package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	ServerPort  string
	LogLevel    string
	LogFormat   string
	CORSOrigins []string
	SeedFile    string

	// WriteTimeout bounds a whole request. Zero derives it from the video poll budget.
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	SessionKey     string
	SessionSecret  string
	SessionLatency time.Duration

	// Storage backend for the session key: file, redis, postgres or memory
	StorageDriver string
	StoragePath   string
	RedisURL      string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	AmbientEnabled     bool
	AmbientInterval    time.Duration
	AmbientProbability float64

	GeminiAPIKey           string
	AITextModel            string
	AIVideoModel           string
	AIVideoPollInterval    time.Duration
	AIVideoPollMaxInterval time.Duration
	AIVideoMaxPolls        int
	AIRateLimit            float64
	AIRateBurst            int
	AIBreakerFailureRatio  float64
	AIBreakerMinRequests   uint32
	AIBreakerOpenTimeout   time.Duration

	MediaBaseURL string
	// MediaMemoryMaxBytes caps the in-memory media store; 0 is unbounded.
	MediaMemoryMaxBytes int64

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string
}

// UseR2 reports whether every R2 setting is present.
func (c *Config) UseR2() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicURL != ""
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Debug().Msg("No .env file found or error loading it, relying on environment variables")
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("API_KEY")
	}

	return &Config{
		ServerPort:  envString("SERVER_PORT", "8080"),
		LogLevel:    envString("LOG_LEVEL", "info"),
		LogFormat:   envString("LOG_FORMAT", "json"),
		CORSOrigins: envList("CORS_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
		SeedFile:    os.Getenv("SEED_FILE"),

		WriteTimeout:    envDuration("HTTP_WRITE_TIMEOUT", 0),
		ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 15*time.Second),

		SessionKey:     envString("SESSION_KEY", "connecthub_user"),
		SessionSecret:  envString("SESSION_SECRET", "connecthub-dev-secret"),
		SessionLatency: envDuration("SESSION_LATENCY", 500*time.Millisecond),

		StorageDriver: envString("STORAGE_DRIVER", "file"),
		StoragePath:   envString("STORAGE_PATH", ".connecthub/storage.json"),
		RedisURL:      envString("REDIS_URL", "redis://localhost:6379"),

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     envString("DB_PORT", "5432"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBSSLMode:  envString("DB_SSLMODE", "require"),

		AmbientEnabled:     envBool("AMBIENT_ENABLED", true),
		AmbientInterval:    envDuration("AMBIENT_INTERVAL", 10*time.Second),
		AmbientProbability: envFloat("AMBIENT_PROBABILITY", 0.1),

		GeminiAPIKey:           apiKey,
		AITextModel:            envString("AI_TEXT_MODEL", "gemini-2.5-flash"),
		AIVideoModel:           envString("AI_VIDEO_MODEL", "veo-3.1-fast-generate-preview"),
		AIVideoPollInterval:    envDuration("AI_VIDEO_POLL_INTERVAL", 5*time.Second),
		AIVideoPollMaxInterval: envDuration("AI_VIDEO_POLL_MAX_INTERVAL", 30*time.Second),
		AIVideoMaxPolls:        envInt("AI_VIDEO_MAX_POLLS", 60),
		AIRateLimit:            envFloat("AI_RATE_LIMIT", 2),
		AIRateBurst:            envInt("AI_RATE_BURST", 4),
		AIBreakerFailureRatio:  envFloat("AI_BREAKER_FAILURE_RATIO", 0.6),
		AIBreakerMinRequests:   uint32(envInt("AI_BREAKER_MIN_REQUESTS", 5)),
		AIBreakerOpenTimeout:   envDuration("AI_BREAKER_OPEN_TIMEOUT", 30*time.Second),

		MediaBaseURL:        strings.TrimSuffix(envString("MEDIA_BASE_URL", "/media"), "/"),
		MediaMemoryMaxBytes: int64(envInt("MEDIA_MEMORY_MAX_MB", 512)) << 20,

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicURL:       os.Getenv("R2_PUBLIC_URL"),
	}, nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func envFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || v < 0 {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		log.Warn().Str("key", key).Str("value", raw).Msg("Invalid duration, using default")
		return def
	}
	return d
}

func envList(key string, def []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
