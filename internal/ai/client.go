package ai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"connecthub/internal/media"
	"connecthub/internal/metrics"
	"connecthub/internal/model"
)

// Fallback texts returned when a call degrades.
const (
	SearchEmptyText = "I couldn't find any information on that."
	SearchErrorText = "Sorry, I encountered an error while searching."
)

const (
	polishPrompt  = `Rewrite the following social media post to be more engaging, professional yet friendly, and fix any grammar issues. Keep it concise. Return ONLY the rewritten text. Input: "%s"`
	captionPrompt = "Generate a short, engaging caption for this image for a social media post."

	captionMaxSide = 1024
	captionQuality = 85

	backoffFactor = 1.5
	jitterFactor  = 0.1
)

// Config holds model names and call policy.
type Config struct {
	TextModel  string
	VideoModel string

	PollInterval    time.Duration
	PollMaxInterval time.Duration
	MaxPolls        int

	RateLimit float64
	RateBurst int

	BreakerFailureRatio float64
	BreakerMinRequests  uint32
	BreakerOpenTimeout  time.Duration
}

// DefaultConfig returns the models and limits the wrapper was built around.
func DefaultConfig() Config {
	return Config{
		TextModel:           "gemini-2.5-flash",
		VideoModel:          "veo-3.1-fast-generate-preview",
		PollInterval:        5 * time.Second,
		PollMaxInterval:     30 * time.Second,
		MaxPolls:            60,
		RateLimit:           2,
		RateBurst:           4,
		BreakerFailureRatio: 0.6,
		BreakerMinRequests:  5,
		BreakerOpenTimeout:  30 * time.Second,
	}
}

// Client is the AI request wrapper. Text, caption and search calls never fail;
// video generation reports typed errors from model.
type Client struct {
	provider Provider
	creds    *Credentials
	media    media.Store
	metrics  *metrics.Collector
	cfg      Config

	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker

	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() float64
}

func NewClient(provider Provider, creds *Credentials, store media.Store, cfg Config, collector *metrics.Collector) *Client {
	def := DefaultConfig()
	if cfg.TextModel == "" {
		cfg.TextModel = def.TextModel
	}
	if cfg.VideoModel == "" {
		cfg.VideoModel = def.VideoModel
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.PollMaxInterval < cfg.PollInterval {
		cfg.PollMaxInterval = max(def.PollMaxInterval, cfg.PollInterval)
	}
	if cfg.MaxPolls <= 0 {
		cfg.MaxPolls = def.MaxPolls
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = def.RateBurst
	}
	if cfg.BreakerMinRequests == 0 {
		cfg.BreakerMinRequests = def.BreakerMinRequests
	}
	if cfg.BreakerFailureRatio <= 0 {
		cfg.BreakerFailureRatio = def.BreakerFailureRatio
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	c := &Client{
		provider: provider,
		creds:    creds,
		media:    store,
		metrics:  collector,
		cfg:      cfg,
		limiter:  rate.NewLimiter(limit, cfg.RateBurst),
		sleep:    sleepContext,
		jitter:   rand.Float64,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "ai-provider",
		Timeout: cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.BreakerMinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.BreakerFailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("component", "AI").Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
		},
		// Credential problems and cancellations say nothing about provider health.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, model.ErrAPIKeyInvalid) ||
				errors.Is(err, context.Canceled)
		},
	})
	return c
}

// Credentials exposes the replaceable key.
func (c *Client) Credentials() *Credentials {
	return c.creds
}

// call runs fn with the current key through the rate limiter and the circuit breaker.
func (c *Client) call(ctx context.Context, fn func(ctx context.Context, apiKey string) (any, error)) (any, error) {
	key, ok := c.creds.Key()
	if !ok {
		return nil, model.ErrAPIKeyRequired
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return c.breaker.Execute(func() (any, error) {
		return fn(ctx, key)
	})
}

// degradedLog logs a missing key at debug level since every call hits it until one is set.
func degradedLog(err error) *zerolog.Event {
	if errors.Is(err, model.ErrAPIKeyRequired) {
		return log.Debug().Err(err)
	}
	return log.Error().Err(err)
}

func (c *Client) record(op, outcome string, start time.Time) {
	c.metrics.RecordAICall(op, outcome, time.Since(start))
}

// PolishText rewrites a post. Any failure or empty answer returns text unchanged.
func (c *Client) PolishText(ctx context.Context, text string) string {
	start := time.Now()
	out, err := c.call(ctx, func(ctx context.Context, key string) (any, error) {
		return c.provider.GenerateText(ctx, key, fmt.Sprintf(polishPrompt, text))
	})
	if err != nil {
		degradedLog(err).Str("component", "AI").Str("op", "polish").Msg("Polish failed, returning input")
		c.record("polish", "degraded", start)
		return text
	}

	polished := strings.TrimSpace(out.(string))
	if polished == "" {
		c.record("polish", "degraded", start)
		return text
	}
	c.record("polish", "ok", start)
	return polished
}

// DescribeImage suggests a caption for an image. Any failure returns "".
func (c *Client) DescribeImage(ctx context.Context, image []byte) string {
	start := time.Now()
	jpeg, err := media.ToJPEG(image, captionMaxSide, captionQuality)
	if err != nil {
		log.Warn().Err(err).Str("component", "AI").Str("op", "caption").Msg("Unreadable image")
		c.record("caption", "degraded", start)
		return ""
	}

	out, err := c.call(ctx, func(ctx context.Context, key string) (any, error) {
		return c.provider.DescribeImage(ctx, key, jpeg, model.ContentTypeJPEG, captionPrompt)
	})
	if err != nil {
		degradedLog(err).Str("component", "AI").Str("op", "caption").Msg("Caption failed")
		c.record("caption", "degraded", start)
		return ""
	}
	c.record("caption", "ok", start)
	return strings.TrimSpace(out.(string))
}

// AnswerWithSearch answers a question with web-grounded sources. It never fails.
func (c *Client) AnswerWithSearch(ctx context.Context, query string) model.SearchAnswer {
	start := time.Now()
	out, err := c.call(ctx, func(ctx context.Context, key string) (any, error) {
		return c.provider.SearchGrounded(ctx, key, query)
	})
	if err != nil {
		degradedLog(err).Str("component", "AI").Str("op", "search").Msg("Search failed")
		c.record("search", "degraded", start)
		return model.SearchAnswer{Text: SearchErrorText, Sources: []model.Source{}}
	}

	answer := out.(*model.SearchAnswer)
	resp := model.SearchAnswer{Text: answer.Text, Sources: answer.Sources}
	if resp.Sources == nil {
		resp.Sources = []model.Source{}
	}
	if strings.TrimSpace(resp.Text) == "" {
		resp.Text = SearchEmptyText
	}
	c.record("search", "ok", start)
	return resp
}

// GenerateVideo submits a job, polls it with capped backoff, downloads the result and
// stores it. It fails with model.ErrAPIKeyRequired before any request when no key is set.
func (c *Client) GenerateVideo(ctx context.Context, prompt string, image []byte) (*model.VideoHandle, error) {
	start := time.Now()
	handle, err := c.generateVideo(ctx, prompt, image)
	if err != nil {
		c.record("video", "error", start)
		return nil, err
	}
	c.record("video", "ok", start)
	return handle, nil
}

func (c *Client) generateVideo(ctx context.Context, prompt string, image []byte) (*model.VideoHandle, error) {
	if _, ok := c.creds.Key(); !ok {
		return nil, model.ErrAPIKeyRequired
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" && len(image) == 0 {
		return nil, model.ErrEmptyPrompt
	}

	req := VideoRequest{
		Prompt:         prompt,
		NumberOfVideos: 1,
		Resolution:     "720p",
		AspectRatio:    "16:9",
	}
	if len(image) > 0 {
		jpeg, err := media.ToJPEG(image, captionMaxSide, captionQuality)
		if err != nil {
			return nil, fmt.Errorf("prepare image: %w", err)
		}
		req.Image = jpeg
		req.ImageMIMEType = model.ContentTypeJPEG
	}

	out, err := c.call(ctx, func(ctx context.Context, key string) (any, error) {
		return c.provider.SubmitVideo(ctx, key, req)
	})
	if err != nil {
		return nil, wrapProviderError("submit video", err)
	}
	job := out.(*VideoJob)
	log.Info().Str("component", "AI").Str("job", job.Name).Msg("Video job submitted")

	for attempt := 0; !job.Done; attempt++ {
		if attempt >= c.cfg.MaxPolls {
			log.Warn().Str("component", "AI").Str("job", job.Name).Int("polls", attempt).Msg("Video job timed out")
			return nil, model.ErrVideoTimeout
		}
		if err := c.sleep(ctx, c.pollDelay(attempt)); err != nil {
			return nil, err
		}

		out, err := c.call(ctx, func(ctx context.Context, key string) (any, error) {
			return c.provider.PollVideo(ctx, key, job)
		})
		c.metrics.RecordVideoPoll()
		if err != nil {
			return nil, wrapProviderError("poll video", err)
		}
		job = out.(*VideoJob)
	}

	if job.URI == "" {
		if job.Failure != "" {
			return nil, fmt.Errorf("%w: %s", model.ErrVideoFailed, job.Failure)
		}
		return nil, model.ErrVideoFailed
	}

	type download struct {
		data        []byte
		contentType string
	}
	out, err = c.call(ctx, func(ctx context.Context, key string) (any, error) {
		data, contentType, err := c.provider.Download(ctx, key, job.URI)
		return download{data: data, contentType: contentType}, err
	})
	if err != nil {
		return nil, wrapProviderError("download video", err)
	}
	dl := out.(download)
	if dl.contentType == "" || !strings.HasPrefix(dl.contentType, "video/") {
		dl.contentType = model.ContentTypeMP4
	}

	obj, err := c.media.Put(ctx, media.NewKey(media.VideoFolder, media.VideoExt), dl.contentType, dl.data)
	if err != nil {
		return nil, fmt.Errorf("store video: %w", err)
	}
	log.Info().Str("component", "AI").Str("job", job.Name).Str("key", obj.Key).Int("size", obj.Size).Msg("Video stored")

	return &model.VideoHandle{
		Key:         obj.Key,
		URL:         obj.URL,
		ContentType: obj.ContentType,
		Size:        obj.Size,
	}, nil
}

// pollDelay grows the poll interval by backoffFactor per attempt, caps it and adds jitter.
func (c *Client) pollDelay(attempt int) time.Duration {
	backoff := float64(c.cfg.PollInterval) * math.Pow(backoffFactor, float64(attempt))
	if backoff > float64(c.cfg.PollMaxInterval) {
		backoff = float64(c.cfg.PollMaxInterval)
	}
	jitter := backoff * jitterFactor * (c.jitter() - 0.5) * 2
	return time.Duration(backoff + jitter)
}

// VideoBudget is the longest GenerateVideo can spend sleeping between polls, with
// maximum jitter on every attempt. Request calls and the download come on top.
func (c *Client) VideoBudget() time.Duration {
	var total time.Duration
	for attempt := 0; attempt < c.cfg.MaxPolls; attempt++ {
		backoff := float64(c.cfg.PollInterval) * math.Pow(backoffFactor, float64(attempt))
		if backoff > float64(c.cfg.PollMaxInterval) {
			backoff = float64(c.cfg.PollMaxInterval)
		}
		total += time.Duration(backoff * (1 + jitterFactor))
	}
	return total
}

// wrapProviderError keeps credential errors matchable and wraps the rest.
func wrapProviderError(op string, err error) error {
	switch {
	case errors.Is(err, model.ErrAPIKeyRequired), errors.Is(err, model.ErrAPIKeyInvalid):
		return err
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return fmt.Errorf("%s: provider unavailable: %w", op, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
