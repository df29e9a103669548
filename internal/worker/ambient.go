// Package worker runs the ambient activity loop that makes the feed feel live.
package worker

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"connecthub/internal/service"
)

const (
	// DefaultInterval is the time between ambient ticks.
	DefaultInterval = 10 * time.Second

	// DefaultProbability is the chance that a tick adds a like.
	DefaultProbability = 0.1
)

// Liker applies one ambient tick to the store.
type Liker interface {
	AddAmbientLike(ctx context.Context, rnd service.AmbientPicker, probability float64) (*service.AmbientLike, error)
}

// AmbientConfig holds configuration for the ambient loop.
type AmbientConfig struct {
	Interval    time.Duration
	Probability float64
	// Rand is only used from the loop goroutine. Nil means a time-seeded source.
	Rand service.AmbientPicker
}

// Ambient periodically adds a like from a random user to a random post.
type Ambient struct {
	liker       Liker
	interval    time.Duration
	probability float64
	rnd         service.AmbientPicker

	mu      sync.Mutex
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	running bool
}

// NewAmbient creates a stopped ambient loop.
func NewAmbient(liker Liker, cfg AmbientConfig) *Ambient {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Probability < 0 || cfg.Probability > 1 {
		cfg.Probability = DefaultProbability
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Ambient{
		liker:       liker,
		interval:    cfg.Interval,
		probability: cfg.Probability,
		rnd:         cfg.Rand,
	}
}

// Start begins ticking. Starting a running loop is a no-op.
// Call Stop() to shut down.
func (a *Ambient) Start(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.running = true

	a.wg.Add(1)
	go a.run(loopCtx)

	log.Info().
		Str("component", "Ambient").
		Dur("interval", a.interval).
		Float64("probability", a.probability).
		Msg("Ambient activity started")
}

// Stop cancels the loop and blocks until it has exited, so no tick runs afterwards.
func (a *Ambient) Stop() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	a.cancel()
	a.running = false
	a.mu.Unlock()

	a.wg.Wait()
	log.Info().Str("component", "Ambient").Msg("Ambient activity stopped")
}

func (a *Ambient) run(ctx context.Context) {
	defer a.wg.Done()

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.tick(ctx)
		}
	}
}

func (a *Ambient) tick(ctx context.Context) {
	like, err := a.liker.AddAmbientLike(ctx, a.rnd, a.probability)
	if err != nil {
		if ctx.Err() == nil {
			log.Error().Err(err).Str("component", "Ambient").Msg("Ambient tick failed")
		}
		return
	}
	if like != nil {
		log.Debug().
			Str("component", "Ambient").
			Str("user_id", like.UserID).
			Str("post_id", like.PostID).
			Msg("Ambient like added")
	}
}
