package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"connecthub/internal/service"
)

type fakeLiker struct {
	calls       atomic.Int32
	probability atomic.Value
	addFn       func(ctx context.Context) (*service.AmbientLike, error)
}

func (f *fakeLiker) AddAmbientLike(ctx context.Context, rnd service.AmbientPicker, probability float64) (*service.AmbientLike, error) {
	f.calls.Add(1)
	f.probability.Store(probability)
	if f.addFn != nil {
		return f.addFn(ctx)
	}
	return nil, nil
}

type fixedRand struct{}

func (fixedRand) Intn(int) int     { return 0 }
func (fixedRand) Float64() float64 { return 0 }

func TestAmbient_TicksUntilStopped(t *testing.T) {
	liker := &fakeLiker{addFn: func(context.Context) (*service.AmbientLike, error) {
		return &service.AmbientLike{UserID: "u1", PostID: "p1"}, nil
	}}
	a := NewAmbient(liker, AmbientConfig{Interval: 5 * time.Millisecond, Probability: 0.25, Rand: fixedRand{}})

	a.Start(context.Background())
	require.Eventually(t, func() bool { return liker.calls.Load() >= 3 }, time.Second, time.Millisecond)
	a.Stop()

	after := liker.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, liker.calls.Load(), "no tick may run after Stop returns")
	assert.Equal(t, 0.25, liker.probability.Load())
}

func TestAmbient_StopsWithParentContext(t *testing.T) {
	liker := &fakeLiker{}
	a := NewAmbient(liker, AmbientConfig{Interval: 5 * time.Millisecond, Rand: fixedRand{}})

	ctx, cancel := context.WithCancel(context.Background())
	a.Start(ctx)
	require.Eventually(t, func() bool { return liker.calls.Load() >= 1 }, time.Second, time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		a.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after the parent context was cancelled")
	}
}

func TestAmbient_StartTwiceAndStopIdle(t *testing.T) {
	a := NewAmbient(&fakeLiker{}, AmbientConfig{Interval: time.Hour})
	a.Stop()

	a.Start(context.Background())
	a.Start(context.Background())
	a.Stop()
	a.Stop()
}

func TestNewAmbient_Defaults(t *testing.T) {
	a := NewAmbient(&fakeLiker{}, AmbientConfig{Probability: 2})
	assert.Equal(t, DefaultInterval, a.interval)
	assert.Equal(t, DefaultProbability, a.probability)
	assert.NotNil(t, a.rnd)
}
