package embedding

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingService tracks the peak number of in-flight calls.
type countingService struct {
	fakeService
	inFlight atomic.Int32
	peak     atomic.Int32
	hold     time.Duration
}

func (c *countingService) Embed(ctx context.Context, text string) ([]float32, error) {
	current := c.inFlight.Add(1)
	for {
		peak := c.peak.Load()
		if current <= peak || c.peak.CompareAndSwap(peak, current) {
			break
		}
	}
	if c.hold > 0 {
		time.Sleep(c.hold)
	}
	c.inFlight.Add(-1)
	return []float32{0.1, 0.2}, nil
}

func TestThrottled_PassesThrough(t *testing.T) {
	inner := &fakeService{}
	svc := NewThrottled(inner, ThrottleConfig{RequestsPerSecond: 1000, MaxConcurrent: 4})

	embedding, err := svc.Embed(context.Background(), "some text")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2}, embedding)

	embeddings, err := svc.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, embeddings, 2)
}

func TestThrottled_CapsConcurrency(t *testing.T) {
	inner := &countingService{hold: 10 * time.Millisecond}
	svc := NewThrottled(inner, ThrottleConfig{RequestsPerSecond: 1000, MaxConcurrent: 2})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Embed(context.Background(), "some text")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, inner.peak.Load(), int32(2))
}

func TestThrottled_HonoursContextCancellation(t *testing.T) {
	inner := &fakeService{}
	// A near-zero rate forces the limiter to block.
	svc := NewThrottled(inner, ThrottleConfig{RequestsPerSecond: 0.0001, MaxConcurrent: 1})

	// Drain the initial burst allowance.
	_, err := svc.Embed(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = svc.Embed(ctx, "second")
	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestThrottled_AppliesDefaults(t *testing.T) {
	svc := NewThrottled(&fakeService{}, ThrottleConfig{})

	assert.Equal(t, DefaultMaxConcurrent, cap(svc.sem))
	assert.Equal(t, float64(DefaultRequestsPerSecond), float64(svc.limiter.Limit()))
}

func TestThrottled_DelegatesMetadata(t *testing.T) {
	inner := &fakeService{dimension: 1536}
	svc := NewThrottled(inner, ThrottleConfig{})

	assert.Equal(t, 1536, svc.Dimensions())
	assert.Equal(t, "fake-embed", svc.ModelName())
	assert.NoError(t, svc.Ping(context.Background()))
	assert.NoError(t, svc.Close())
	assert.True(t, inner.closed)
}
