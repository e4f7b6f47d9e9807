// Package embedding provides decorators shared by all embedding
// service adapters: request throttling and retry with backoff.
package embedding

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/kroniek-labs/kroniek-cli/internal/core/ports/driven"
)

// Ensure Throttled implements the interface.
var _ driven.EmbeddingService = (*Throttled)(nil)

// Default throttling values, sized for a local Ollama instance.
const (
	DefaultRequestsPerSecond = 10
	DefaultMaxConcurrent     = 4
)

// Throttled rate-limits calls to an embedding service and caps the
// number of in-flight requests. Ingestion fans out embedding work
// across a pool, so without a cap a large corpus can flood the
// backend.
type Throttled struct {
	inner   driven.EmbeddingService
	limiter *rate.Limiter
	sem     chan struct{}
}

// ThrottleConfig holds throttling parameters.
type ThrottleConfig struct {
	// RequestsPerSecond is the sustained request rate (default: 10).
	RequestsPerSecond float64

	// MaxConcurrent caps in-flight requests (default: 4).
	MaxConcurrent int
}

// NewThrottled wraps an embedding service with rate limiting.
func NewThrottled(inner driven.EmbeddingService, cfg ThrottleConfig) *Throttled {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}

	return &Throttled{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.MaxConcurrent),
		sem:     make(chan struct{}, cfg.MaxConcurrent),
	}
}

// Embed generates a vector embedding for the given text.
func (t *Throttled) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := t.acquire(ctx); err != nil {
		return nil, err
	}
	defer t.release()
	return t.inner.Embed(ctx, text)
}

// EmbedBatch generates embeddings for multiple texts. A batch counts
// as a single request against the limiter since the backend sees one
// call.
func (t *Throttled) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := t.acquire(ctx); err != nil {
		return nil, err
	}
	defer t.release()
	return t.inner.EmbedBatch(ctx, texts)
}

// Dimensions returns the embedding vector size.
func (t *Throttled) Dimensions() int {
	return t.inner.Dimensions()
}

// ModelName returns the name of the embedding model being used.
func (t *Throttled) ModelName() string {
	return t.inner.ModelName()
}

// Ping validates the underlying service is reachable. Pings bypass
// the limiter so health checks stay responsive under load.
func (t *Throttled) Ping(ctx context.Context) error {
	return t.inner.Ping(ctx)
}

// Close releases resources.
func (t *Throttled) Close() error {
	return t.inner.Close()
}

func (t *Throttled) acquire(ctx context.Context) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for rate limiter: %w", err)
	}
	select {
	case t.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Throttled) release() {
	<-t.sem
}
