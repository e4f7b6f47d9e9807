package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kroniek-labs/kroniek-cli/internal/core/domain"
	"github.com/kroniek-labs/kroniek-cli/internal/core/ports/driven"
)

// Ensure Retrying implements the interface.
var _ driven.EmbeddingService = (*Retrying)(nil)

// Default retry values.
const (
	DefaultMaxAttempts  = 3
	DefaultInitialDelay = 500 * time.Millisecond
)

// Retrying retries failed embedding calls with exponential backoff.
// Only retryable failures (service unavailable, timeout) are retried;
// a format error means the same input will fail again, so it is
// returned immediately.
type Retrying struct {
	inner        driven.EmbeddingService
	maxAttempts  int
	initialDelay time.Duration
}

// RetryConfig holds retry parameters.
type RetryConfig struct {
	// MaxAttempts is the total number of tries including the first (default: 3).
	MaxAttempts int

	// InitialDelay is the backoff before the first retry; it doubles
	// per attempt (default: 500ms).
	InitialDelay time.Duration
}

// NewRetrying wraps an embedding service with retry behaviour.
func NewRetrying(inner driven.EmbeddingService, cfg RetryConfig) *Retrying {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = DefaultInitialDelay
	}

	return &Retrying{
		inner:        inner,
		maxAttempts:  cfg.MaxAttempts,
		initialDelay: cfg.InitialDelay,
	}
}

// Embed generates a vector embedding for the given text.
func (r *Retrying) Embed(ctx context.Context, text string) ([]float32, error) {
	var embedding []float32
	err := r.do(ctx, func() error {
		var embedErr error
		embedding, embedErr = r.inner.Embed(ctx, text)
		return embedErr
	})
	return embedding, err
}

// EmbedBatch generates embeddings for multiple texts.
func (r *Retrying) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var embeddings [][]float32
	err := r.do(ctx, func() error {
		var embedErr error
		embeddings, embedErr = r.inner.EmbedBatch(ctx, texts)
		return embedErr
	})
	return embeddings, err
}

// Dimensions returns the embedding vector size.
func (r *Retrying) Dimensions() int {
	return r.inner.Dimensions()
}

// ModelName returns the name of the embedding model being used.
func (r *Retrying) ModelName() string {
	return r.inner.ModelName()
}

// Ping validates the underlying service is reachable. Pings are not
// retried; the caller wants the current state, not eventual success.
func (r *Retrying) Ping(ctx context.Context) error {
	return r.inner.Ping(ctx)
}

// Close releases resources.
func (r *Retrying) Close() error {
	return r.inner.Close()
}

func (r *Retrying) do(ctx context.Context, call func() error) error {
	delay := r.initialDelay

	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		lastErr = call()
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
		if attempt == r.maxAttempts {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}
	return fmt.Errorf("after %d attempts: %w", r.maxAttempts, lastErr)
}

// retryable reports whether the call may succeed if repeated with the
// same input.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, domain.ErrEmbeddingUnavailable) ||
		errors.Is(err, domain.ErrEmbeddingTimeout)
}
