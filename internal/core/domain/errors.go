package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCorpusNotReady indicates a query was attempted against a
	// corpus that is not in the ready state. This is a user-actionable
	// condition, not a system fault - the corpus is still processing
	// or its processing failed.
	ErrCorpusNotReady = errors.New("corpus not ready")

	// ErrProcessingInProgress indicates corpus processing is already running.
	ErrProcessingInProgress = errors.New("processing in progress")

	// ErrModelImmutable indicates an attempt to change the embedding
	// model of a corpus that already has indexed chunks. Vector spaces
	// from different models are not comparable.
	ErrModelImmutable = errors.New("embedding model is immutable once chunks are indexed")

	// ErrModelMismatch indicates the configured embedding service does
	// not serve the corpus's embedding model. Embedding chunks or
	// queries with a different model would produce vectors in an
	// incomparable space, so the operation is rejected instead.
	ErrModelMismatch = errors.New("embedding model mismatch")

	// Embedding service errors. The first two are retryable with the
	// same input; a format error is not.

	// ErrEmbeddingUnavailable indicates the embedding service is unreachable.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrEmbeddingTimeout indicates an embedding request exceeded its deadline.
	ErrEmbeddingTimeout = errors.New("embedding request timed out")

	// ErrEmbeddingFormat indicates the embedding service returned a
	// malformed or empty response. Retrying the same input will not help.
	ErrEmbeddingFormat = errors.New("embedding response malformed")

	// ErrGenerationUnavailable indicates the text-generation service
	// is unreachable or not configured.
	ErrGenerationUnavailable = errors.New("generation service unavailable")
)

// SignalError reports the failure of a single retrieval signal.
//
// For every signal except vector, the hybrid ranker recovers locally:
// fusion proceeds with the remaining lists and the failed signal is
// reported as degraded. A vector failure aborts the whole query, since
// semantic similarity is the primary signal and lexical-only results
// would be silently weaker.
type SignalError struct {
	Signal Signal
	Err    error
}

// Error implements the error interface.
func (e *SignalError) Error() string {
	return fmt.Sprintf("%s signal: %v", e.Signal, e.Err)
}

// Unwrap returns the underlying error.
func (e *SignalError) Unwrap() error {
	return e.Err
}
