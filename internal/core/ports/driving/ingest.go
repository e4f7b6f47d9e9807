package driving

import (
	"context"

	"github.com/kroniek-labs/kroniek-cli/internal/core/domain"
)

// SubmitRequest describes a body of source text to chunk, embed and index.
type SubmitRequest struct {
	// Name is the corpus display name.
	Name string

	// Description explains the source material.
	Description string

	// Text is the raw document text. Form-feed characters (\f) mark
	// page boundaries for provenance tracking.
	Text string

	// Source is the provenance reference of the originating document.
	Source string

	// EmbeddingModel selects the embedding model for this corpus.
	// Empty selects the configured default. Immutable afterwards.
	EmbeddingModel string

	// ChunkSize and ChunkOverlap override the corpus defaults when
	// positive.
	ChunkSize    int
	ChunkOverlap int
}

// CorpusStatus is the observable processing state of a corpus.
type CorpusStatus struct {
	// Status is the lifecycle state.
	Status domain.ProcessingStatus

	// ChunkCount is the number of indexed chunks (0 unless ready).
	ChunkCount int

	// EmbeddingModel is the corpus's immutable embedding model.
	EmbeddingModel string

	// ErrorDetail holds the failure reason when Status is failed.
	ErrorDetail string
}

// IngestService accepts source text and runs corpus processing
// (chunk, embed, index) as a background, cancellable unit of work.
type IngestService interface {
	// SubmitCorpus registers a corpus and starts processing in the
	// background. It returns the new corpus ID immediately; the final
	// state is observed via Status.
	SubmitCorpus(ctx context.Context, req SubmitRequest) (string, error)

	// Reprocess re-runs chunking/embedding/indexing for an existing
	// corpus. The new chunk set replaces the old one atomically.
	Reprocess(ctx context.Context, corpusID string) error

	// Status reports the processing state of a corpus.
	Status(ctx context.Context, corpusID string) (*CorpusStatus, error)

	// Cancel aborts in-flight processing. The corpus is left failed
	// with no partially indexed chunks visible to queries. Cancelling
	// a corpus that is not processing is a no-op.
	Cancel(ctx context.Context, corpusID string) error

	// Wait blocks until the corpus's current processing run finishes.
	// Returns immediately when nothing is running.
	Wait(corpusID string)
}
