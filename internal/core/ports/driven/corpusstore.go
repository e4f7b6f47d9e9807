package driven

import (
	"context"

	"github.com/kroniek-labs/kroniek-cli/internal/core/domain"
)

// CorpusStore persists corpus metadata.
// Backed by SQLite.
type CorpusStore interface {
	// Save stores a new corpus or updates an existing one.
	// The embedding model of a corpus with indexed chunks must not
	// change; implementations return domain.ErrModelImmutable.
	Save(ctx context.Context, corpus *domain.Corpus) error

	// Get retrieves a corpus by ID.
	Get(ctx context.Context, id string) (*domain.Corpus, error)

	// UpdateStatus transitions the processing status and records the
	// failure detail (empty when the transition is not a failure).
	UpdateStatus(ctx context.Context, id string, status domain.ProcessingStatus, errorDetail string) error

	// List returns all corpora, newest first.
	List(ctx context.Context) ([]domain.Corpus, error)

	// Delete removes a corpus and everything derived from it.
	Delete(ctx context.Context, id string) error
}

// ChunkStore persists chunks and their derived index entries.
//
// Chunk persistence is all-or-nothing per corpus-processing run: either
// the full new chunk set (with lexical, trigram and phonetic entries)
// becomes visible, or nothing changes. Queries never observe a mixture
// of old and new chunk sets.
type ChunkStore interface {
	// ReplaceChunks atomically replaces the corpus's entire chunk set.
	// Seq values must be dense starting at 1.
	ReplaceChunks(ctx context.Context, corpusID string, chunks []domain.Chunk) error

	// GetChunk retrieves one chunk by (corpus, seq).
	GetChunk(ctx context.Context, corpusID string, seq int) (*domain.Chunk, error)

	// GetChunks retrieves the named chunks, in the order requested.
	GetChunks(ctx context.Context, corpusID string, seqs []int) ([]domain.Chunk, error)

	// CountChunks returns the number of indexed chunks for a corpus.
	CountChunks(ctx context.Context, corpusID string) (int, error)
}
