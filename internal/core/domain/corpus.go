package domain

import (
	"strconv"
	"time"
)

// ProcessingStatus tracks the lifecycle of a corpus.
type ProcessingStatus string

// Corpus lifecycle states.
const (
	// StatusPending means the corpus exists but processing has not started.
	StatusPending ProcessingStatus = "pending"

	// StatusProcessing means chunking/embedding/indexing is in flight.
	StatusProcessing ProcessingStatus = "processing"

	// StatusReady means the corpus is fully indexed and queryable.
	StatusReady ProcessingStatus = "ready"

	// StatusFailed means processing failed or was cancelled.
	// ErrorDetail holds the reason. No chunks are visible to queries.
	StatusFailed ProcessingStatus = "failed"
)

// Queryable reports whether retrieval queries may run against a corpus
// in this state. Only fully indexed corpora are queryable - a partial
// index would silently omit late chunks.
func (s ProcessingStatus) Queryable() bool {
	return s == StatusReady
}

// Corpus is a named collection of source text designated for retrieval.
//
// The embedding model identifier is immutable once any chunk has been
// indexed: vector spaces from different models are not comparable, so
// every chunk and every query against a corpus must use the same model.
type Corpus struct {
	// ID is the unique identifier for the corpus.
	ID string

	// Name is the human-readable display name.
	Name string

	// Description explains what source material the corpus holds.
	Description string

	// Source is the provenance reference of the submitted document.
	Source string

	// RawText is the submitted document text, retained so the corpus
	// can be reprocessed with different parameters.
	RawText string

	// EmbeddingModel identifies the model used for all chunk and
	// query vectors of this corpus.
	EmbeddingModel string

	// ChunkSize is the maximum chunk length in characters.
	ChunkSize int

	// ChunkOverlap is the character overlap between adjacent chunks.
	ChunkOverlap int

	// QueryChunkLimit is the default maximum number of fused results
	// returned per retrieval round.
	QueryChunkLimit int

	// Status is the processing lifecycle state.
	Status ProcessingStatus

	// ErrorDetail holds the failure reason when Status is failed.
	ErrorDetail string

	// CreatedAt is when the corpus was submitted.
	CreatedAt time.Time

	// UpdatedAt is when the corpus last changed state.
	UpdatedAt time.Time
}

// Chunk is the retrievable unit of source text. A chunk belongs to
// exactly one corpus and is identified by (CorpusID, Seq).
//
// Seq values are dense and ordered within a corpus so that document
// order can be reconstructed for citations and surrounding context.
// Chunks are immutable after creation; reprocessing replaces the whole
// set atomically.
type Chunk struct {
	// CorpusID links to the owning Corpus.
	CorpusID string

	// Seq is the position within the corpus, starting at 1.
	Seq int

	// Text is the chunk content.
	Text string

	// Embedding is the vector representation. Its length equals the
	// corpus embedding model's output dimensionality.
	Embedding []float32

	// Source is the provenance reference of the originating document.
	Source string

	// Page is the page number within Source, when known (0 otherwise).
	Page int

	// PhoneticCodes are the precomputed codes for name-like tokens
	// in Text, used by the phonetic retrieval signal.
	PhoneticCodes []string
}

// Provenance returns the human-readable citation marker for a chunk,
// in "source:page" form when a page is known.
func (c Chunk) Provenance() string {
	if c.Page > 0 {
		return c.Source + ":" + strconv.Itoa(c.Page)
	}
	return c.Source
}
