package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Every chunk of a corpus and every query issued against that corpus
// must be embedded with the same model; the Corpus invariant enforces
// this, adapters just report their model via ModelName.
//
// Requests must be idempotent (same input, same output) so retries are
// safe. Failures map onto the domain taxonomy:
//
//   - domain.ErrEmbeddingUnavailable: service unreachable (retryable)
//   - domain.ErrEmbeddingTimeout: request deadline exceeded (retryable)
//   - domain.ErrEmbeddingFormat: malformed/empty response (not retryable)
//
// Implementations may include:
//   - Ollama (nomic-embed-text, all-minilm)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	// This is more efficient than calling Embed in a loop for large batches.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 768, 1536).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
