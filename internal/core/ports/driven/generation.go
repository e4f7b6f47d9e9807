package driven

import "context"

// GenerationService produces free text from an assembled prompt.
//
// The service is treated as opaque: the answer assembler builds the
// full instruction (template + retrieved context + history + question)
// and receives text back. Grounding and citation discipline live in the
// prompt, not in the adapter.
//
// Implementations may include:
//   - Ollama (local models)
//   - Any OpenAI-compatible completion endpoint
type GenerationService interface {
	// Generate produces a text completion for the prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the generation model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64
}
