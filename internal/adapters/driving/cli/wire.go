package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/kroniek-labs/kroniek-cli/internal/adapters/driven/config/file"
	"github.com/kroniek-labs/kroniek-cli/internal/adapters/driven/embedding"
	ollamaembed "github.com/kroniek-labs/kroniek-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/kroniek-labs/kroniek-cli/internal/adapters/driven/embedding/openai"
	ollamallm "github.com/kroniek-labs/kroniek-cli/internal/adapters/driven/llm/ollama"
	openaillm "github.com/kroniek-labs/kroniek-cli/internal/adapters/driven/llm/openai"
	"github.com/kroniek-labs/kroniek-cli/internal/adapters/driven/storage/sqlite"
	"github.com/kroniek-labs/kroniek-cli/internal/core/domain"
	"github.com/kroniek-labs/kroniek-cli/internal/core/ports/driven"
	"github.com/kroniek-labs/kroniek-cli/internal/core/services"
)

// Retriever is the slice of the retrieval service the CLI needs.
type Retriever interface {
	Retrieve(ctx context.Context, corpusID, query string, opts domain.RetrievalOptions) (*domain.RetrievalResult, error)
}

// PromptSource serves prompt templates and watches for edits.
type PromptSource interface {
	driven.PromptStore
	Watch(ctx context.Context) error
	Dir() string
}

// ensureServices wires the full dependency graph on first use. Tests
// inject their own services beforehand, which makes this a no-op.
func ensureServices() error {
	if askService != nil && ingestService != nil {
		return nil
	}

	cfg, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	configStore = cfg

	store, err := sqlite.NewStore(cfg.GetString("storage.data_dir"))
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}

	prompts, err := file.NewPromptStore(cfg.GetString("prompts.dir"))
	if err != nil {
		return fmt.Errorf("open prompt store: %w", err)
	}
	promptStore = prompts

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}
	generator, err := buildGenerator(cfg)
	if err != nil {
		return err
	}

	corpusStore = store.CorpusStore()
	chunkStore = store.ChunkStore()

	retrieval := services.NewRetrievalService(
		store.CorpusStore(),
		store.VectorIndex(),
		store.LexicalIndex(),
		store.FuzzyIndex(),
		store.PhoneticIndex(),
		embedder,
	)
	conversation := services.NewConversationService(store.SessionStore())

	retrievalService = retrieval
	ingestService = services.NewIngestService(
		store.CorpusStore(), store.ChunkStore(), embedder, cfg.GetInt("ingest.workers"),
	)
	askService = services.NewAskService(
		store.ChunkStore(), retrieval, conversation, generator, prompts,
	)
	return nil
}

// buildEmbedder constructs the configured embedding provider, wrapped
// with rate limiting and retries.
func buildEmbedder(cfg driven.ConfigStore) (driven.EmbeddingService, error) {
	var inner driven.EmbeddingService

	provider := cfg.GetString("embedding.provider")
	switch provider {
	case "", "ollama":
		inner = ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    cfg.GetString("embedding.base_url"),
			Model:      cfg.GetString("embedding.model"),
			Dimensions: cfg.GetInt("embedding.dimensions"),
		})
	case "openai":
		svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     cfg.GetString("embedding.api_key"),
			BaseURL:    cfg.GetString("embedding.base_url"),
			Model:      cfg.GetString("embedding.model"),
			Dimensions: cfg.GetInt("embedding.dimensions"),
		})
		if err != nil {
			return nil, fmt.Errorf("configure openai embeddings: %w", err)
		}
		inner = svc
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", provider)
	}

	throttled := embedding.NewThrottled(inner, embedding.ThrottleConfig{
		RequestsPerSecond: cfg.GetFloat("embedding.requests_per_second"),
		MaxConcurrent:     cfg.GetInt("embedding.max_concurrent"),
	})
	return embedding.NewRetrying(throttled, embedding.RetryConfig{
		MaxAttempts:  cfg.GetInt("embedding.max_attempts"),
		InitialDelay: time.Duration(cfg.GetInt("embedding.retry_delay_ms")) * time.Millisecond,
	}), nil
}

// buildGenerator constructs the configured generation provider.
func buildGenerator(cfg driven.ConfigStore) (driven.GenerationService, error) {
	provider := cfg.GetString("llm.provider")
	switch provider {
	case "", "ollama":
		return ollamallm.NewGenerationService(ollamallm.Config{
			BaseURL: cfg.GetString("llm.base_url"),
			Model:   cfg.GetString("llm.model"),
		}), nil
	case "openai":
		svc, err := openaillm.NewGenerationService(openaillm.Config{
			APIKey:  cfg.GetString("llm.api_key"),
			BaseURL: cfg.GetString("llm.base_url"),
			Model:   cfg.GetString("llm.model"),
		})
		if err != nil {
			return nil, fmt.Errorf("configure openai llm: %w", err)
		}
		return svc, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", provider)
	}
}
