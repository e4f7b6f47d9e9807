package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/kroniek-labs/kroniek-cli/internal/core/domain"
	"github.com/kroniek-labs/kroniek-cli/internal/core/ports/driven"
)

// mockEmbedder is a deterministic embedding service. Texts sharing a
// word overlap get similar vectors, which is enough for ranking tests.
type mockEmbedder struct {
	model     string
	dims      int
	embedErr  error
	callCount atomic.Int64
}

func newMockEmbedder() *mockEmbedder {
	return &mockEmbedder{model: "mock-embed", dims: 8}
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.callCount.Add(1)
	if m.embedErr != nil {
		return nil, m.embedErr
	}

	// Character histogram folded into a fixed number of buckets.
	vec := make([]float32, m.dims)
	for _, r := range text {
		vec[int(r)%m.dims]++
	}
	return vec, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int { return m.dims }

func (m *mockEmbedder) ModelName() string { return m.model }

func (m *mockEmbedder) Ping(_ context.Context) error { return nil }

func (m *mockEmbedder) Close() error { return nil }

var _ driven.EmbeddingService = (*mockEmbedder)(nil)

// mockGenerator returns a canned answer and records prompts.
type mockGenerator struct {
	mu          sync.Mutex
	answer      string
	generateErr error
	prompts     []string
}

func newMockGenerator(answer string) *mockGenerator {
	return &mockGenerator{answer: answer}
}

func (m *mockGenerator) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generateErr != nil {
		return "", m.generateErr
	}
	m.prompts = append(m.prompts, prompt)
	return m.answer, nil
}

func (m *mockGenerator) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

func (m *mockGenerator) ModelName() string { return "mock-llm" }

func (m *mockGenerator) Ping(_ context.Context) error { return nil }

func (m *mockGenerator) Close() error { return nil }

var _ driven.GenerationService = (*mockGenerator)(nil)

// mockPromptStore serves the well-known prompts from fixed templates.
type mockPromptStore struct{}

func (mockPromptStore) Load(name string) (string, error) {
	switch name {
	case driven.PromptAnswer:
		return "Excerpts:\n%s\n\nQuestion: %s", nil
	case driven.PromptAnswerNoContext:
		return "No sources found.\n\nQuestion: %s", nil
	case driven.PromptHistoryHeader:
		return "Earlier in this conversation:", nil
	default:
		return "", fmt.Errorf("unknown prompt %q", name)
	}
}

func (mockPromptStore) Reload() {}

var _ driven.PromptStore = (*mockPromptStore)(nil)

// mockIndex is a scripted signal index that counts lookups.
type mockIndex struct {
	hits      []driven.IndexHit
	err       error
	callCount atomic.Int64
}

func (m *mockIndex) search() ([]driven.IndexHit, error) {
	m.callCount.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return m.hits, nil
}

func (m *mockIndex) Search(_ context.Context, _ string, _ []float32, _ int) ([]driven.IndexHit, error) {
	return m.search()
}

// mockTextIndex adapts mockIndex to the string-query index ports.
type mockTextIndex struct{ mockIndex }

func (m *mockTextIndex) Search(_ context.Context, _, _ string, _ int) ([]driven.IndexHit, error) {
	return m.search()
}

// mockPhoneticIndex adapts mockIndex to the phonetic index port.
type mockPhoneticIndex struct{ mockIndex }

func (m *mockPhoneticIndex) Search(_ context.Context, _ string, _ []string, _ int) ([]driven.IndexHit, error) {
	return m.search()
}

var (
	_ driven.VectorIndex   = (*mockIndex)(nil)
	_ driven.LexicalIndex  = (*mockTextIndex)(nil)
	_ driven.FuzzyIndex    = (*mockTextIndex)(nil)
	_ driven.PhoneticIndex = (*mockPhoneticIndex)(nil)
)

// readyCorpus saves a ready corpus into a store for retrieval tests.
func readyCorpus(id string) *domain.Corpus {
	return &domain.Corpus{
		ID:              id,
		Name:            "Parish register " + id,
		EmbeddingModel:  "mock-embed",
		ChunkSize:       1500,
		ChunkOverlap:    200,
		QueryChunkLimit: 20,
		Status:          domain.StatusReady,
	}
}
