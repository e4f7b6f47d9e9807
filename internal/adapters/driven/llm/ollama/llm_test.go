package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kroniek-labs/kroniek-cli/internal/core/domain"
	"github.com/kroniek-labs/kroniek-cli/internal/core/ports/driven"
)

func TestNewGenerationService_AppliesDefaults(t *testing.T) {
	svc := NewGenerationService(Config{})
	assert.Equal(t, DefaultModel, svc.ModelName())
}

func TestGenerate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.2", req.Model)
		assert.False(t, req.Stream)
		assert.Contains(t, req.Prompt, "When was Willem baptised?")

		json.NewEncoder(w).Encode(generateResponse{Response: "In 1652.", Done: true}) //nolint:errcheck
	}))
	defer server.Close()

	svc := NewGenerationService(Config{BaseURL: server.URL})

	answer, err := svc.Generate(context.Background(), "When was Willem baptised?", driven.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "In 1652.", answer)
}

func TestGenerate_PassesOptions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.Options)
		assert.Equal(t, 512, req.Options.NumPredict)
		assert.Equal(t, 0.2, req.Options.Temperature)

		json.NewEncoder(w).Encode(generateResponse{Response: "ok", Done: true}) //nolint:errcheck
	}))
	defer server.Close()

	svc := NewGenerationService(Config{BaseURL: server.URL})

	_, err := svc.Generate(context.Background(), "prompt", driven.GenerateOptions{MaxTokens: 512, Temperature: 0.2})
	require.NoError(t, err)
}

func TestGenerate_ServerErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	svc := NewGenerationService(Config{BaseURL: server.URL})

	_, err := svc.Generate(context.Background(), "prompt", driven.GenerateOptions{})
	require.ErrorIs(t, err, domain.ErrGenerationUnavailable)
	assert.Contains(t, err.Error(), "model not found")
}

func TestGenerate_UnreachableHostIsUnavailable(t *testing.T) {
	svc := NewGenerationService(Config{BaseURL: "http://127.0.0.1:1"})

	_, err := svc.Generate(context.Background(), "prompt", driven.GenerateOptions{})
	require.ErrorIs(t, err, domain.ErrGenerationUnavailable)
}

func TestGenerate_CancellationIsNotUnavailable(t *testing.T) {
	svc := NewGenerationService(Config{BaseURL: "http://127.0.0.1:1"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Generate(ctx, "prompt", driven.GenerateOptions{})
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrGenerationUnavailable)
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := NewGenerationService(Config{BaseURL: server.URL})
	assert.NoError(t, svc.Ping(context.Background()))

	svc = NewGenerationService(Config{BaseURL: "http://127.0.0.1:1"})
	assert.ErrorIs(t, svc.Ping(context.Background()), domain.ErrGenerationUnavailable)
}
