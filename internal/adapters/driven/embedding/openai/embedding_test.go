package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kroniek-labs/kroniek-cli/internal/core/domain"
)

func TestNewEmbeddingService_RequiresAPIKey(t *testing.T) {
	_, err := NewEmbeddingService(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestNewEmbeddingService_ResolvesModelDimensions(t *testing.T) {
	svc, err := NewEmbeddingService(Config{APIKey: "sk-test", Model: "text-embedding-3-large"})
	require.NoError(t, err)
	assert.Equal(t, 3072, svc.Dimensions())

	svc, err = NewEmbeddingService(Config{APIKey: "sk-test", Model: "unknown-model"})
	require.NoError(t, err)
	assert.Equal(t, 1536, svc.Dimensions())

	svc, err = NewEmbeddingService(Config{APIKey: "sk-test", Dimensions: 256})
	require.NoError(t, err)
	assert.Equal(t, 256, svc.Dimensions())
}

func TestEmbedBatch_SingleRequestOrderedByIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"first", "second"}, req.Input)

		// Responses may arrive out of input order.
		w.Write([]byte(`{"data":[` + //nolint:errcheck
			`{"embedding":[0.2],"index":1},` +
			`{"embedding":[0.1],"index":0}]}`))
	}))
	defer server.Close()

	svc, err := NewEmbeddingService(Config{APIKey: "sk-test", BaseURL: server.URL, Dimensions: 1})
	require.NoError(t, err)

	embeddings, err := svc.EmbedBatch(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, embeddings, 2)
	assert.Equal(t, []float32{0.1}, embeddings[0])
	assert.Equal(t, []float32{0.2}, embeddings[1])
}

func TestEmbedBatch_EmptyInput(t *testing.T) {
	svc, err := NewEmbeddingService(Config{APIKey: "sk-test"})
	require.NoError(t, err)

	embeddings, err := svc.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, embeddings)
}

func TestEmbedBatch_APIErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`)) //nolint:errcheck
	}))
	defer server.Close()

	svc, err := NewEmbeddingService(Config{APIKey: "sk-bad", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = svc.Embed(context.Background(), "text")
	require.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Contains(t, err.Error(), "Incorrect API key")
}

func TestEmbedBatch_MissingEmbeddingIsFormatError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"data":[{"embedding":[0.1],"index":0}]}`)) //nolint:errcheck
	}))
	defer server.Close()

	svc, err := NewEmbeddingService(Config{APIKey: "sk-test", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = svc.EmbedBatch(context.Background(), []string{"a", "b"})
	require.ErrorIs(t, err, domain.ErrEmbeddingFormat)
}

func TestEmbedBatch_IndexOutOfRangeIsFormatError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"data":[{"embedding":[0.1],"index":5}]}`)) //nolint:errcheck
	}))
	defer server.Close()

	svc, err := NewEmbeddingService(Config{APIKey: "sk-test", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = svc.Embed(context.Background(), "text")
	require.ErrorIs(t, err, domain.ErrEmbeddingFormat)
}

func TestEmbedBatch_OmitsDimensionsForLegacyModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, hasDimensions := raw["dimensions"]
		assert.False(t, hasDimensions)

		w.Write([]byte(`{"data":[{"embedding":[0.1],"index":0}]}`)) //nolint:errcheck
	}))
	defer server.Close()

	svc, err := NewEmbeddingService(Config{APIKey: "sk-test", BaseURL: server.URL, Model: "text-embedding-ada-002"})
	require.NoError(t, err)

	_, err = svc.Embed(context.Background(), "text")
	require.NoError(t, err)
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc, err := NewEmbeddingService(Config{APIKey: "sk-test", BaseURL: server.URL})
	require.NoError(t, err)
	assert.NoError(t, svc.Ping(context.Background()))
}
