package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestNewEmbeddingService(t *testing.T) {
	t.Run("requires api key", func(t *testing.T) {
		_, err := NewEmbeddingService(Config{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("defaults", func(t *testing.T) {
		s, err := NewEmbeddingService(Config{APIKey: "sk-test"})
		require.NoError(t, err)
		assert.Equal(t, DefaultBaseURL, s.baseURL)
		assert.Equal(t, DefaultModel, s.ModelName())
		assert.Equal(t, 1536, s.Dimensions())
	})

	t.Run("model dimensions", func(t *testing.T) {
		s, err := NewEmbeddingService(Config{APIKey: "sk-test", Model: "text-embedding-3-large"})
		require.NoError(t, err)
		assert.Equal(t, 3072, s.Dimensions())
	})
}

func TestEmbeddingService_Embed(t *testing.T) {
	var got embeddingRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.1,0.2,0.3],"index":0}]}`))
	}))
	defer srv.Close()

	s, err := NewEmbeddingService(Config{APIKey: "sk-test", BaseURL: srv.URL, Dimensions: 3})
	require.NoError(t, err)

	vec, err := s.Embed(context.Background(), "hello", domain.TaskDocument)

	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0.1, 0.2, 0.3}, vec, 1e-6)
	assert.Equal(t, []string{"hello"}, got.Input)
	assert.Equal(t, 3, got.Dimensions)
}

func TestEmbeddingService_Embed_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "4")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
	}))
	defer srv.Close()

	s, err := NewEmbeddingService(Config{APIKey: "sk-test", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = s.Embed(context.Background(), "hello", domain.TaskDocument)

	var status *domain.ProviderStatusError
	require.ErrorAs(t, err, &status)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, 4*time.Second, status.RetryAfter)
	assert.True(t, status.Temporary())
}

func TestEmbeddingService_Embed_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer srv.Close()

	s, err := NewEmbeddingService(Config{APIKey: "sk-bad", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = s.Embed(context.Background(), "hello", domain.TaskQuery)

	var status *domain.ProviderStatusError
	require.ErrorAs(t, err, &status)
	assert.False(t, status.Temporary())
}

func TestEmbeddingService_Embed_EmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	s, err := NewEmbeddingService(Config{APIKey: "sk-test", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = s.Embed(context.Background(), "hello", domain.TaskQuery)
	assert.Error(t, err)
}

func TestEmbeddingService_Ping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s, err := NewEmbeddingService(Config{APIKey: "sk-test", BaseURL: srv.URL})
	require.NoError(t, err)
	assert.NoError(t, s.Ping(context.Background()))
}
