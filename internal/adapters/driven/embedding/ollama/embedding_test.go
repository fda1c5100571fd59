package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestNewEmbeddingService_Defaults(t *testing.T) {
	s := NewEmbeddingService(Config{})

	assert.Equal(t, DefaultBaseURL, s.baseURL)
	assert.Equal(t, DefaultModel, s.ModelName())
	assert.Equal(t, DefaultDimensions, s.Dimensions())
	assert.True(t, s.prefixed)
}

func TestEmbeddingService_Embed(t *testing.T) {
	var got embedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{0.5, -0.25, 1}})
	}))
	defer srv.Close()

	s := NewEmbeddingService(Config{BaseURL: srv.URL + "/"})

	vec, err := s.Embed(context.Background(), "what is rag", domain.TaskQuery)

	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -0.25, 1}, vec)
	assert.Equal(t, DefaultModel, got.Model)
	assert.Equal(t, "search_query: what is rag", got.Prompt)
}

func TestEmbeddingService_TaskPrefixes(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		task  domain.TaskType
		wantP string
	}{
		{"nomic document", Config{}, domain.TaskDocument, "search_document: text"},
		{"nomic query", Config{}, domain.TaskQuery, "search_query: text"},
		{"prefix disabled", Config{NoTaskPrefix: true}, domain.TaskQuery, "text"},
		{"other model", Config{Model: "mxbai-embed-large"}, domain.TaskQuery, "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewEmbeddingService(tt.cfg)
			assert.Equal(t, tt.wantP, s.prompt("text", tt.task))
		})
	}
}

func TestEmbeddingService_Embed_StatusErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		temporary bool
	}{
		{"server error", http.StatusInternalServerError, true},
		{"overloaded", http.StatusServiceUnavailable, true},
		{"rate limited", http.StatusTooManyRequests, true},
		{"model missing", http.StatusNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Retry-After", "3")
				http.Error(w, "boom", tt.status)
			}))
			defer srv.Close()

			s := NewEmbeddingService(Config{BaseURL: srv.URL})
			_, err := s.Embed(context.Background(), "x", domain.TaskDocument)

			var status *domain.ProviderStatusError
			require.ErrorAs(t, err, &status)
			assert.Equal(t, tt.status, status.StatusCode)
			assert.Equal(t, tt.temporary, status.Temporary())
			assert.Equal(t, "boom", status.Body)
		})
	}
}

func TestEmbeddingService_Ping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s := NewEmbeddingService(Config{BaseURL: srv.URL})
	assert.NoError(t, s.Ping(context.Background()))
	assert.NoError(t, s.Close())
}

func TestEmbeddingService_Ping_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	s := NewEmbeddingService(Config{BaseURL: url})
	assert.Error(t, s.Ping(context.Background()))
}
