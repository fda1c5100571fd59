// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// EmbeddingProvider generates vector embeddings from text.
// It is the only external capability the RAG core consumes.
//
// Implementations must be safe for concurrent use; the embedding client
// calls Embed from several goroutines at once. Authentication is the
// provider's own concern.
//
// Implementations include:
//   - Ollama (nomic-embed-text, all-minilm)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Hashing (offline, deterministic)
type EmbeddingProvider interface {
	// Embed generates a vector embedding for the given text.
	// Non-2xx responses should be returned as *domain.ProviderStatusError
	// so transient statuses can be retried.
	Embed(ctx context.Context, text string, task domain.TaskType) ([]float32, error)

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
