package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// AIConfigValidator checks that an embedding configuration can reach its provider.
type AIConfigValidator interface {
	// ValidateEmbedding builds a provider from the settings and pings it.
	ValidateEmbedding(ctx context.Context, config *domain.EmbeddingSettings) error
}
