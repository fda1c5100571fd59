// Package ai provides factory functions for creating embedding provider adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/hashing"
	ollamaembed "github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the result of embedding provider initialisation.
type InitResult struct {
	Provider driven.EmbeddingProvider
	Warnings []string // Non-fatal issues that caused fallback.
	FellBack bool     // True if fell back to the offline hashing provider.
}

// Close releases the provider.
func (r *InitResult) Close() {
	if r.Provider != nil {
		_ = r.Provider.Close()
	}
}

// Initialise creates the configured provider and checks that it answers.
// An unreachable remote provider is replaced by the hashing provider with
// a warning, so indexing and search keep working offline. Configuration
// errors (unknown provider, missing key) are returned as-is.
func Initialise(ctx context.Context, settings *domain.EmbeddingSettings) (*InitResult, error) {
	if settings == nil {
		defaults := domain.DefaultRAGSettings().Embedding
		settings = &defaults
	}

	provider, err := CreateEmbeddingProvider(settings)
	if err != nil {
		return nil, err
	}

	if err := ping(ctx, provider); err != nil {
		_ = provider.Close()
		warning := fmt.Sprintf("%s embedding provider unreachable (%v), using offline hashing embeddings", settings.Provider, err)
		logger.Warn("%s", warning)
		return &InitResult{
			Provider: hashing.NewEmbeddingService(hashing.Config{Dimensions: settings.Dimensions}),
			Warnings: []string{warning},
			FellBack: true,
		}, nil
	}

	return &InitResult{Provider: provider}, nil
}

// CreateAndValidateEmbeddingProvider creates a provider and validates connectivity.
// Returns the provider if successful, or an error with guidance.
func CreateAndValidateEmbeddingProvider(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingProvider, error) {
	svc, err := CreateEmbeddingProvider(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'sercha-rag settings set embedding.provider <name>' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}

	if err := ping(ctx, svc); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrEmbeddingUnavailable, err)
	}

	return svc, nil
}

// ValidateEmbeddingConfig validates an embedding configuration by creating a provider and pinging it.
func ValidateEmbeddingConfig(ctx context.Context, settings *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingProvider(settings)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	return ping(ctx, svc)
}

func ping(ctx context.Context, svc driven.EmbeddingProvider) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// CreateEmbeddingProvider creates the embedding provider named in settings.
func CreateEmbeddingProvider(settings *domain.EmbeddingSettings) (driven.EmbeddingProvider, error) {
	if settings == nil {
		return nil, domain.NewValidationError("embedding", "settings must not be nil")
	}

	switch settings.Provider {
	case domain.AIProviderHashing:
		return hashing.NewEmbeddingService(hashing.Config{Dimensions: settings.Dimensions}), nil

	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		})

	default:
		return nil, fmt.Errorf("%w: embedding provider %q", domain.ErrUnsupportedType, settings.Provider)
	}
}
