package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current settings, filling unset keys with defaults.
	Get() (*domain.RAGSettings, error)

	// Save validates and persists settings.
	Save(settings *domain.RAGSettings) error

	// Set updates a single dotted key (e.g. "chunking.size") from its string form.
	Set(key, value string) error

	// Keys lists the recognised setting keys in display order.
	Keys() []string

	// Values renders every setting as a string keyed like Keys.
	// Secrets are masked.
	Values() (map[string]string, error)

	// GetDefaults returns default settings.
	GetDefaults() domain.RAGSettings

	// ValidateEmbedding pings the configured embedding provider.
	ValidateEmbedding(ctx context.Context) error
}
