package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an embedding service provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderHashing is the built-in offline feature-hashing embedder.
	AIProviderHashing AIProvider = "hashing"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"
)

// AllAIProviders returns every supported provider in display order.
func AllAIProviders() []AIProvider {
	return []AIProvider{AIProviderHashing, AIProviderOllama, AIProviderOpenAI}
}

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderHashing, AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// IsLocal returns true if this provider runs without network access to a cloud API.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderHashing
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderHashing:
		return "Hashing (offline, lexical)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// ChunkingSettings controls how documents are split.
type ChunkingSettings struct {
	// Size is the maximum chunk length in characters.
	Size int

	// Overlap is the trailing context carried into the next chunk, in characters.
	Overlap int

	// MinChars drops chunks whose trimmed length is below it.
	MinChars int
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions overrides the model default where the provider allows it.
	Dimensions int

	// Concurrency is the number of calls per batch group.
	Concurrency int

	// Cooldown is the pause between batch groups.
	Cooldown time.Duration

	// Timeout bounds each provider call.
	Timeout time.Duration

	// MaxAttempts bounds retries of transient failures (including the first call).
	MaxAttempts int

	// RequestsPerSecond throttles provider calls (0 = unlimited).
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// SearchSettings holds search behaviour configuration.
type SearchSettings struct {
	MinSimilarity float64
	MaxResults    int

	// KeywordFallback enables term-overlap ranking when the query
	// cannot be embedded.
	KeywordFallback bool
}

// RAGSettings is the complete application configuration.
type RAGSettings struct {
	Chunking  ChunkingSettings
	Embedding EmbeddingSettings
	Search    SearchSettings
}

// DefaultRAGSettings returns the default configuration.
func DefaultRAGSettings() RAGSettings {
	return RAGSettings{
		Chunking: ChunkingSettings{
			Size:     1000,
			Overlap:  200,
			MinChars: 50,
		},
		Embedding: EmbeddingSettings{
			Provider:    AIProviderHashing,
			Concurrency: 10,
			Cooldown:    time.Second,
			Timeout:     30 * time.Second,
			MaxAttempts: 3,
		},
		Search: SearchSettings{
			MinSimilarity:   DefaultMinSimilarity,
			MaxResults:      DefaultMaxResults,
			KeywordFallback: true,
		},
	}
}

// Validate checks the settings for values the engine cannot run with.
// Zero numeric values mean "use the component default" and are accepted.
func (s RAGSettings) Validate() error {
	if s.Chunking.Size <= 0 {
		return NewValidationError("chunking.size", "must be positive, got %d", s.Chunking.Size)
	}
	if s.Chunking.Overlap < 0 || s.Chunking.Overlap >= s.Chunking.Size {
		return NewValidationError("chunking.overlap", "must be in [0, %d), got %d", s.Chunking.Size, s.Chunking.Overlap)
	}
	if s.Chunking.MinChars < 0 {
		return NewValidationError("chunking.min_chars", "must not be negative, got %d", s.Chunking.MinChars)
	}
	if !s.Embedding.Provider.IsValid() {
		return fmt.Errorf("%w: embedding provider %q", ErrUnsupportedType, s.Embedding.Provider)
	}
	if s.Embedding.Provider.RequiresAPIKey() && s.Embedding.APIKey == "" {
		return NewValidationError("embedding.api_key", "required for %s", s.Embedding.Provider)
	}
	for _, f := range []struct {
		field string
		value float64
	}{
		{"embedding.dimensions", float64(s.Embedding.Dimensions)},
		{"embedding.concurrency", float64(s.Embedding.Concurrency)},
		{"embedding.cooldown_ms", float64(s.Embedding.Cooldown)},
		{"embedding.timeout_seconds", float64(s.Embedding.Timeout)},
		{"embedding.max_attempts", float64(s.Embedding.MaxAttempts)},
		{"embedding.requests_per_second", s.Embedding.RequestsPerSecond},
		{"search.max_results", float64(s.Search.MaxResults)},
	} {
		if f.value < 0 {
			return NewValidationError(f.field, "must not be negative")
		}
	}
	if s.Search.MinSimilarity < -1 || s.Search.MinSimilarity > 1 {
		return NewValidationError("search.min_similarity", "must be in [-1, 1], got %v", s.Search.MinSimilarity)
	}
	return nil
}
