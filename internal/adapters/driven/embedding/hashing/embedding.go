// Package hashing provides an offline embedding provider based on
// signed feature hashing of word tokens. It needs no network and is
// deterministic, so the same text always yields the same vector.
// Similarity is lexical, not semantic.
package hashing

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/search"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingProvider = (*EmbeddingService)(nil)

// DefaultDimensions is the default vector size.
const DefaultDimensions = 512

// Config holds configuration for the hashing embedder.
type Config struct {
	// Dimensions is the vector size (default: 512).
	Dimensions int
}

// EmbeddingService embeds text by hashing tokens into a fixed-size vector.
type EmbeddingService struct {
	dimensions int
}

// NewEmbeddingService creates a hashing embedder.
func NewEmbeddingService(cfg Config) *EmbeddingService {
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultDimensions
	}
	return &EmbeddingService{dimensions: cfg.Dimensions}
}

// Embed returns the L2-normalised hashed term-frequency vector of text.
// Text without tokens yields a zero vector. The task type is ignored.
func (s *EmbeddingService) Embed(ctx context.Context, text string, _ domain.TaskType) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float64, s.dimensions)
	for _, tok := range search.Tokenize(text) {
		h := fnv.New64a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum64()

		idx := sum % uint64(s.dimensions)
		sign := 1.0
		if sum>>63 == 1 {
			sign = -1.0
		}
		vec[idx] += sign
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	out := make([]float32, s.dimensions)
	if norm == 0 {
		return out, nil
	}
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return fmt.Sprintf("hashing-%d", s.dimensions)
}

// Ping always succeeds.
func (s *EmbeddingService) Ping(context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
