package search

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure EmbeddingRanker implements the interface.
var _ driven.Ranker = (*EmbeddingRanker)(nil)

// QueryEmbedder embeds a single text. *embedding.Client satisfies it.
type QueryEmbedder interface {
	EmbedOne(ctx context.Context, text string, task domain.TaskType) ([]float32, error)
}

// EmbeddingRanker ranks candidates by cosine similarity to the query embedding.
type EmbeddingRanker struct {
	embedder QueryEmbedder
}

// NewEmbeddingRanker creates a ranker that embeds queries with embedder.
func NewEmbeddingRanker(embedder QueryEmbedder) *EmbeddingRanker {
	return &EmbeddingRanker{embedder: embedder}
}

// Strategy returns domain.RankingEmbedding.
func (r *EmbeddingRanker) Strategy() domain.RankingStrategy {
	return domain.RankingEmbedding
}

// Rank embeds the query as a query task and scores the candidates.
// The embedding call is skipped when there are no candidates.
func (r *EmbeddingRanker) Rank(ctx context.Context, query string, candidates []domain.Chunk, opts domain.SearchOptions) (*domain.Ranking, error) {
	ranking := &domain.Ranking{Strategy: domain.RankingEmbedding}
	if len(candidates) == 0 {
		return ranking, nil
	}

	vec, err := r.embedder.EmbedOne(ctx, query, domain.TaskQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := RankVector(vec, candidates, opts)
	if err != nil {
		return nil, err
	}
	ranking.Results = results
	return ranking, nil
}

// RankVector scores candidates against a query vector.
// Candidates are filtered by the options first, then scored, thresholded
// (default 0.7), stably sorted, capped and ranked from 1.
// Zero candidates or zero matches is an empty, non-error result.
func RankVector(query []float32, candidates []domain.Chunk, opts domain.SearchOptions) ([]domain.RankedChunk, error) {
	filter := opts.Filter()
	scored := make([]domain.RankedChunk, 0, len(candidates))

	for i := range candidates {
		c := &candidates[i]
		if !filter.Matches(c) {
			continue
		}
		sim, err := CosineSimilarity(query, c.Embedding)
		if err != nil {
			return nil, &domain.DimensionMismatchError{Expected: len(query), Actual: len(c.Embedding), ChunkID: c.ID}
		}
		scored = append(scored, domain.RankedChunk{Chunk: *c, Similarity: sim})
	}

	return finalize(scored, opts.Threshold(domain.DefaultMinSimilarity), opts.Limit()), nil
}
