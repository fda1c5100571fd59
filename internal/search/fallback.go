package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure FallbackRanker implements the interface.
var _ driven.Ranker = (*FallbackRanker)(nil)

// FallbackRanker runs primary and switches to fallback only when primary
// fails with domain.ErrEmbeddingUnavailable. Any other error is returned.
// The switch is reported in Ranking.Warnings.
type FallbackRanker struct {
	primary  driven.Ranker
	fallback driven.Ranker
}

// NewFallbackRanker creates a ranker that degrades from primary to fallback.
func NewFallbackRanker(primary, fallback driven.Ranker) *FallbackRanker {
	return &FallbackRanker{primary: primary, fallback: fallback}
}

// Strategy returns the primary strategy.
func (r *FallbackRanker) Strategy() domain.RankingStrategy {
	return r.primary.Strategy()
}

// Rank implements driven.Ranker.
func (r *FallbackRanker) Rank(ctx context.Context, query string, candidates []domain.Chunk, opts domain.SearchOptions) (*domain.Ranking, error) {
	ranking, err := r.primary.Rank(ctx, query, candidates, opts)
	if err == nil || !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		return ranking, err
	}

	logger.Warn("Query embedding failed, falling back to %s ranking: %v", r.fallback.Strategy(), err)

	ranking, ferr := r.fallback.Rank(ctx, query, candidates, opts)
	if ferr != nil {
		return nil, fmt.Errorf("%w (fallback: %v)", err, ferr)
	}
	ranking.Warnings = append(ranking.Warnings,
		fmt.Sprintf("embedding provider unavailable, results ranked by %s overlap: %v", r.fallback.Strategy(), err))
	return ranking, nil
}
