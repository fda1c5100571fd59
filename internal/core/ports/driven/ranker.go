package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Ranker is a SearchEngine strategy: it scores candidates against a query,
// drops those below the threshold, sorts them and assigns ranks.
type Ranker interface {
	// Strategy names the ranking approach.
	Strategy() domain.RankingStrategy

	// Rank scores candidates (already filtered, in insertion order) for the query.
	// An empty result is success.
	Rank(ctx context.Context, query string, candidates []domain.Chunk, opts domain.SearchOptions) (*domain.Ranking, error)
}
