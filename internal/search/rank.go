package search

import (
	"slices"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// finalize drops scores below threshold, sorts the rest by descending
// score, truncates to limit and assigns ranks. scored must be in
// insertion order; the sort is stable so earlier candidates win ties.
func finalize(scored []domain.RankedChunk, threshold float64, limit int) []domain.RankedChunk {
	kept := scored[:0]
	for _, rc := range scored {
		if rc.Similarity >= threshold {
			kept = append(kept, rc)
		}
	}

	slices.SortStableFunc(kept, func(a, b domain.RankedChunk) int {
		switch {
		case a.Similarity > b.Similarity:
			return -1
		case a.Similarity < b.Similarity:
			return 1
		default:
			return 0
		}
	})

	if len(kept) > limit {
		kept = kept[:limit]
	}
	for i := range kept {
		kept[i].Rank = i + 1
	}
	return kept
}
