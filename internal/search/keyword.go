package search

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure KeywordRanker implements the interface.
var _ driven.Ranker = (*KeywordRanker)(nil)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}]+)*`)

var stopwords = func() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by",
		"with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those",
		"from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about",
		"between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too",
		"very", "can", "will", "just", "don", "should", "now", "what", "which", "who", "how", "do", "does",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()

// Tokenize lowercases text and returns its word tokens without stopwords.
func Tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, stop := stopwords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

// KeywordRanker scores candidates by the fraction of distinct query terms
// they contain. It needs no embedding provider and is much weaker than
// EmbeddingRanker.
type KeywordRanker struct{}

// NewKeywordRanker creates a keyword overlap ranker.
func NewKeywordRanker() *KeywordRanker {
	return &KeywordRanker{}
}

// Strategy returns domain.RankingKeyword.
func (r *KeywordRanker) Strategy() domain.RankingStrategy {
	return domain.RankingKeyword
}

// Rank scores candidates by term overlap. The default threshold is
// domain.DefaultKeywordMinScore. A query with no terms matches nothing.
func (r *KeywordRanker) Rank(ctx context.Context, query string, candidates []domain.Chunk, opts domain.SearchOptions) (*domain.Ranking, error) {
	ranking := &domain.Ranking{Strategy: domain.RankingKeyword}

	terms := uniqueTerms(query)
	if len(terms) == 0 || len(candidates) == 0 {
		return ranking, nil
	}

	filter := opts.Filter()
	scored := make([]domain.RankedChunk, 0, len(candidates))
	for i := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c := &candidates[i]
		if !filter.Matches(c) {
			continue
		}
		scored = append(scored, domain.RankedChunk{Chunk: *c, Similarity: overlap(terms, c.Content)})
	}

	ranking.Results = finalize(scored, opts.Threshold(domain.DefaultKeywordMinScore), opts.Limit())
	return ranking, nil
}

func uniqueTerms(text string) map[string]struct{} {
	terms := make(map[string]struct{})
	for _, t := range Tokenize(text) {
		terms[t] = struct{}{}
	}
	return terms
}

// overlap returns the fraction of terms present in content.
func overlap(terms map[string]struct{}, content string) float64 {
	present := uniqueTerms(content)
	hits := 0
	for t := range terms {
		if _, ok := present[t]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}
