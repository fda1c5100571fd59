package domain

import "time"

// Default ranking parameters.
const (
	// DefaultMinSimilarity is the cosine threshold for embedding search.
	DefaultMinSimilarity = 0.7

	// DefaultMaxResults caps the number of ranked results.
	DefaultMaxResults = 5

	// DefaultKeywordMinScore is the term-overlap threshold for keyword search.
	// Overlap ratios run much lower than cosine similarities.
	DefaultKeywordMinScore = 0.1
)

// RankingStrategy identifies a SearchEngine implementation.
type RankingStrategy string

// Available ranking strategies.
const (
	// RankingEmbedding scores candidates by cosine similarity to the query embedding.
	RankingEmbedding RankingStrategy = "embedding"

	// RankingKeyword scores candidates by query term overlap.
	// Used when the embedding provider is unavailable.
	RankingKeyword RankingStrategy = "keyword"
)

// String returns the string representation.
func (s RankingStrategy) String() string {
	return string(s)
}

// SearchOptions configures a search query.
type SearchOptions struct {
	// MinSimilarity drops results scoring below it.
	// Nil uses the ranker default (0.7 for embedding, 0.1 for keyword).
	MinSimilarity *float64

	// MaxResults caps the result count. Values <= 0 use DefaultMaxResults.
	MaxResults int

	// DocumentIDs restricts the search to specific documents.
	DocumentIDs []string

	// DocumentTypes restricts the search to specific document types.
	DocumentTypes []DocumentType
}

// Similarity returns a pointer for SearchOptions.MinSimilarity.
func Similarity(v float64) *float64 {
	return &v
}

// Filter returns the candidate filter described by the options.
func (o SearchOptions) Filter() ChunkFilter {
	return ChunkFilter{
		DocumentIDs:   o.DocumentIDs,
		DocumentTypes: o.DocumentTypes,
	}
}

// Limit returns the effective result cap.
func (o SearchOptions) Limit() int {
	if o.MaxResults <= 0 {
		return DefaultMaxResults
	}
	return o.MaxResults
}

// Threshold returns the effective minimum score given a ranker default.
func (o SearchOptions) Threshold(fallback float64) float64 {
	if o.MinSimilarity == nil {
		return fallback
	}
	return *o.MinSimilarity
}

// RankedChunk is a scored candidate after sorting.
type RankedChunk struct {
	Chunk      Chunk
	Similarity float64

	// Rank starts at 1 for the most relevant chunk.
	Rank int
}

// Ranking is the output of a SearchEngine strategy.
type Ranking struct {
	Results  []RankedChunk
	Strategy RankingStrategy
	Warnings []string
}

// RankedResult is a single search hit as returned to callers.
type RankedResult struct {
	ChunkID      string
	DocumentID   string
	Content      string
	Similarity   float64
	Rank         int
	Filename     string
	DocumentType DocumentType
	ChunkIndex   int

	// PageNumber is a best-effort estimate (0 = unknown).
	PageNumber int
}

// NewRankedResult flattens a ranked chunk into a caller-facing result.
func NewRankedResult(rc RankedChunk) RankedResult {
	return RankedResult{
		ChunkID:      rc.Chunk.ID,
		DocumentID:   rc.Chunk.Metadata.DocumentID,
		Content:      rc.Chunk.Content,
		Similarity:   rc.Similarity,
		Rank:         rc.Rank,
		Filename:     rc.Chunk.Metadata.Filename,
		DocumentType: rc.Chunk.Metadata.DocumentType,
		ChunkIndex:   rc.Chunk.Metadata.ChunkIndex,
		PageNumber:   rc.Chunk.Metadata.PageNumber,
	}
}

// SearchResponse is the outcome of a search.
// An empty Results slice with Success=true is a valid outcome;
// TotalDocuments == 0 distinguishes "nothing indexed" from "no match".
type SearchResponse struct {
	Success        bool
	Results        []RankedResult
	TotalDocuments int
	SearchTime     time.Duration
	Strategy       RankingStrategy
	Warnings       []string

	// Error is set when Success is false.
	Error string
}
