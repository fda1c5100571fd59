// Package search implements the ranking strategies behind driven.Ranker.
//
// EmbeddingRanker scores candidates by cosine similarity to the query
// embedding. KeywordRanker scores by query term overlap and needs no
// embedding provider. FallbackRanker runs the first and falls back to the
// second only when the query cannot be embedded.
//
// All strategies share the same post-processing: threshold, stable
// descending sort (earlier-inserted candidates win ties), truncation and
// rank assignment starting at 1.
package search
