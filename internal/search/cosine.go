package search

import (
	"math"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// CosineSimilarity returns dot(a,b) / (|a| * |b|).
// Vectors of different length are a programming error and return
// *domain.DimensionMismatchError. A zero-magnitude vector scores 0.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, &domain.DimensionMismatchError{Expected: len(a), Actual: len(b)}
	}

	var dot, na2, nb2 float64
	for i := range a {
		va := float64(a[i])
		vb := float64(b[i])
		dot += va * vb
		na2 += va * va
		nb2 += vb * vb
	}
	if na2 == 0 || nb2 == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(na2) * math.Sqrt(nb2)), nil
}
