package driven

import (
	"context"
	"iter"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// VectorIndex stores chunk records with their embeddings.
//
// Mutations are atomic with respect to readers: Iterate observes either
// the state before or after an InsertAll/DeleteByDocument, never a mix.
type VectorIndex interface {
	// InsertAll adds chunks. Either all are inserted or none are.
	// Returns *domain.DimensionMismatchError if any embedding length differs
	// from the index dimensionality, and domain.ErrAlreadyExists on id clashes.
	InsertAll(ctx context.Context, chunks []domain.Chunk) error

	// DeleteByDocument removes every chunk of a document and returns the count.
	DeleteByDocument(ctx context.Context, documentID string) (int, error)

	// Iterate yields matching chunks in insertion order from a consistent snapshot.
	Iterate(filter domain.ChunkFilter) iter.Seq[domain.Chunk]

	// Size returns the number of chunks.
	Size() int

	// Dimensions returns the established embedding length (0 before first insert).
	Dimensions() int
}
