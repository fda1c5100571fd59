package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// RAGService indexes documents and retrieves relevant passages for a query.
type RAGService interface {
	// Process chunks, embeds and indexes a document. Ingestion is
	// all-or-nothing: on error no chunk of the document remains indexed.
	// The returned result is non-nil even on failure.
	Process(ctx context.Context, doc domain.Document) (*domain.IndexResult, error)

	// Search ranks indexed chunks against the query.
	// Low-confidence or empty results are success; only an unusable
	// embedding provider (with no fallback) fails.
	Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResponse, error)

	// Remove deletes a document and all its chunks.
	// Returns false if the document was not indexed.
	Remove(ctx context.Context, documentID string) (bool, error)

	// Stats summarises the index.
	Stats(ctx context.Context) domain.IndexStats

	// Documents lists indexed documents ordered by indexing time.
	Documents(ctx context.Context) []domain.DocumentIndexEntry

	// Document returns one registry entry or domain.ErrNotFound.
	Document(ctx context.Context, documentID string) (*domain.DocumentIndexEntry, error)

	// ContextString renders ranked results into a prompt-ready string.
	ContextString(results []domain.RankedResult) string
}
