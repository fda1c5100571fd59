package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// PathIndexer indexes a file on disk. *filesystem.Syncer satisfies it.
type PathIndexer interface {
	SyncPath(ctx context.Context, path string) (*domain.IndexResult, error)
}

// Ports aggregates the dependencies of the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// RAG indexes and searches documents.
	RAG driving.RAGService

	// Paths indexes files by path. Optional; without it index_document
	// only accepts inline text.
	Paths PathIndexer

	// Roots are the directories index_document may read from. Paths
	// outside them are refused, and no roots disables path indexing.
	Roots []string

	// SearchOptions are the configured search defaults. A search call
	// overrides MaxResults and MinSimilarity only when it sets them.
	SearchOptions domain.SearchOptions
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.RAG == nil {
		return ErrMissingRAGService
	}
	return nil
}
