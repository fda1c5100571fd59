package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// mockRAGService is a mock implementation of driving.RAGService.
type mockRAGService struct {
	response *domain.SearchResponse
	result   *domain.IndexResult
	removed  bool
	stats    domain.IndexStats
	entries  []domain.DocumentIndexEntry
	err      error

	lastQuery string
	lastOpts  domain.SearchOptions
	lastDoc   domain.Document
}

func (m *mockRAGService) Process(_ context.Context, doc domain.Document) (*domain.IndexResult, error) {
	m.lastDoc = doc
	return m.result, m.err
}

func (m *mockRAGService) Search(_ context.Context, query string, opts domain.SearchOptions) (*domain.SearchResponse, error) {
	m.lastQuery = query
	m.lastOpts = opts
	if m.response == nil {
		return &domain.SearchResponse{Success: m.err == nil}, m.err
	}
	return m.response, m.err
}

func (m *mockRAGService) Remove(_ context.Context, _ string) (bool, error) {
	return m.removed, m.err
}

func (m *mockRAGService) Stats(_ context.Context) domain.IndexStats {
	return m.stats
}

func (m *mockRAGService) Documents(_ context.Context) []domain.DocumentIndexEntry {
	return m.entries
}

func (m *mockRAGService) Document(_ context.Context, id string) (*domain.DocumentIndexEntry, error) {
	for i := range m.entries {
		if m.entries[i].DocumentID == id {
			return &m.entries[i], nil
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return nil, domain.ErrNotFound
}

func (m *mockRAGService) ContextString(results []domain.RankedResult) string {
	if len(results) == 0 {
		return ""
	}
	return "context for " + results[0].ChunkID
}

// mockPathIndexer is a mock implementation of PathIndexer.
type mockPathIndexer struct {
	result *domain.IndexResult
	err    error
	paths  []string
}

func (m *mockPathIndexer) SyncPath(_ context.Context, path string) (*domain.IndexResult, error) {
	m.paths = append(m.paths, path)
	return m.result, m.err
}
