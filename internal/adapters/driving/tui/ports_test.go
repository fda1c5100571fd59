package tui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// MockRAGService implements driving.RAGService for testing.
type MockRAGService struct {
	SearchFunc func(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResponse, error)
	RemoveFunc func(ctx context.Context, documentID string) (bool, error)
	Docs       []domain.DocumentIndexEntry
	IndexStats domain.IndexStats
}

var _ driving.RAGService = (*MockRAGService)(nil)

func (m *MockRAGService) Process(_ context.Context, doc domain.Document) (*domain.IndexResult, error) {
	return &domain.IndexResult{Success: true, DocumentID: doc.ID}, nil
}

func (m *MockRAGService) Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResponse, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, opts)
	}
	return &domain.SearchResponse{Success: true, Strategy: domain.RankingEmbedding}, nil
}

func (m *MockRAGService) Remove(ctx context.Context, documentID string) (bool, error) {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, documentID)
	}
	return false, nil
}

func (m *MockRAGService) Stats(_ context.Context) domain.IndexStats {
	return m.IndexStats
}

func (m *MockRAGService) Documents(_ context.Context) []domain.DocumentIndexEntry {
	return m.Docs
}

func (m *MockRAGService) Document(_ context.Context, documentID string) (*domain.DocumentIndexEntry, error) {
	for i := range m.Docs {
		if m.Docs[i].DocumentID == documentID {
			return &m.Docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockRAGService) ContextString(results []domain.RankedResult) string {
	return ""
}

func TestPorts_Validate(t *testing.T) {
	assert.NoError(t, (&Ports{RAG: &MockRAGService{}}).Validate())
	assert.ErrorIs(t, (&Ports{}).Validate(), ErrMissingRAGService)

	var nilPorts *Ports
	assert.ErrorIs(t, nilPorts.Validate(), ErrInvalidPorts)
}
