package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestExtractDocumentID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{name: "valid document URI", uri: "rag://documents/doc-456", expected: "doc-456"},
		{name: "list URI", uri: "rag://documents", expected: ""},
		{name: "invalid prefix", uri: "file://documents/doc-456", expected: ""},
		{name: "nested path", uri: "rag://documents/a/b", expected: ""},
		{name: "empty URI", uri: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractDocumentID(tt.uri))
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func testEntries() []domain.DocumentIndexEntry {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return []domain.DocumentIndexEntry{
		{DocumentID: "doc-1", Filename: "a.txt", Type: domain.DocumentTypeTxt, TotalChunks: 2, IndexedAt: at},
		{
			DocumentID: "doc-2", Filename: "b.pdf", Type: domain.DocumentTypePDF, TotalChunks: 5, IndexedAt: at.Add(time.Second),
			Source: domain.SourceMetadata{Title: "Manual", Pages: 12},
		},
	}
}

func TestServer_handleDocumentsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("lists documents", func(t *testing.T) {
		server := newTestServer(t, &mockRAGService{entries: testEntries()}, nil)

		result, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("rag://documents"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)

		var infos []documentInfo
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &infos))
		require.Len(t, infos, 2)
		assert.Equal(t, "doc-1", infos[0].ID)
		assert.Equal(t, "pdf", infos[1].Type)
		assert.Equal(t, "Manual", infos[1].Title)
		assert.Equal(t, 12, infos[1].Pages)
	})

	t.Run("empty index", func(t *testing.T) {
		server := newTestServer(t, &mockRAGService{}, nil)

		result, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("rag://documents"))

		require.NoError(t, err)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})
}

func TestServer_handleDocumentResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns entry", func(t *testing.T) {
		server := newTestServer(t, &mockRAGService{entries: testEntries()}, nil)

		result, err := server.handleDocumentResource(ctx, makeReadResourceRequest("rag://documents/doc-2"))

		require.NoError(t, err)
		var info documentInfo
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &info))
		assert.Equal(t, "doc-2", info.ID)
		assert.Equal(t, 5, info.TotalChunks)
	})

	t.Run("unknown document", func(t *testing.T) {
		server := newTestServer(t, &mockRAGService{}, nil)

		_, err := server.handleDocumentResource(ctx, makeReadResourceRequest("rag://documents/nope"))

		require.Error(t, err)
	})

	t.Run("malformed URI", func(t *testing.T) {
		server := newTestServer(t, &mockRAGService{}, nil)

		_, err := server.handleDocumentResource(ctx, makeReadResourceRequest("rag://documents/"))

		require.Error(t, err)
	})

	t.Run("other errors are wrapped", func(t *testing.T) {
		server := newTestServer(t, &mockRAGService{err: errors.New("boom")}, nil)

		_, err := server.handleDocumentResource(ctx, makeReadResourceRequest("rag://documents/x"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "getting document: boom")
	})
}
