package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for index resources.
	uriScheme = "rag://"

	documentsURI = uriScheme + "documents"
)

// documentInfo is the JSON form of a registry entry.
type documentInfo struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	Type        string    `json:"type"`
	TotalChunks int       `json:"total_chunks"`
	IndexedAt   time.Time `json:"indexed_at"`
	Title       string    `json:"title,omitempty"`
	Author      string    `json:"author,omitempty"`
	Pages       int       `json:"pages,omitempty"`
}

func newDocumentInfo(e domain.DocumentIndexEntry) documentInfo {
	return documentInfo{
		ID:          e.DocumentID,
		Filename:    e.Filename,
		Type:        e.Type.String(),
		TotalChunks: e.TotalChunks,
		IndexedAt:   e.IndexedAt,
		Title:       e.Source.Title,
		Author:      e.Source.Author,
		Pages:       e.Source.Pages,
	}
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing documents.
	s.server.AddResource(&mcp.Resource{
		URI:         documentsURI,
		Name:        "documents",
		Description: "All indexed documents, in indexing order",
		MIMEType:    "application/json",
	}, s.handleDocumentsResource)

	// Template for a single registry entry.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: documentsURI + "/{documentId}",
		Name:        "document",
		Description: "Index entry for a specific document",
		MIMEType:    "application/json",
	}, s.handleDocumentResource)
}

// handleDocumentsResource returns every indexed document.
func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	entries := s.ports.RAG.Documents(ctx)

	infos := make([]documentInfo, len(entries))
	for i, e := range entries {
		infos[i] = newDocumentInfo(e)
	}

	return jsonResource(req.Params.URI, infos)
}

// handleDocumentResource returns the registry entry for one document.
func (s *Server) handleDocumentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract documentId from URI: rag://documents/{documentId}
	docID := extractDocumentID(req.Params.URI)
	if docID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	entry, err := s.ports.RAG.Document(ctx, docID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		return nil, fmt.Errorf("getting document: %w", err)
	}

	return jsonResource(req.Params.URI, newDocumentInfo(*entry))
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractDocumentID extracts the document ID from a URI like rag://documents/{documentId}.
func extractDocumentID(uri string) string {
	const prefix = documentsURI + "/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
