package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query          string   `json:"query" jsonschema:"the question or phrase to find relevant passages for"`
	MaxResults     int      `json:"max_results,omitempty" jsonschema:"maximum number of passages to return (default from settings)"`
	MinSimilarity  *float64 `json:"min_similarity,omitempty" jsonschema:"minimum relevance score between -1 and 1 (default from settings)"`
	DocumentIDs    []string `json:"document_ids,omitempty" jsonschema:"restrict the search to these documents"`
	DocumentTypes  []string `json:"document_types,omitempty" jsonschema:"restrict the search to these types: pdf, doc, txt"`
	IncludeContext bool     `json:"include_context,omitempty" jsonschema:"also return the passages rendered as a prompt-ready context block"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results        []SearchResultOutput `json:"results"`
	Count          int                  `json:"count"`
	TotalDocuments int                  `json:"total_documents"`
	Strategy       string               `json:"strategy,omitempty"`
	Warnings       []string             `json:"warnings,omitempty"`
	Context        string               `json:"context,omitempty"`
}

// SearchResultOutput represents a single ranked passage.
type SearchResultOutput struct {
	Rank         int     `json:"rank"`
	ChunkID      string  `json:"chunk_id"`
	DocumentID   string  `json:"document_id"`
	Filename     string  `json:"filename"`
	DocumentType string  `json:"document_type"`
	PageNumber   int     `json:"page_number,omitempty"`
	Similarity   float64 `json:"similarity"`
	Content      string  `json:"content"`
}

// IndexInput is the input schema for the index_document tool.
// Either Text or Path must be set.
type IndexInput struct {
	Text       string `json:"text,omitempty" jsonschema:"the extracted plain text of the document"`
	Path       string `json:"path,omitempty" jsonschema:"path of a file under a served directory to load instead of text"`
	Filename   string `json:"filename,omitempty" jsonschema:"display name of the source file"`
	Type       string `json:"type,omitempty" jsonschema:"document type: pdf, doc or txt (default txt)"`
	DocumentID string `json:"document_id,omitempty" jsonschema:"id to index under (generated when empty)"`
	TotalPages int    `json:"total_pages,omitempty" jsonschema:"page count of the source, used to estimate page numbers"`
}

// IndexOutput is the output schema for the index_document tool.
type IndexOutput struct {
	Success       bool     `json:"success"`
	DocumentID    string   `json:"document_id"`
	ChunksCreated int      `json:"chunks_created"`
	ProcessingMS  int64    `json:"processing_ms"`
	Warnings      []string `json:"warnings,omitempty"`
}

// RemoveInput is the input schema for the remove_document tool.
type RemoveInput struct {
	DocumentID string `json:"document_id" jsonschema:"id of the document to remove"`
}

// RemoveOutput is the output schema for the remove_document tool.
type RemoveOutput struct {
	Removed bool `json:"removed"`
}

// StatsInput is the empty input schema for the stats tool.
type StatsInput struct{}

// StatsOutput is the output schema for the stats tool.
type StatsOutput struct {
	TotalDocuments           int            `json:"total_documents"`
	TotalChunks              int            `json:"total_chunks"`
	DocumentTypes            map[string]int `json:"document_types"`
	AverageChunksPerDocument float64        `json:"average_chunks_per_document"`
	Dimensions               int            `json:"dimensions"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Find the indexed passages most relevant to a query, ranked by similarity",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "index_document",
		Description: "Chunk, embed and index a document so it can be searched",
	}, s.handleIndex)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "remove_document",
		Description: "Remove a document and all its passages from the index",
	}, s.handleRemove)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "stats",
		Description: "Summarise the documents and passages in the index",
	}, s.handleStats)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	opts := s.ports.SearchOptions
	opts.DocumentIDs = input.DocumentIDs
	opts.DocumentTypes = nil
	if input.MaxResults > 0 {
		opts.MaxResults = input.MaxResults
	}
	if input.MinSimilarity != nil {
		opts.MinSimilarity = input.MinSimilarity
	}
	for _, t := range input.DocumentTypes {
		opts.DocumentTypes = append(opts.DocumentTypes, domain.DocumentType(strings.ToLower(t)))
	}

	resp, err := s.ports.RAG.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results:        make([]SearchResultOutput, len(resp.Results)),
		Count:          len(resp.Results),
		TotalDocuments: resp.TotalDocuments,
		Strategy:       resp.Strategy.String(),
		Warnings:       resp.Warnings,
	}

	for i, r := range resp.Results {
		output.Results[i] = SearchResultOutput{
			Rank:         r.Rank,
			ChunkID:      r.ChunkID,
			DocumentID:   r.DocumentID,
			Filename:     r.Filename,
			DocumentType: r.DocumentType.String(),
			PageNumber:   r.PageNumber,
			Similarity:   r.Similarity,
			Content:      r.Content,
		}
	}

	if input.IncludeContext {
		output.Context = s.ports.RAG.ContextString(resp.Results)
	}

	return nil, output, nil
}

// handleIndex handles the index_document tool invocation.
func (s *Server) handleIndex(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IndexInput,
) (*mcp.CallToolResult, IndexOutput, error) {
	var (
		result *domain.IndexResult
		err    error
	)

	switch {
	case input.Path != "" && input.Text != "":
		return nil, IndexOutput{}, domain.NewValidationError("input", "set either text or path, not both")

	case input.Path != "":
		if s.ports.Paths == nil || len(s.ports.Roots) == 0 {
			return nil, IndexOutput{}, ErrPathIndexingDisabled
		}
		if err := checkUnderRoots(input.Path, s.ports.Roots); err != nil {
			return nil, IndexOutput{}, err
		}
		result, err = s.ports.Paths.SyncPath(ctx, input.Path)

	default:
		typ := domain.DocumentTypeTxt
		if input.Type != "" {
			typ = domain.DocumentType(strings.ToLower(input.Type))
		}
		result, err = s.ports.RAG.Process(ctx, domain.Document{
			ID:         input.DocumentID,
			Text:       input.Text,
			Filename:   input.Filename,
			Type:       typ,
			TotalPages: input.TotalPages,
		})
	}

	if err != nil {
		if result != nil && len(result.Warnings) > 0 {
			return nil, IndexOutput{}, fmt.Errorf("%w (%s)", err, strings.Join(result.Warnings, "; "))
		}
		return nil, IndexOutput{}, err
	}

	return nil, IndexOutput{
		Success:       result.Success,
		DocumentID:    result.DocumentID,
		ChunksCreated: result.ChunksCreated,
		ProcessingMS:  result.ProcessingTime.Milliseconds(),
		Warnings:      result.Warnings,
	}, nil
}

// handleRemove handles the remove_document tool invocation.
func (s *Server) handleRemove(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RemoveInput,
) (*mcp.CallToolResult, RemoveOutput, error) {
	if strings.TrimSpace(input.DocumentID) == "" {
		return nil, RemoveOutput{}, domain.NewValidationError("document_id", "must not be empty")
	}

	removed, err := s.ports.RAG.Remove(ctx, input.DocumentID)
	if err != nil {
		return nil, RemoveOutput{}, err
	}
	return nil, RemoveOutput{Removed: removed}, nil
}

// handleStats handles the stats tool invocation.
func (s *Server) handleStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatsInput,
) (*mcp.CallToolResult, StatsOutput, error) {
	stats := s.ports.RAG.Stats(ctx)

	types := make(map[string]int, len(stats.DocumentTypes))
	for t, n := range stats.DocumentTypes {
		types[t.String()] = n
	}

	return nil, StatsOutput{
		TotalDocuments:           stats.TotalDocuments,
		TotalChunks:              stats.TotalChunks,
		DocumentTypes:            types,
		AverageChunksPerDocument: stats.AverageChunksPerDocument,
		Dimensions:               stats.Dimensions,
	}, nil
}
