// Package mcp provides an MCP (Model Context Protocol) server adapter for the
// RAG index. It lets AI assistants index documents and retrieve ranked
// passages as tool calls.
package mcp

import "errors"

// ErrMissingRAGService is returned when the RAG service is not provided.
var ErrMissingRAGService = errors.New("mcp: rag service is required")

// ErrPathIndexingDisabled is returned when index_document is given a path
// but no path indexer or no root directory is configured.
var ErrPathIndexingDisabled = errors.New("mcp: indexing by path is not enabled")

// ErrPathOutsideRoots is returned when index_document is given a path that
// does not lie under a configured root directory.
var ErrPathOutsideRoots = errors.New("mcp: path is outside the served directories")
