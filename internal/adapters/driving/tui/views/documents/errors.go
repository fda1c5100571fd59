package documents

import "errors"

// ErrNoRAGService indicates that no RAG service was provided.
var ErrNoRAGService = errors.New("rag service is required")
