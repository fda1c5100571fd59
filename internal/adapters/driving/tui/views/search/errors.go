package search

import "errors"

// Error definitions for the search view.
var (
	// ErrNoRAGService indicates that no RAG service was provided.
	ErrNoRAGService = errors.New("rag service is required")

	// ErrNoResponse indicates the service returned neither a response nor an error.
	ErrNoResponse = errors.New("search returned no response")
)

// searchFailure reports an unsuccessful response that carried no Go error.
type searchFailure struct {
	reason string
}

func (e *searchFailure) Error() string {
	if e.reason == "" {
		return "search failed"
	}
	return "search failed: " + e.reason
}
