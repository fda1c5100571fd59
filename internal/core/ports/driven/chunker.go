package driven

import "github.com/custodia-labs/sercha-rag/internal/core/domain"

// Chunker splits text into ordered, overlapping chunk strings.
// Implementations are pure: identical input yields identical output.
type Chunker interface {
	Split(text string, hint domain.DocumentType) []string
}
