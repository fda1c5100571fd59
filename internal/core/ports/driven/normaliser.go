package driven

import "github.com/custodia-labs/sercha-rag/internal/core/domain"

// Normaliser extracts plain text from one file format.
type Normaliser interface {
	// Suffixes lists the lower-case file name suffixes handled, e.g. ".md".
	Suffixes() []string

	// Normalise returns the text content of raw. Title is empty when the
	// format does not carry one.
	Normalise(raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult is the text extracted from a raw document.
type NormaliseResult struct {
	Text  string
	Title string
}
