package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// contextDelimiter separates sources in a rendered context string.
const contextDelimiter = "\n\n---\n\n"

// ContextString renders results in rank order as
//
//	[Source N: <filename> (<type>), page P, relevance XX.X%]
//	<content>
//
// joined by a horizontal rule. The page part is omitted when unknown.
// No results render as the empty string.
func (c *RAGCoordinator) ContextString(results []domain.RankedResult) string {
	return RenderContext(results)
}

// RenderContext is ContextString without a coordinator.
func RenderContext(results []domain.RankedResult) string {
	parts := make([]string, 0, len(results))
	for i, r := range results {
		var b strings.Builder
		fmt.Fprintf(&b, "[Source %d: %s (%s)", i+1, r.Filename, r.DocumentType)
		if r.PageNumber > 0 {
			fmt.Fprintf(&b, ", page %d", r.PageNumber)
		}
		fmt.Fprintf(&b, ", relevance %.1f%%]\n", r.Similarity*100)
		b.WriteString(strings.TrimSpace(r.Content))
		parts = append(parts, b.String())
	}
	return strings.Join(parts, contextDelimiter)
}
