// Package tui provides an interactive terminal user interface for sercha-rag.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Ports aggregates the driving ports and defaults used by the TUI.
type Ports struct {
	// RAG searches and manages the document index.
	RAG driving.RAGService

	// SearchOptions are applied to every query.
	SearchOptions domain.SearchOptions
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.RAG == nil {
		return ErrMissingRAGService
	}
	return nil
}
