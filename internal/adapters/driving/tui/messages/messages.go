// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// SearchCompleted carries a search response back to the model.
type SearchCompleted struct {
	Query    string
	Response *domain.SearchResponse
	Err      error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewSearch is the query input and ranked results view.
	ViewSearch
	// ViewDocuments lists indexed documents.
	ViewDocuments
	// ViewDocDetails shows the registry entry of one document.
	ViewDocDetails
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewSearch:
		return "search"
	case ViewDocuments:
		return "documents"
	case ViewDocDetails:
		return "doc_details"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// StatsLoaded carries a summary of the index.
type StatsLoaded struct {
	Stats domain.IndexStats
}

// DocumentsLoaded carries the indexed documents in indexing order.
type DocumentsLoaded struct {
	Documents []domain.DocumentIndexEntry
}

// DocumentSelected signals a document was chosen for the details view.
type DocumentSelected struct {
	Document domain.DocumentIndexEntry
}

// DocumentRemoved signals a document removal finished.
type DocumentRemoved struct {
	DocumentID string
	Removed    bool
	Err        error
}
