package domain

import "time"

// DocumentType is the source format hint used to pick chunk boundaries.
type DocumentType string

// Supported document types.
const (
	// DocumentTypePDF is text extracted from a PDF. Chunked on page-like breaks.
	DocumentTypePDF DocumentType = "pdf"

	// DocumentTypeDoc is text extracted from a word processor document.
	// Chunked on paragraph breaks.
	DocumentTypeDoc DocumentType = "doc"

	// DocumentTypeTxt is plain text. Chunked on sentence breaks.
	DocumentTypeTxt DocumentType = "txt"
)

// DocumentTypes lists every supported type in display order.
func DocumentTypes() []DocumentType {
	return []DocumentType{DocumentTypePDF, DocumentTypeDoc, DocumentTypeTxt}
}

// IsValid returns true if the document type is supported.
func (t DocumentType) IsValid() bool {
	switch t {
	case DocumentTypePDF, DocumentTypeDoc, DocumentTypeTxt:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t DocumentType) String() string {
	return string(t)
}

// Document is the input to ingestion.
// Text extraction happens upstream; Text is already plain UTF-8.
type Document struct {
	// ID is optional. When empty the coordinator generates one.
	ID string

	// Text is the full extracted text.
	Text string

	// Filename is the display name of the source file.
	Filename string

	// Type selects the chunk boundary strategy.
	Type DocumentType

	// TotalPages is the page count when known (0 = unknown).
	// Used for best-effort page estimation on chunks.
	TotalPages int

	// Title is optional source metadata.
	Title string

	// Author is optional source metadata.
	Author string
}

// SourceMetadata describes the original file, when known.
type SourceMetadata struct {
	Title  string
	Author string
	Pages  int
}

// DocumentIndexEntry is the registry record for one indexed document.
// TotalChunks always equals the number of live chunks for DocumentID.
type DocumentIndexEntry struct {
	DocumentID  string
	Filename    string
	Type        DocumentType
	TotalChunks int
	IndexedAt   time.Time
	Source      SourceMetadata
}

// IndexResult reports the outcome of ingesting one document.
type IndexResult struct {
	// Success is true only when every chunk was embedded and indexed.
	Success bool

	// DocumentID is the id assigned to the document.
	DocumentID string

	// ChunksCreated is the number of chunks indexed (0 on failure).
	ChunksCreated int

	// ProcessingTime is the wall time spent in Process.
	ProcessingTime time.Duration

	// Warnings lists non-fatal issues and, on failure, per-chunk errors.
	Warnings []string
}

// RawDocument is a file's bytes before text extraction.
type RawDocument struct {
	Path    string
	Content []byte
}
