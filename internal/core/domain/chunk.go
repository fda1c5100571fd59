package domain

import (
	"fmt"
	"slices"
	"time"
)

// Chunk is an immutable unit of retrievable text.
// Chunks are created by the coordinator and owned by the VectorIndex.
type Chunk struct {
	// ID is unique within the index: document id plus ordinal.
	ID string

	// Content is the chunk text.
	Content string

	// Embedding is the vector for Content. Its length is fixed per index.
	Embedding []float32

	// Metadata describes where the chunk came from.
	Metadata ChunkMetadata
}

// ChunkMetadata holds per-chunk source information.
type ChunkMetadata struct {
	DocumentID string

	// ChunkIndex is the ordinal within the document, contiguous from 0.
	ChunkIndex int

	// PageNumber is a best-effort estimate (0 = unknown).
	// It is derived proportionally from ChunkIndex and is not exact.
	PageNumber int

	Filename     string
	DocumentType DocumentType
	WordCount    int
	CreatedAt    time.Time
}

// ChunkID builds the index-wide chunk id for a document ordinal.
func ChunkID(documentID string, ordinal int) string {
	return fmt.Sprintf("%s#%d", documentID, ordinal)
}

// EstimatePage returns ceil((chunkIndex+1)/totalChunks * totalPages).
// Returns 0 when either total is unknown.
func EstimatePage(chunkIndex, totalChunks, totalPages int) int {
	if totalChunks <= 0 || totalPages <= 0 {
		return 0
	}
	num := (chunkIndex + 1) * totalPages
	page := num / totalChunks
	if num%totalChunks != 0 {
		page++
	}
	if page > totalPages {
		page = totalPages
	}
	return page
}

// ChunkFilter restricts which chunks a search considers.
// Empty slices match everything.
type ChunkFilter struct {
	DocumentIDs   []string
	DocumentTypes []DocumentType
}

// IsEmpty returns true if the filter matches every chunk.
func (f ChunkFilter) IsEmpty() bool {
	return len(f.DocumentIDs) == 0 && len(f.DocumentTypes) == 0
}

// Matches reports whether the chunk passes the filter.
func (f ChunkFilter) Matches(c *Chunk) bool {
	if len(f.DocumentIDs) > 0 && !slices.Contains(f.DocumentIDs, c.Metadata.DocumentID) {
		return false
	}
	if len(f.DocumentTypes) > 0 && !slices.Contains(f.DocumentTypes, c.Metadata.DocumentType) {
		return false
	}
	return true
}
