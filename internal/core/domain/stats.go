package domain

// IndexStats summarises the contents of an index.
type IndexStats struct {
	TotalDocuments           int
	TotalChunks              int
	DocumentTypes            map[DocumentType]int
	AverageChunksPerDocument float64

	// Dimensions is the established embedding length (0 before first insert).
	Dimensions int
}
