package domain

// TaskType tells the embedding model how the text will be used.
// Many models embed queries and documents asymmetrically.
type TaskType string

// Embedding task types.
const (
	// TaskDocument is used for chunks stored in the index.
	TaskDocument TaskType = "document"

	// TaskQuery is used for search queries.
	TaskQuery TaskType = "query"
)

// IsValid returns true if the task type is recognised.
func (t TaskType) IsValid() bool {
	return t == TaskDocument || t == TaskQuery
}

// String returns the string representation.
func (t TaskType) String() string {
	return string(t)
}

// EmbeddingFailure records a single failed item of a batch.
type EmbeddingFailure struct {
	Index int
	Err   error
}

// BatchEmbedding is the result of embedding a batch of texts.
// Vectors[i] is nil when index i appears in Failures.
type BatchEmbedding struct {
	Vectors  [][]float32
	Failures []EmbeddingFailure
}

// Succeeded returns the number of texts embedded successfully.
func (b *BatchEmbedding) Succeeded() int {
	return len(b.Vectors) - len(b.Failures)
}
