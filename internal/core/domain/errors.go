package domain

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown document type or provider.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrNoChunks indicates chunking produced nothing worth indexing.
	ErrNoChunks = errors.New("no meaningful chunks")

	// ErrEmbeddingUnavailable indicates the embedding provider could not
	// produce a vector after retries.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrDimensionMismatch indicates an embedding length differs from the
	// length established for the index.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrRateLimited indicates the provider rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)

// ValidationError is returned before any embedding call when a document
// or query is rejected.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError creates a validation error for the given field.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is reports ErrInvalidInput so callers can match on the sentinel.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// EmbeddingProviderError reports an embedding call that failed for good,
// either because retries were exhausted or the failure was permanent.
type EmbeddingProviderError struct {
	// Index is the batch position, or -1 for a single embedding.
	Index    int
	Attempts int
	Err      error
}

func (e *EmbeddingProviderError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("embed item %d after %d attempt(s): %v", e.Index, e.Attempts, e.Err)
	}
	return fmt.Sprintf("embed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *EmbeddingProviderError) Unwrap() error {
	return e.Err
}

// Is reports ErrEmbeddingUnavailable so callers can match on the sentinel.
func (e *EmbeddingProviderError) Is(target error) bool {
	return target == ErrEmbeddingUnavailable
}

// DimensionMismatchError is fatal: it is never retried.
type DimensionMismatchError struct {
	Expected int
	Actual   int
	ChunkID  string
}

func (e *DimensionMismatchError) Error() string {
	if e.ChunkID != "" {
		return fmt.Sprintf("embedding dimension mismatch for %s: expected %d, got %d", e.ChunkID, e.Expected, e.Actual)
	}
	return fmt.Sprintf("embedding dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Is reports ErrDimensionMismatch so callers can match on the sentinel.
func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}

// ProviderStatusError is returned by provider adapters for non-2xx responses.
type ProviderStatusError struct {
	Provider   string
	StatusCode int

	// RetryAfter is parsed from the Retry-After header (0 = absent).
	RetryAfter time.Duration
	Body       string
}

func (e *ProviderStatusError) Error() string {
	return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// Temporary returns true for statuses worth retrying (429 and 5xx).
func (e *ProviderStatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// Is reports ErrRateLimited for 429 responses.
func (e *ProviderStatusError) Is(target error) bool {
	return target == ErrRateLimited && e.StatusCode == http.StatusTooManyRequests
}
