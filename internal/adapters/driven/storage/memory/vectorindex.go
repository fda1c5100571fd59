package memory

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// segment is a run of chunks of one document inserted by one call.
// Segments are immutable once published.
type segment struct {
	documentID string
	chunks     []domain.Chunk
}

// snapshot is an immutable view of the index.
type snapshot struct {
	segments []segment
	size     int
}

// VectorIndex is an in-memory implementation of driven.VectorIndex.
// Readers load the current snapshot without locking; writers are serialised
// and publish a new snapshot, so readers see either the state before or
// after a mutation, never a partial one.
type VectorIndex struct {
	mu   sync.Mutex
	ids  map[string]string // chunk id -> document id, writer-owned
	dims int               // writer-owned
	cur  atomic.Pointer[snapshot]

	// dimsView mirrors dims for lock-free reads.
	dimsView atomic.Int64
}

// NewVectorIndex creates an empty in-memory vector index.
func NewVectorIndex() *VectorIndex {
	idx := &VectorIndex{ids: make(map[string]string)}
	idx.cur.Store(&snapshot{})
	return idx
}

// InsertAll adds chunks atomically. The first insert fixes the
// dimensionality for the lifetime of the index, even if it later empties.
func (v *VectorIndex) InsertAll(ctx context.Context, chunks []domain.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	dims := v.dims
	seen := make(map[string]struct{}, len(chunks))
	for i := range chunks {
		c := &chunks[i]
		if c.ID == "" {
			return domain.NewValidationError("chunk.id", "empty id at position %d", i)
		}
		if c.Metadata.DocumentID == "" {
			return domain.NewValidationError("chunk.document_id", "empty document id for %s", c.ID)
		}
		if len(c.Embedding) == 0 {
			return domain.NewValidationError("chunk.embedding", "empty embedding for %s", c.ID)
		}
		if dims == 0 {
			dims = len(c.Embedding)
		}
		if len(c.Embedding) != dims {
			return &domain.DimensionMismatchError{Expected: dims, Actual: len(c.Embedding), ChunkID: c.ID}
		}
		if _, ok := v.ids[c.ID]; ok {
			return fmt.Errorf("chunk %s: %w", c.ID, domain.ErrAlreadyExists)
		}
		if _, ok := seen[c.ID]; ok {
			return fmt.Errorf("chunk %s repeated in batch: %w", c.ID, domain.ErrAlreadyExists)
		}
		seen[c.ID] = struct{}{}
	}

	old := v.cur.Load()
	segs := append(slices.Clip(old.segments), runsByDocument(chunks)...)

	for i := range chunks {
		v.ids[chunks[i].ID] = chunks[i].Metadata.DocumentID
	}
	v.dims = dims
	v.dimsView.Store(int64(dims))
	v.cur.Store(&snapshot{segments: segs, size: old.size + len(chunks)})

	return nil
}

// runsByDocument copies chunks into segments of consecutive same-document runs.
func runsByDocument(chunks []domain.Chunk) []segment {
	var runs []segment
	for i := 0; i < len(chunks); {
		j := i + 1
		for j < len(chunks) && chunks[j].Metadata.DocumentID == chunks[i].Metadata.DocumentID {
			j++
		}
		run := make([]domain.Chunk, j-i)
		for k := range run {
			run[k] = chunks[i+k]
			run[k].Embedding = slices.Clone(chunks[i+k].Embedding)
		}
		runs = append(runs, segment{documentID: chunks[i].Metadata.DocumentID, chunks: run})
		i = j
	}
	return runs
}

// DeleteByDocument removes every chunk of a document and returns the count.
// Deleting an unknown document removes nothing and is not an error.
func (v *VectorIndex) DeleteByDocument(ctx context.Context, documentID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	old := v.cur.Load()
	segs := make([]segment, 0, len(old.segments))
	removed := 0
	for _, seg := range old.segments {
		if seg.documentID != documentID {
			segs = append(segs, seg)
			continue
		}
		for i := range seg.chunks {
			delete(v.ids, seg.chunks[i].ID)
		}
		removed += len(seg.chunks)
	}
	if removed == 0 {
		return 0, nil
	}

	v.cur.Store(&snapshot{segments: segs, size: old.size - removed})
	return removed, nil
}

// Iterate yields matching chunks in insertion order. The snapshot is taken
// when Iterate is called; later mutations are not observed.
func (v *VectorIndex) Iterate(filter domain.ChunkFilter) iter.Seq[domain.Chunk] {
	snap := v.cur.Load()
	return func(yield func(domain.Chunk) bool) {
		for _, seg := range snap.segments {
			if len(filter.DocumentIDs) > 0 && !slices.Contains(filter.DocumentIDs, seg.documentID) {
				continue
			}
			for i := range seg.chunks {
				if !filter.Matches(&seg.chunks[i]) {
					continue
				}
				if !yield(seg.chunks[i]) {
					return
				}
			}
		}
	}
}

// CountByDocument returns the number of live chunks of a document.
func (v *VectorIndex) CountByDocument(documentID string) int {
	n := 0
	for _, seg := range v.cur.Load().segments {
		if seg.documentID == documentID {
			n += len(seg.chunks)
		}
	}
	return n
}

// Size returns the number of chunks.
func (v *VectorIndex) Size() int {
	return v.cur.Load().size
}

// Dimensions returns the established embedding length (0 before first insert).
func (v *VectorIndex) Dimensions() int {
	return int(v.dimsView.Load())
}
