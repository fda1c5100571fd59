package filesystem

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/keyedmutex"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// DefaultSyncConcurrency is the number of files indexed at once by SyncDir.
const DefaultSyncConcurrency = 4

// Indexer is the part of the RAG service the syncer drives.
type Indexer interface {
	Process(ctx context.Context, doc domain.Document) (*domain.IndexResult, error)
	Remove(ctx context.Context, documentID string) (bool, error)
}

// SyncReport summarises a directory sync.
type SyncReport struct {
	// Indexed maps file paths to the results of successful ingestion.
	Indexed map[string]*domain.IndexResult

	// Failed maps file paths to the reason they were not indexed.
	Failed map[string]error
}

// Chunks returns the total number of chunks indexed.
func (r *SyncReport) Chunks() int {
	n := 0
	for _, res := range r.Indexed {
		n += res.ChunksCreated
	}
	return n
}

// Syncer keeps an index in step with files on disk.
// It tracks which document id each indexed path was given.
type Syncer struct {
	indexer     Indexer
	concurrency int

	mu        sync.Mutex
	docs      map[string]string // abs path -> document id
	pathLocks *keyedmutex.Mutex
}

// NewSyncer creates a syncer feeding indexer.
// concurrency <= 0 uses DefaultSyncConcurrency.
func NewSyncer(indexer Indexer, concurrency int) *Syncer {
	if concurrency <= 0 {
		concurrency = DefaultSyncConcurrency
	}
	return &Syncer{
		indexer:     indexer,
		concurrency: concurrency,
		docs:        make(map[string]string),
		pathLocks:   keyedmutex.New(),
	}
}

// DocumentID returns the id a path was indexed under.
func (s *Syncer) DocumentID(path string) (string, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.docs[abs]
	return id, ok
}

// Paths lists indexed paths in lexical order.
func (s *Syncer) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Sorted(maps.Keys(s.docs))
}

// SyncPath indexes a file, replacing any earlier version of it.
// Re-indexing removes the old chunks first; if the new version then fails
// to ingest, the file is left unindexed.
func (s *Syncer) SyncPath(ctx context.Context, path string) (*domain.IndexResult, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	unlock := s.pathLocks.Lock(abs)
	defer unlock()

	doc, err := LoadDocument(abs)
	if err != nil {
		return nil, err
	}

	if _, err := s.removeLocked(ctx, abs); err != nil {
		return nil, err
	}

	result, err := s.indexer.Process(ctx, doc)
	if err != nil {
		return result, fmt.Errorf("index %s: %w", path, err)
	}

	s.mu.Lock()
	s.docs[abs] = result.DocumentID
	s.mu.Unlock()

	logger.Debug("Indexed %s as %s (%d chunks)", abs, result.DocumentID, result.ChunksCreated)
	return result, nil
}

// RemovePath drops a file's document from the index.
// Returns false if the path was not indexed.
func (s *Syncer) RemovePath(ctx context.Context, path string) (bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("resolve %s: %w", path, err)
	}
	unlock := s.pathLocks.Lock(abs)
	defer unlock()

	return s.removeLocked(ctx, abs)
}

// removeLocked requires the path lock for abs.
func (s *Syncer) removeLocked(ctx context.Context, abs string) (bool, error) {
	s.mu.Lock()
	id, ok := s.docs[abs]
	s.mu.Unlock()
	if !ok {
		return false, nil
	}

	removed, err := s.indexer.Remove(ctx, id)
	if err != nil {
		return false, fmt.Errorf("remove %s: %w", abs, err)
	}

	s.mu.Lock()
	delete(s.docs, abs)
	s.mu.Unlock()

	logger.Debug("Removed %s (%s)", abs, id)
	return removed, nil
}

// SyncDir indexes every supported file under root.
// Per-file failures are collected in the report; only scanning errors and
// context cancellation fail the sync.
func (s *Syncer) SyncDir(ctx context.Context, root string) (*SyncReport, error) {
	paths, err := Scan(root)
	if err != nil {
		return nil, err
	}

	report := &SyncReport{
		Indexed: make(map[string]*domain.IndexResult),
		Failed:  make(map[string]error),
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, path := range paths {
		g.Go(func() error {
			result, err := s.SyncPath(gctx, path)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				logger.Warn("Skipping %s: %v", path, err)
				report.Failed[path] = err
				return nil
			}
			report.Indexed[path] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, err
	}
	return report, nil
}
