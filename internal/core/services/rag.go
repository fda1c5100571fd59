package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/keyedmutex"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure RAGCoordinator implements the interface.
var _ driving.RAGService = (*RAGCoordinator)(nil)

// DocumentEmbedder embeds chunk texts in bulk. *embedding.Client satisfies it.
type DocumentEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string, task domain.TaskType) (*domain.BatchEmbedding, error)
}

// RAGCoordinator orchestrates ingestion and search over one index.
// It owns the document registry; chunks are owned by the VectorIndex.
//
// Processing of different documents runs in parallel. Calls for the same
// document id are serialised. Index and registry changes are committed
// together under an exclusive lock that searches and stats share.
type RAGCoordinator struct {
	chunker  driven.Chunker
	embedder DocumentEmbedder
	index    driven.VectorIndex
	ranker   driven.Ranker

	now   func() time.Time
	newID func() string

	docLocks *keyedmutex.Mutex

	mu       sync.RWMutex
	registry map[string]domain.DocumentIndexEntry
}

// CoordinatorOption configures the coordinator.
type CoordinatorOption func(*RAGCoordinator)

// WithClock sets the time source used for timestamps and timings.
func WithClock(now func() time.Time) CoordinatorOption {
	return func(c *RAGCoordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// WithIDGenerator sets the generator for document ids.
func WithIDGenerator(newID func() string) CoordinatorOption {
	return func(c *RAGCoordinator) {
		if newID != nil {
			c.newID = newID
		}
	}
}

// NewRAGCoordinator creates a coordinator over an empty or pre-populated index.
func NewRAGCoordinator(
	chunker driven.Chunker,
	embedder DocumentEmbedder,
	index driven.VectorIndex,
	ranker driven.Ranker,
	opts ...CoordinatorOption,
) *RAGCoordinator {
	c := &RAGCoordinator{
		chunker:  chunker,
		embedder: embedder,
		index:    index,
		ranker:   ranker,
		now:      time.Now,
		newID:    uuid.NewString,
		docLocks: keyedmutex.New(),
		registry: make(map[string]domain.DocumentIndexEntry),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Process validates, chunks, embeds and indexes a document.
func (c *RAGCoordinator) Process(ctx context.Context, doc domain.Document) (*domain.IndexResult, error) {
	start := c.now()
	logger.Section("Ingest")

	result := &domain.IndexResult{DocumentID: doc.ID}
	fail := func(err error) (*domain.IndexResult, error) {
		result.ProcessingTime = c.now().Sub(start)
		logger.Warn("Indexing %q failed: %v", doc.Filename, err)
		return result, err
	}

	if err := validateDocument(doc); err != nil {
		return fail(err)
	}

	if doc.ID == "" {
		doc.ID = c.newID()
		result.DocumentID = doc.ID
	}
	if doc.Filename == "" {
		doc.Filename = doc.ID
	}
	logger.Debug("Document %s: %q (%s, %d chars)", doc.ID, doc.Filename, doc.Type, len(doc.Text))

	unlock := c.docLocks.Lock(doc.ID)
	defer unlock()

	if c.isIndexed(doc.ID) {
		return fail(fmt.Errorf("document %s: %w", doc.ID, domain.ErrAlreadyExists))
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	texts := c.chunker.Split(doc.Text, doc.Type)
	if len(texts) == 0 {
		return fail(fmt.Errorf("%w: %w", domain.ErrNoChunks,
			domain.NewValidationError("text", "no chunk reaches the minimum meaningful length")))
	}
	logger.Debug("Chunked into %d chunks", len(texts))

	batch, err := c.embedder.EmbedBatch(ctx, texts, domain.TaskDocument)
	if err != nil {
		return fail(err)
	}
	if len(batch.Failures) > 0 {
		for _, f := range batch.Failures {
			result.Warnings = append(result.Warnings, fmt.Sprintf("chunk %d: %v", f.Index, f.Err))
		}
		first := batch.Failures[0]
		if batch.Succeeded() == 0 {
			return fail(fmt.Errorf("all %d chunks failed to embed: %w", len(texts), first.Err))
		}
		// A partially embedded document would silently lose recall.
		return fail(fmt.Errorf("%d of %d chunks failed to embed, document not indexed: %w",
			len(batch.Failures), len(texts), first.Err))
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	createdAt := c.now()
	chunks := make([]domain.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = domain.Chunk{
			ID:        domain.ChunkID(doc.ID, i),
			Content:   text,
			Embedding: batch.Vectors[i],
			Metadata: domain.ChunkMetadata{
				DocumentID:   doc.ID,
				ChunkIndex:   i,
				PageNumber:   domain.EstimatePage(i, len(texts), doc.TotalPages),
				Filename:     doc.Filename,
				DocumentType: doc.Type,
				WordCount:    len(strings.Fields(text)),
				CreatedAt:    createdAt,
			},
		}
	}

	entry := domain.DocumentIndexEntry{
		DocumentID:  doc.ID,
		Filename:    doc.Filename,
		Type:        doc.Type,
		TotalChunks: len(chunks),
		IndexedAt:   createdAt,
		Source: domain.SourceMetadata{
			Title:  doc.Title,
			Author: doc.Author,
			Pages:  doc.TotalPages,
		},
	}

	if err := c.commit(ctx, entry, chunks); err != nil {
		return fail(err)
	}

	result.Success = true
	result.ChunksCreated = len(chunks)
	result.ProcessingTime = c.now().Sub(start)
	logger.Info("Indexed %q as %s: %d chunks in %s", doc.Filename, doc.ID, len(chunks), result.ProcessingTime)

	return result, nil
}

func validateDocument(doc domain.Document) error {
	if strings.TrimSpace(doc.Text) == "" {
		return domain.NewValidationError("text", "document text is empty")
	}
	if !doc.Type.IsValid() {
		return fmt.Errorf("%w: %w", domain.ErrUnsupportedType,
			domain.NewValidationError("type", "unsupported document type %q", doc.Type))
	}
	return nil
}

func (c *RAGCoordinator) isIndexed(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.registry[id]
	return ok
}

// commit inserts the chunks and registers the entry as one step.
func (c *RAGCoordinator) commit(ctx context.Context, entry domain.DocumentIndexEntry, chunks []domain.Chunk) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.index.InsertAll(ctx, chunks); err != nil {
		return fmt.Errorf("insert chunks: %w", err)
	}
	c.registry[entry.DocumentID] = entry
	return nil
}

// Search ranks indexed chunks against the query. An empty query or an
// empty index returns an empty, successful response without calling the
// embedding provider.
func (c *RAGCoordinator) Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResponse, error) {
	start := c.now()
	logger.Section("Search")
	logger.Debug("Query: %q", query)

	resp := &domain.SearchResponse{Strategy: c.ranker.Strategy()}
	finish := func(err error) (*domain.SearchResponse, error) {
		resp.SearchTime = c.now().Sub(start)
		if err != nil {
			resp.Success = false
			resp.Error = err.Error()
			logger.Warn("Search failed: %v", err)
			return resp, err
		}
		resp.Success = true
		return resp, nil
	}

	if err := validateSearchOptions(opts); err != nil {
		return finish(err)
	}

	query = strings.TrimSpace(query)

	c.mu.RLock()
	resp.TotalDocuments = len(c.registry)
	var candidates []domain.Chunk
	if query != "" && resp.TotalDocuments > 0 {
		candidates = slices.Collect(c.index.Iterate(opts.Filter()))
	}
	c.mu.RUnlock()

	if query == "" {
		logger.Debug("Empty query, returning no results")
		return finish(nil)
	}
	if resp.TotalDocuments == 0 {
		logger.Debug("Index is empty, returning no results")
		return finish(nil)
	}
	logger.Debug("Candidates after filters: %d", len(candidates))

	ranking, err := c.ranker.Rank(ctx, query, candidates, opts)
	if err != nil {
		return finish(fmt.Errorf("rank: %w", err))
	}

	resp.Strategy = ranking.Strategy
	resp.Warnings = ranking.Warnings
	resp.Results = make([]domain.RankedResult, len(ranking.Results))
	for i, rc := range ranking.Results {
		resp.Results[i] = domain.NewRankedResult(rc)
	}
	logger.Info("Search returned %d results (%s)", len(resp.Results), resp.Strategy)

	return finish(nil)
}

func validateSearchOptions(opts domain.SearchOptions) error {
	if opts.MinSimilarity != nil && (*opts.MinSimilarity < -1 || *opts.MinSimilarity > 1) {
		return domain.NewValidationError("min_similarity", "must be in [-1, 1], got %v", *opts.MinSimilarity)
	}
	for _, t := range opts.DocumentTypes {
		if !t.IsValid() {
			return fmt.Errorf("%w: %w", domain.ErrUnsupportedType,
				domain.NewValidationError("document_types", "unsupported document type %q", t))
		}
	}
	return nil
}

// Remove deletes a document and all its chunks.
func (c *RAGCoordinator) Remove(ctx context.Context, documentID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	unlock := c.docLocks.Lock(documentID)
	defer unlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.registry[documentID]; !ok {
		return false, nil
	}

	n, err := c.index.DeleteByDocument(ctx, documentID)
	if err != nil {
		return false, fmt.Errorf("delete chunks of %s: %w", documentID, err)
	}
	delete(c.registry, documentID)
	logger.Info("Removed document %s (%d chunks)", documentID, n)

	return true, nil
}

// Stats summarises the index.
func (c *RAGCoordinator) Stats(_ context.Context) domain.IndexStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := domain.IndexStats{
		TotalDocuments: len(c.registry),
		TotalChunks:    c.index.Size(),
		DocumentTypes:  make(map[domain.DocumentType]int),
		Dimensions:     c.index.Dimensions(),
	}
	for _, e := range c.registry {
		stats.DocumentTypes[e.Type]++
	}
	if stats.TotalDocuments > 0 {
		stats.AverageChunksPerDocument = float64(stats.TotalChunks) / float64(stats.TotalDocuments)
	}
	return stats
}

// Documents lists indexed documents ordered by indexing time, then id.
func (c *RAGCoordinator) Documents(_ context.Context) []domain.DocumentIndexEntry {
	c.mu.RLock()
	entries := make([]domain.DocumentIndexEntry, 0, len(c.registry))
	for _, e := range c.registry {
		entries = append(entries, e)
	}
	c.mu.RUnlock()

	slices.SortFunc(entries, func(a, b domain.DocumentIndexEntry) int {
		if n := a.IndexedAt.Compare(b.IndexedAt); n != 0 {
			return n
		}
		return strings.Compare(a.DocumentID, b.DocumentID)
	})
	return entries
}

// Document returns the registry entry for a document.
func (c *RAGCoordinator) Document(_ context.Context, documentID string) (*domain.DocumentIndexEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.registry[documentID]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", documentID, domain.ErrNotFound)
	}
	return &e, nil
}
