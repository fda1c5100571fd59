package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// fixedChunker splits on "|" and ignores the hint.
type fixedChunker struct{}

func (fixedChunker) Split(text string, _ domain.DocumentType) []string {
	var out []string
	for _, p := range strings.Split(text, "|") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// mockEmbedder returns per-text vectors or failures.
type mockEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	fail    map[int]error
	err     error
	calls   int
	hook    func()
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string, task domain.TaskType) (*domain.BatchEmbedding, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.hook != nil {
		m.hook()
	}
	if task != domain.TaskDocument {
		return nil, fmt.Errorf("unexpected task %s", task)
	}
	out := &domain.BatchEmbedding{Vectors: make([][]float32, len(texts))}
	if m.err != nil {
		return out, m.err
	}
	for i, text := range texts {
		if err, ok := m.fail[i]; ok {
			out.Failures = append(out.Failures, domain.EmbeddingFailure{Index: i, Err: err})
			continue
		}
		if v, ok := m.vectors[text]; ok {
			out.Vectors[i] = v
			continue
		}
		out.Vectors[i] = []float32{1, 0}
	}
	return out, nil
}

// stubRanker records the candidates it was given.
type stubRanker struct {
	ranking    *domain.Ranking
	err        error
	candidates []domain.Chunk
	calls      int
}

func (s *stubRanker) Strategy() domain.RankingStrategy { return domain.RankingEmbedding }

func (s *stubRanker) Rank(_ context.Context, _ string, candidates []domain.Chunk, _ domain.SearchOptions) (*domain.Ranking, error) {
	s.calls++
	s.candidates = candidates
	if s.err != nil {
		return nil, s.err
	}
	if s.ranking != nil {
		return s.ranking, nil
	}
	return &domain.Ranking{Strategy: domain.RankingEmbedding}, nil
}

type fixture struct {
	coord    *RAGCoordinator
	index    *memory.VectorIndex
	embedder *mockEmbedder
	ranker   *stubRanker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	n := 0

	f := &fixture{
		index:    memory.NewVectorIndex(),
		embedder: &mockEmbedder{},
		ranker:   &stubRanker{},
	}
	f.coord = NewRAGCoordinator(fixedChunker{}, f.embedder, f.index, f.ranker,
		WithClock(func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			clock = clock.Add(time.Millisecond)
			return clock
		}),
		WithIDGenerator(func() string {
			mu.Lock()
			defer mu.Unlock()
			n++
			return fmt.Sprintf("doc-%d", n)
		}),
	)
	return f
}

func fiveChunkDoc() domain.Document {
	return domain.Document{
		Text:       "one|two|three|four|five",
		Filename:   "report.pdf",
		Type:       domain.DocumentTypePDF,
		TotalPages: 10,
		Title:      "Report",
	}
}

func TestProcess_Success(t *testing.T) {
	f := newFixture(t)

	res, err := f.coord.Process(context.Background(), fiveChunkDoc())

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "doc-1", res.DocumentID)
	assert.Equal(t, 5, res.ChunksCreated)
	assert.Positive(t, res.ProcessingTime)

	var chunks []domain.Chunk
	for c := range f.index.Iterate(domain.ChunkFilter{}) {
		chunks = append(chunks, c)
	}
	require.Len(t, chunks, 5)
	for i, c := range chunks {
		assert.Equal(t, domain.ChunkID("doc-1", i), c.ID)
		assert.Equal(t, i, c.Metadata.ChunkIndex)
		assert.Equal(t, "report.pdf", c.Metadata.Filename)
		assert.Equal(t, domain.DocumentTypePDF, c.Metadata.DocumentType)
		assert.Equal(t, 1, c.Metadata.WordCount)
	}
	// ceil((i+1)/5 * 10)
	assert.Equal(t, 2, chunks[0].Metadata.PageNumber)
	assert.Equal(t, 10, chunks[4].Metadata.PageNumber)

	entry, err := f.coord.Document(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 5, entry.TotalChunks)
	assert.Equal(t, "Report", entry.Source.Title)
	assert.Equal(t, 10, entry.Source.Pages)
}

func TestProcess_Validation(t *testing.T) {
	tests := []struct {
		name    string
		doc     domain.Document
		wantErr error
	}{
		{"empty text", domain.Document{Text: "  \n", Type: domain.DocumentTypeTxt}, domain.ErrInvalidInput},
		{"unsupported type", domain.Document{Text: "x", Type: "xlsx"}, domain.ErrUnsupportedType},
		{"no chunks", domain.Document{Text: "| |", Type: domain.DocumentTypeTxt}, domain.ErrNoChunks},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			res, err := f.coord.Process(context.Background(), tt.doc)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			require.NotNil(t, res)
			assert.False(t, res.Success)
			assert.Equal(t, 0, f.embedder.calls, "validation must happen before embedding")
			assert.Equal(t, 0, f.index.Size())
		})
	}
}

func TestProcess_AllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.coord.Process(ctx, domain.Document{Text: "a|b", Type: domain.DocumentTypeTxt})
	require.NoError(t, err)
	before := f.coord.Stats(ctx)

	f.embedder.fail = map[int]error{2: &domain.EmbeddingProviderError{Index: 2, Attempts: 3, Err: errors.New("503")}}
	res, err := f.coord.Process(ctx, fiveChunkDoc())

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.False(t, res.Success)
	assert.Equal(t, 0, res.ChunksCreated)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "chunk 2")

	after := f.coord.Stats(ctx)
	assert.Equal(t, before.TotalChunks, after.TotalChunks)
	assert.Equal(t, before.TotalDocuments, after.TotalDocuments)
	_, err = f.coord.Document(ctx, res.DocumentID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProcess_AllChunksFail(t *testing.T) {
	f := newFixture(t)
	down := &domain.EmbeddingProviderError{Attempts: 3, Err: errors.New("connection refused")}
	f.embedder.fail = map[int]error{0: down, 1: down}

	res, err := f.coord.Process(context.Background(), domain.Document{Text: "a|b", Type: domain.DocumentTypeTxt})

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Contains(t, err.Error(), "all 2 chunks")
	assert.Len(t, res.Warnings, 2)
	assert.Equal(t, 0, f.index.Size())
}

func TestProcess_DimensionMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.coord.Process(ctx, domain.Document{Text: "a", Type: domain.DocumentTypeTxt})
	require.NoError(t, err)

	f.embedder.vectors = map[string][]float32{"b": {1, 0, 0}}
	_, err = f.coord.Process(ctx, domain.Document{Text: "b", Type: domain.DocumentTypeTxt})

	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Equal(t, 1, f.coord.Stats(ctx).TotalDocuments)
	assert.Equal(t, 1, f.index.Size())
}

func TestProcess_CallerSuppliedID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := fiveChunkDoc()
	doc.ID = "handbook"

	res, err := f.coord.Process(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, "handbook", res.DocumentID)

	_, err = f.coord.Process(ctx, doc)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	assert.Equal(t, 5, f.index.Size())

	// Remove then re-process with the same id.
	ok, err := f.coord.Remove(ctx, "handbook")
	require.NoError(t, err)
	require.True(t, ok)
	_, err = f.coord.Process(ctx, doc)
	assert.NoError(t, err)
}

func TestProcess_SameIDSerialised(t *testing.T) {
	f := newFixture(t)
	doc := fiveChunkDoc()
	doc.ID = "same"

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.coord.Process(context.Background(), doc)
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, domain.ErrAlreadyExists)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 5, f.index.Size())
	assert.Equal(t, 0, f.coord.docLocks.Len())
}

func TestProcess_DifferentDocumentsInParallel(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc := fiveChunkDoc()
			doc.ID = fmt.Sprintf("p-%d", i)
			_, err := f.coord.Process(context.Background(), doc)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stats := f.coord.Stats(context.Background())
	assert.Equal(t, 10, stats.TotalDocuments)
	assert.Equal(t, 50, stats.TotalChunks)
	for _, e := range f.coord.Documents(context.Background()) {
		assert.Equal(t, e.TotalChunks, f.index.CountByDocument(e.DocumentID))
	}
}

func TestProcess_Cancelled(t *testing.T) {
	t.Run("before chunking", func(t *testing.T) {
		f := newFixture(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		res, err := f.coord.Process(ctx, fiveChunkDoc())

		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, res.Success)
		assert.Equal(t, 0, f.embedder.calls)
	})

	t.Run("during embedding", func(t *testing.T) {
		f := newFixture(t)
		ctx, cancel := context.WithCancel(context.Background())
		f.embedder.hook = cancel

		_, err := f.coord.Process(ctx, fiveChunkDoc())

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, f.index.Size())
		assert.Equal(t, 0, f.coord.Stats(context.Background()).TotalDocuments)
	})

	t.Run("embedder reports cancellation", func(t *testing.T) {
		f := newFixture(t)
		f.embedder.err = context.Canceled

		_, err := f.coord.Process(context.Background(), fiveChunkDoc())

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, f.index.Size())
	})
}

func TestRemove_Cascade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.coord.Process(ctx, domain.Document{Text: "keep|me", Type: domain.DocumentTypeTxt})
	require.NoError(t, err)
	before := f.coord.Stats(ctx).TotalChunks

	res, err := f.coord.Process(ctx, fiveChunkDoc())
	require.NoError(t, err)

	ok, err := f.coord.Remove(ctx, res.DocumentID)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, before, f.coord.Stats(ctx).TotalChunks)
	for c := range f.index.Iterate(domain.ChunkFilter{}) {
		assert.NotEqual(t, res.DocumentID, c.Metadata.DocumentID)
	}

	ok, err = f.coord.Remove(ctx, res.DocumentID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSearch_EmptyIndex(t *testing.T) {
	f := newFixture(t)

	resp, err := f.coord.Search(context.Background(), "anything", domain.SearchOptions{})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Results)
	assert.Equal(t, 0, resp.TotalDocuments)
	assert.Equal(t, 0, f.ranker.calls, "an empty index must not call the provider")
}

func TestSearch_EmptyQuery(t *testing.T) {
	f := newFixture(t)
	_, err := f.coord.Process(context.Background(), fiveChunkDoc())
	require.NoError(t, err)

	resp, err := f.coord.Search(context.Background(), "   ", domain.SearchOptions{})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Results)
	assert.Equal(t, 1, resp.TotalDocuments)
	assert.Equal(t, 0, f.ranker.calls)
}

func TestSearch_PassesFilteredCandidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.coord.Process(ctx, fiveChunkDoc())
	require.NoError(t, err)
	_, err = f.coord.Process(ctx, domain.Document{Text: "x|y", Type: domain.DocumentTypeTxt})
	require.NoError(t, err)

	resp, err := f.coord.Search(ctx, "q", domain.SearchOptions{DocumentTypes: []domain.DocumentType{domain.DocumentTypeTxt}})

	require.NoError(t, err)
	assert.Equal(t, 2, resp.TotalDocuments)
	require.Len(t, f.ranker.candidates, 2)
	assert.Equal(t, "doc-2", f.ranker.candidates[0].Metadata.DocumentID)
}

func TestSearch_MapsRanking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.coord.Process(ctx, fiveChunkDoc())
	require.NoError(t, err)

	c := domain.Chunk{ID: "doc-1#3", Content: "four", Metadata: domain.ChunkMetadata{
		DocumentID: "doc-1", ChunkIndex: 3, PageNumber: 8, Filename: "report.pdf", DocumentType: domain.DocumentTypePDF,
	}}
	f.ranker.ranking = &domain.Ranking{
		Strategy: domain.RankingKeyword,
		Results:  []domain.RankedChunk{{Chunk: c, Similarity: 0.4, Rank: 1}},
		Warnings: []string{"fell back"},
	}

	resp, err := f.coord.Search(ctx, "four", domain.SearchOptions{})

	require.NoError(t, err)
	assert.Equal(t, domain.RankingKeyword, resp.Strategy)
	assert.Equal(t, []string{"fell back"}, resp.Warnings)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, domain.RankedResult{
		ChunkID: "doc-1#3", DocumentID: "doc-1", Content: "four", Similarity: 0.4, Rank: 1,
		Filename: "report.pdf", DocumentType: domain.DocumentTypePDF, ChunkIndex: 3, PageNumber: 8,
	}, resp.Results[0])
}

func TestSearch_ProviderUnavailableIsHardFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.coord.Process(ctx, fiveChunkDoc())
	require.NoError(t, err)
	f.ranker.err = &domain.EmbeddingProviderError{Index: -1, Attempts: 3, Err: errors.New("down")}

	resp, err := f.coord.Search(ctx, "q", domain.SearchOptions{})

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	require.NotNil(t, resp)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
	assert.Equal(t, 1, resp.TotalDocuments)
}

func TestSearch_InvalidOptions(t *testing.T) {
	f := newFixture(t)

	_, err := f.coord.Search(context.Background(), "q", domain.SearchOptions{MinSimilarity: domain.Similarity(1.5)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.coord.Search(context.Background(), "q", domain.SearchOptions{DocumentTypes: []domain.DocumentType{"xls"}})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	empty := f.coord.Stats(ctx)
	assert.Equal(t, 0, empty.TotalDocuments)
	assert.Zero(t, empty.AverageChunksPerDocument)

	_, err := f.coord.Process(ctx, fiveChunkDoc())
	require.NoError(t, err)
	_, err = f.coord.Process(ctx, domain.Document{Text: "a|b|c", Type: domain.DocumentTypeTxt})
	require.NoError(t, err)

	stats := f.coord.Stats(ctx)
	assert.Equal(t, 2, stats.TotalDocuments)
	assert.Equal(t, 8, stats.TotalChunks)
	assert.Equal(t, map[domain.DocumentType]int{domain.DocumentTypePDF: 1, domain.DocumentTypeTxt: 1}, stats.DocumentTypes)
	assert.InDelta(t, 4.0, stats.AverageChunksPerDocument, 1e-9)
	assert.Equal(t, 2, stats.Dimensions)
}

func TestDocuments_Ordered(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for range 3 {
		_, err := f.coord.Process(ctx, domain.Document{Text: "a", Type: domain.DocumentTypeTxt})
		require.NoError(t, err)
	}

	docs := f.coord.Documents(ctx)

	require.Len(t, docs, 3)
	assert.Equal(t, []string{"doc-1", "doc-2", "doc-3"}, []string{docs[0].DocumentID, docs[1].DocumentID, docs[2].DocumentID})
	assert.Equal(t, "doc-1", docs[0].Filename, "filename defaults to the id")
}

func TestDocument_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.coord.Document(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
