// Package app assembles the RAG engine from settings: embedding provider,
// client, chunker, index, rankers, coordinator and filesystem syncer.
package app

import (
	"context"
	"maps"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-rag/internal/chunker"
	"github.com/custodia-labs/sercha-rag/internal/connectors/filesystem"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/services"
	"github.com/custodia-labs/sercha-rag/internal/embedding"
	"github.com/custodia-labs/sercha-rag/internal/logger"
	"github.com/custodia-labs/sercha-rag/internal/search"
)

// Engine is a fully wired RAG stack over one in-memory index.
type Engine struct {
	Settings    domain.RAGSettings
	Coordinator *services.RAGCoordinator
	Syncer      *filesystem.Syncer
	Chunker     *chunker.Chunker

	// Warnings lists non-fatal start-up issues, such as a provider fallback.
	Warnings []string

	provider *ai.InitResult
}

// Option configures engine construction.
type Option func(*options)

type options struct {
	provider driven.EmbeddingProvider
	client   []embedding.Option
}

// WithProvider uses provider instead of building one from settings.
func WithProvider(p driven.EmbeddingProvider) Option {
	return func(o *options) { o.provider = p }
}

// WithClientOptions appends options for the embedding client.
func WithClientOptions(opts ...embedding.Option) Option {
	return func(o *options) { o.client = append(o.client, opts...) }
}

// New validates settings and builds an engine.
func New(ctx context.Context, settings domain.RAGSettings, opts ...Option) (*Engine, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger.Section("Engine")

	provider := &ai.InitResult{Provider: o.provider}
	if provider.Provider == nil {
		var err error
		provider, err = ai.Initialise(ctx, &settings.Embedding)
		if err != nil {
			return nil, err
		}
	}

	client := embedding.NewClientFromSettings(provider.Provider, settings.Embedding, o.client...)
	chk := NewChunker(settings.Chunking)

	var ranker driven.Ranker = search.NewEmbeddingRanker(client)
	if settings.Search.KeywordFallback {
		ranker = search.NewFallbackRanker(ranker, search.NewKeywordRanker())
	}

	coordinator := services.NewRAGCoordinator(chk, client, memory.NewVectorIndex(), ranker)

	logger.Debug("Embedding model: %s", provider.Provider.ModelName())
	logger.Debug("Chunking: size=%d overlap=%d", chk.ChunkSize(), chk.Overlap())

	return &Engine{
		Settings:    settings,
		Coordinator: coordinator,
		Syncer:      filesystem.NewSyncer(coordinator, 0),
		Chunker:     chk,
		Warnings:    provider.Warnings,
		provider:    provider,
	}, nil
}

// NewChunker builds a chunker from settings. Zero values keep the defaults.
func NewChunker(s domain.ChunkingSettings) *chunker.Chunker {
	return chunker.New(
		chunker.WithChunkSize(s.Size),
		chunker.WithOverlap(s.Overlap),
		chunker.WithMinChars(s.MinChars),
	)
}

// SearchOptions returns the configured defaults for a search.
// The similarity threshold is left to each ranker unless it was changed
// from the default, so keyword fallback keeps its own lower threshold.
func (e *Engine) SearchOptions() domain.SearchOptions {
	opts := domain.SearchOptions{MaxResults: e.Settings.Search.MaxResults}
	if e.Settings.Search.MinSimilarity != domain.DefaultMinSimilarity {
		opts.MinSimilarity = domain.Similarity(e.Settings.Search.MinSimilarity)
	}
	return opts
}

// IndexPaths syncs every path (file or directory) into the index.
// Per-file failures are reported, not returned.
func (e *Engine) IndexPaths(ctx context.Context, paths ...string) (*filesystem.SyncReport, error) {
	total := &filesystem.SyncReport{
		Indexed: make(map[string]*domain.IndexResult),
		Failed:  make(map[string]error),
	}
	for _, p := range paths {
		report, err := e.Syncer.SyncDir(ctx, p)
		if report != nil {
			maps.Copy(total.Indexed, report.Indexed)
			maps.Copy(total.Failed, report.Failed)
		}
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// ModelName returns the embedding model in use.
func (e *Engine) ModelName() string {
	if e.provider == nil || e.provider.Provider == nil {
		return ""
	}
	return e.provider.Provider.ModelName()
}

// Close releases the embedding provider.
func (e *Engine) Close() {
	if e.provider != nil {
		e.provider.Close()
	}
}
