// Package embedding wraps an EmbeddingProvider with bounded concurrency,
// rate limiting, per-call timeouts and retries of transient failures.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Defaults for batch embedding.
const (
	DefaultConcurrency = 10
	DefaultCooldown    = time.Second
	DefaultTimeout     = 30 * time.Second
	DefaultMaxAttempts = 3
)

// Client embeds single texts and batches through an EmbeddingProvider.
// It performs no caching.
type Client struct {
	provider    driven.EmbeddingProvider
	limiter     *RateLimiter
	concurrency int
	cooldown    time.Duration
	timeout     time.Duration
	maxAttempts int
	newBackOff  func() backoff.BackOff

	// dims is the vector length established by the first successful call.
	dims atomic.Int64
}

// Option configures the client.
type Option func(*Client)

// WithConcurrency sets the number of calls per batch group.
func WithConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithCooldown sets the pause between batch groups.
func WithCooldown(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.cooldown = d
		}
	}
}

// WithTimeout bounds each provider call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxAttempts sets the total number of attempts per text.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithRateLimiter replaces the default unlimited rate limiter.
func WithRateLimiter(l *RateLimiter) Option {
	return func(c *Client) {
		if l != nil {
			c.limiter = l
		}
	}
}

// WithBackOff sets the retry schedule factory. Attempts are still
// bounded by WithMaxAttempts.
func WithBackOff(f func() backoff.BackOff) Option {
	return func(c *Client) {
		if f != nil {
			c.newBackOff = f
		}
	}
}

// NewClient creates a client for the given provider.
func NewClient(provider driven.EmbeddingProvider, opts ...Option) *Client {
	c := &Client{
		provider:    provider,
		limiter:     NewRateLimiter(RateLimitConfig{}),
		concurrency: DefaultConcurrency,
		cooldown:    DefaultCooldown,
		timeout:     DefaultTimeout,
		maxAttempts: DefaultMaxAttempts,
		newBackOff:  defaultBackOff,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NewClientFromSettings creates a client configured from embedding settings.
// Zero values keep the defaults, except Cooldown where zero disables the
// pause. A rate limiter is installed only when RequestsPerSecond is set.
// Options in extra are applied last.
func NewClientFromSettings(provider driven.EmbeddingProvider, s domain.EmbeddingSettings, extra ...Option) *Client {
	opts := []Option{
		WithConcurrency(s.Concurrency),
		WithCooldown(s.Cooldown),
		WithTimeout(s.Timeout),
		WithMaxAttempts(s.MaxAttempts),
	}
	if s.RequestsPerSecond > 0 {
		opts = append(opts, WithRateLimiter(NewRateLimiter(RateLimitConfig{RequestsPerSecond: s.RequestsPerSecond})))
	}
	return NewClient(provider, append(opts, extra...)...)
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// ModelName returns the provider's model name.
func (c *Client) ModelName() string {
	return c.provider.ModelName()
}

// Dimensions returns the vector length seen so far (0 before the first call).
func (c *Client) Dimensions() int {
	return int(c.dims.Load())
}

// EmbedOne embeds a single text. Failures after retries are returned as
// *domain.EmbeddingProviderError with Index -1.
func (c *Client) EmbedOne(ctx context.Context, text string, task domain.TaskType) ([]float32, error) {
	return c.embed(ctx, text, task, -1)
}

// EmbedBatch embeds texts in groups of at most the configured concurrency,
// pausing for the cooldown between groups. A failed item does not abort
// the batch; it is reported in Failures and its vector is nil.
//
// An error is returned only when ctx is cancelled or a vector length
// differs from the established dimensionality. The partial result is
// returned alongside it.
func (c *Client) EmbedBatch(ctx context.Context, texts []string, task domain.TaskType) (*domain.BatchEmbedding, error) {
	out := &domain.BatchEmbedding{Vectors: make([][]float32, len(texts))}
	var mu sync.Mutex

	for start := 0; start < len(texts); start += c.concurrency {
		if start > 0 && c.cooldown > 0 {
			if err := sleep(ctx, c.cooldown); err != nil {
				return out, err
			}
		}
		if err := ctx.Err(); err != nil {
			return out, err
		}

		end := min(start+c.concurrency, len(texts))
		logger.Debug("Embedding group [%d, %d) of %d", start, end, len(texts))

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			g.Go(func() error {
				vec, err := c.embed(gctx, texts[i], task, i)
				if err == nil {
					out.Vectors[i] = vec
					return nil
				}
				if errors.Is(err, domain.ErrDimensionMismatch) {
					return err
				}
				if gctx.Err() != nil {
					return gctx.Err()
				}
				mu.Lock()
				out.Failures = append(out.Failures, domain.EmbeddingFailure{Index: i, Err: err})
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return out, err
		}
	}

	slices.SortFunc(out.Failures, func(a, b domain.EmbeddingFailure) int {
		return a.Index - b.Index
	})

	return out, nil
}

func (c *Client) embed(ctx context.Context, text string, task domain.TaskType, index int) ([]float32, error) {
	var (
		vec      []float32
		attempts int
	)

	op := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		attempts++

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		v, err := c.provider.Embed(callCtx, text, task)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			if !c.retryable(err) {
				return backoff.Permanent(err)
			}
			logger.Debug("Embedding attempt %d failed: %v", attempts, err)
			return err
		}
		if len(v) == 0 {
			return backoff.Permanent(errors.New("provider returned an empty vector"))
		}
		if err := c.checkDimensions(len(v)); err != nil {
			return backoff.Permanent(err)
		}
		vec = v
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), uint64(c.maxAttempts-1)), ctx)
	if err := backoff.Retry(op, b); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var dm *domain.DimensionMismatchError
		if errors.As(err, &dm) {
			return nil, err
		}
		return nil, &domain.EmbeddingProviderError{Index: index, Attempts: attempts, Err: err}
	}

	return vec, nil
}

// retryable reports whether err is transient. Rate limit responses also
// open a backoff window on the limiter.
func (c *Client) retryable(err error) bool {
	var status *domain.ProviderStatusError
	if errors.As(err, &status) {
		if errors.Is(status, domain.ErrRateLimited) {
			c.limiter.RecordRateLimit(status.RetryAfter)
		}
		return status.Temporary()
	}

	if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrDimensionMismatch) {
		return false
	}

	// Per-call deadline expiry and connection failures are transient.
	return !errors.Is(err, context.Canceled)
}

func (c *Client) checkDimensions(n int) error {
	if c.dims.CompareAndSwap(0, int64(n)) {
		return nil
	}
	if expected := int(c.dims.Load()); expected != n {
		return &domain.DimensionMismatchError{Expected: expected, Actual: n}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("embedding cooldown: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
