package review

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/dshills/codecheck/internal/cache"
	"github.com/dshills/codecheck/internal/providers"
)

const (
	// DefaultConcurrency limits parallel model calls.
	DefaultConcurrency = 4
	// DefaultRequestsPerSecond spaces request starts across workers.
	DefaultRequestsPerSecond = 1.0
	// maxResponseTokens bounds each model response.
	maxResponseTokens = 4096
	// reviewTemperature is sent on every model call.
	reviewTemperature = 0.3
	// truncationMarker ends an oversized chunk cut down to the budget.
	truncationMarker = "\n... [diff truncated to fit budget]"
)

// requester fans chunk requests out to the provider with bounded
// concurrency, spacing request starts through a shared rate limiter.
// Results are collected per chunk index, so downstream ordering never
// depends on completion order.
type requester struct {
	reviewer providers.Reviewer
	limiter  *rate.Limiter
	store    *cache.Cache // nil disables response caching
	logger   *slog.Logger
	guides   *Guidelines
	provider string
	model    string
	workers  int
	budget   int
}

func newRequester(reviewer providers.Reviewer, opts Options, logger *slog.Logger) *requester {
	workers := opts.Concurrency
	if workers <= 0 {
		workers = DefaultConcurrency
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}
	budget := opts.ChunkBudget
	if budget <= 0 {
		budget = DefaultChunkBudget
	}
	return &requester{
		reviewer: reviewer,
		limiter:  rate.NewLimiter(rate.Limit(rps), workers),
		store:    opts.Cache,
		logger:   logger,
		guides:   opts.Guidelines,
		provider: opts.Provider,
		model:    opts.Model,
		workers:  workers,
		budget:   budget,
	}
}

// requestAll reviews every chunk. Failed chunks are returned separately and
// never abort the run; only context cancellation cuts the pool short, in
// which case unattempted chunks are reported as failures too.
func (r *requester) requestAll(ctx context.Context, chunks []Chunk) ([]ChunkResult, []ChunkFailure, int64) {
	results := make([]*ChunkResult, len(chunks))
	failures := make([]*ChunkFailure, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(r.workers))
	llmStart := time.Now()

	for i, c := range chunks {
		i, c := i, c
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)
			if err := r.limiter.Wait(gctx); err != nil {
				return err
			}

			res, err := r.requestOne(gctx, c)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				r.logger.Warn("chunk review failed, skipping",
					"file", c.File, "chunk", c.Index+1, "of", c.Total, "error", err)
				failures[i] = &ChunkFailure{File: c.File, Index: c.Index, Err: err, Cause: err.Error()}
				return nil
			}
			results[i] = res
			return nil
		})
	}

	err := g.Wait()
	llmMs := time.Since(llmStart).Milliseconds()
	if err != nil {
		for i, c := range chunks {
			if results[i] == nil && failures[i] == nil {
				failures[i] = &ChunkFailure{File: c.File, Index: c.Index, Err: err, Cause: err.Error()}
			}
		}
	}

	var out []ChunkResult
	var failed []ChunkFailure
	for i := range chunks {
		if results[i] != nil {
			out = append(out, *results[i])
		}
		if failures[i] != nil {
			failed = append(failed, *failures[i])
		}
	}
	return out, failed, llmMs
}

// requestOne performs a single chunk request: cache probe, model call,
// decode, and at most one repair pass when the response is not a JSON array.
func (r *requester) requestOne(ctx context.Context, c Chunk) (*ChunkResult, error) {
	text := c.Text
	if c.Oversized && len(text) > r.budget {
		text = text[:r.budget] + truncationMarker
		r.logger.Warn("oversized chunk truncated",
			"file", c.File, "chunk", c.Index+1, "bytes", len(c.Text), "budget", r.budget)
	}

	var key string
	if r.store != nil {
		key = cache.BuildKey(r.provider, r.model, c.Text)
		if content, ok := r.store.Get(key); ok {
			if suggs, dropped, err := ParseSuggestions(content, c); err == nil {
				r.logger.Debug("cache hit", "file", c.File, "chunk", c.Index+1)
				return &ChunkResult{Chunk: c, Suggestions: suggs, Dropped: dropped, FromCache: true}, nil
			}
		}
	}

	req := providers.ReviewRequest{
		SystemPrompt: SystemPrompt(),
		UserPrompt:   BuildUserPrompt(c, text, r.guides),
		MaxTokens:    maxResponseTokens,
		Temperature:  reviewTemperature,
	}

	resp, err := r.reviewer.Review(ctx, req)
	if err != nil {
		return nil, err
	}
	tokens := resp.TokensUsed

	suggs, dropped, perr := ParseSuggestions(resp.Content, c)
	if perr != nil {
		r.logger.Warn("response was not a JSON array, attempting repair",
			"file", c.File, "chunk", c.Index+1, "error", perr)
		repairPrompt := fmt.Sprintf(
			"Your previous response was not valid JSON. The error was: %s\n\nPlease fix it and respond with ONLY a valid JSON array of suggestions.\n\nYour previous response was:\n%s",
			perr.Error(), resp.Content,
		)
		resp2, err2 := r.reviewer.Review(ctx, providers.ReviewRequest{
			SystemPrompt: SystemPrompt(),
			UserPrompt:   repairPrompt,
			MaxTokens:    maxResponseTokens,
			Temperature:  reviewTemperature,
		})
		if err2 != nil {
			return nil, fmt.Errorf("repair pass failed: %w (original error: %w)", err2, perr)
		}
		tokens += resp2.TokensUsed
		suggs, dropped, perr = ParseSuggestions(resp2.Content, c)
		if perr != nil {
			return nil, fmt.Errorf("response validation failed after repair: %w", perr)
		}
		resp = resp2
	}

	if dropped > 0 {
		r.logger.Warn("dropped malformed suggestion entries",
			"file", c.File, "chunk", c.Index+1, "dropped", dropped)
	}

	if r.store != nil {
		if err := r.store.Put(key, resp.Content); err != nil {
			r.logger.Debug("cache write failed", "error", err)
		}
	}

	return &ChunkResult{Chunk: c, Suggestions: suggs, Dropped: dropped, TokensUsed: tokens}, nil
}
