// Copyright (C) 2026 Transmute Contributors (oss@transmute.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package translate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/transmute-dev/transmute/internal/model"
)

// DefaultMaxParallel bounds how many chunks are submitted to the backend
// concurrently within one ready set.
const DefaultMaxParallel = 4

// ChunkOutcome records how one chunk was resolved: which stage of the
// fallback chain produced its code and whether the cache served it. Errors
// the backend path hit along the way are not recorded here; Client never
// aborts a program because one chunk's backend call failed.
type ChunkOutcome struct {
	ChunkID string
	Stage   ConversionStage
	Cached  bool
}

// Result is one program's translation: the assembled C# source plus a
// per-chunk trail of how each piece was produced.
type Result struct {
	Code     string
	Outcomes []ChunkOutcome
}

// Client orchestrates chunking, rate-limited and retried backend calls,
// content-addressed caching, and fallback conversion into one program-level
// translation, mirroring the converter's end-to-end pipeline.
type Client struct {
	backend      Backend
	fallback     *CompositeConverter
	cache        *ResponseCache
	limiter      *RateLimiter
	maxRetries   int
	maxParallel  int
	chunkSize    int
	projectScope bool
	log          *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

func WithBackend(b Backend) ClientOption {
	return func(c *Client) { c.backend = b }
}

func WithCache(cache *ResponseCache) ClientOption {
	return func(c *Client) { c.cache = cache }
}

func WithRateLimiter(limiter *RateLimiter) ClientOption {
	return func(c *Client) { c.limiter = limiter }
}

func WithMaxRetries(n int) ClientOption {
	return func(c *Client) { c.maxRetries = n }
}

func WithMaxParallel(n int) ClientOption {
	return func(c *Client) { c.maxParallel = n }
}

func WithChunkSize(n int) ClientOption {
	return func(c *Client) { c.chunkSize = n }
}

func WithProjectScope(projectScope bool) ClientOption {
	return func(c *Client) { c.projectScope = projectScope }
}

func WithClientLogger(log *slog.Logger) ClientOption {
	return func(c *Client) { c.log = log }
}

// NewClient builds a Client. With no backend configured, every chunk falls
// straight to the rule-based converter.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		maxRetries:  DefaultMaxRetries,
		maxParallel: DefaultMaxParallel,
		chunkSize:   DefaultChunkSize,
		limiter:     NewRateLimiter(60),
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.fallback = NewCompositeConverter(nil, c.log)
	return c
}

// Translate chunks program, resolves each chunk through the cache/backend/
// fallback chain respecting dependency order, and assembles the result.
func (c *Client) Translate(ctx context.Context, program *model.CProgram) (Result, error) {
	chunks := BuildChunks(program, c.chunkSize)

	var mu sync.Mutex
	done := make(map[string]bool, len(chunks))
	converted := make(map[string]string, len(chunks))
	outcomes := make([]ChunkOutcome, 0, len(chunks))

	for len(done) < len(chunks) {
		mu.Lock()
		pending := pendingChunks(chunks, done)
		mu.Unlock()

		if len(pending) == 0 {
			return Result{}, fmt.Errorf("circular chunk dependency: %d of %d chunks remain unresolved", len(chunks)-len(done), len(chunks))
		}

		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(c.maxParallel)

		for _, chunk := range pending {
			chunk := chunk
			group.Go(func() error {
				outcome, code, err := c.resolveChunk(groupCtx, program, chunk)
				if err != nil {
					return err
				}
				mu.Lock()
				converted[chunk.ID] = code
				done[chunk.ID] = true
				outcomes = append(outcomes, outcome)
				mu.Unlock()
				return nil
			})
		}

		if err := group.Wait(); err != nil {
			return Result{}, err
		}
	}

	return Result{Code: Assemble(program, converted), Outcomes: outcomes}, nil
}

// pendingChunks is ReadySet filtered down to chunks not yet resolved.
func pendingChunks(chunks []Chunk, done map[string]bool) []Chunk {
	ready := ReadySet(chunks, done)
	pending := ready[:0:0]
	for _, c := range ready {
		if !done[c.ID] {
			pending = append(pending, c)
		}
	}
	return pending
}

// resolveChunk resolves one chunk's C# code through the cache, then the
// rate-limited and retried backend, falling back to the rule-based
// converter and emergency stub on exhaustion.
func (c *Client) resolveChunk(ctx context.Context, program *model.CProgram, chunk Chunk) (ChunkOutcome, string, error) {
	if chunk.Type == ChunkStructure {
		return ChunkOutcome{ChunkID: chunk.ID, Stage: StageBackend}, "", nil
	}

	key := ""
	if c.cache != nil {
		key = CacheKey(chunk.Type, chunk.ID, chunk.Content)
		if cached, ok := c.cache.Get(key); ok && cached.Success {
			return ChunkOutcome{ChunkID: chunk.ID, Stage: StageBackend, Cached: true}, cached.ConvertedCode, nil
		}
	}

	prompt := BuildPrompt(chunk, c.projectScope)
	code, stage := c.convertWithRetry(ctx, prompt, chunk, program)

	if c.cache != nil && stage == StageBackend {
		_ = c.cache.Put(key, CachedResponse{Success: true, ConvertedCode: code})
	}

	return ChunkOutcome{ChunkID: chunk.ID, Stage: stage}, code, nil
}

// convertWithRetry drives the backend call through up to maxRetries
// attempts, sleeping per QuotaRetryDelay or NetworkRetryDelay between
// attempts, then falls through to the rule-based/emergency chain once the
// backend is unavailable or exhausted.
func (c *Client) convertWithRetry(ctx context.Context, prompt string, chunk Chunk, program *model.CProgram) (string, ConversionStage) {
	if c.backend == nil || !c.backend.Available() {
		result := c.fallback.Convert(ctx, prompt, chunk, program)
		return result.Code, result.Stage
	}

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if err := c.limiter.WaitIfNeeded(ctx); err != nil {
			break
		}

		code, err := c.backend.Generate(ctx, prompt)
		if err == nil && structuralValidate(code) {
			return code, StageBackend
		}

		if attempt == c.maxRetries-1 {
			break
		}
		delaySeconds := c.retryDelay(err, attempt)
		if delaySeconds <= 0 {
			break
		}
		c.log.Warn("backend conversion attempt failed, retrying", "chunk", chunk.ID, "attempt", attempt, "delaySeconds", delaySeconds)
		if err := sleepCtx(ctx, time.Duration(delaySeconds)*time.Second); err != nil {
			break
		}
	}

	result := c.fallback.Convert(ctx, prompt, chunk, program)
	return result.Code, result.Stage
}

// retryDelay returns the seconds to wait before the next attempt, or 0 to
// fall straight through to the rule-based converter (a structural
// validation failure, not a transport error, gets no further retries from
// the same backend).
func (c *Client) retryDelay(err error, attempt int) int {
	if err == nil {
		return 0
	}
	var httpErr *geminiHTTPError
	if errors.As(err, &httpErr) {
		if IsQuotaError(httpErr.StatusCode, httpErr.Body) {
			return QuotaRetryDelay(httpErr.Body, attempt)
		}
		// A non-quota HTTP error means the backend answered with a definite
		// 4xx/5xx; retrying won't change that, so fall straight through to
		// the rule-based fallback.
		return 0
	}
	return NetworkRetryDelay(attempt)
}
