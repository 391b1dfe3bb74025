package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ppiankov/spotlight/internal/cache"
)

// CachedProvider memoizes completions of another provider
type CachedProvider struct {
	inner Provider
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedProvider wraps inner with a response cache
func NewCachedProvider(inner Provider, c cache.Cache, ttl time.Duration) *CachedProvider {
	return &CachedProvider{inner: inner, cache: c, ttl: ttl}
}

// Name returns the wrapped provider's name
func (p *CachedProvider) Name() string {
	return p.inner.Name()
}

// IsAvailable delegates to the wrapped provider
func (p *CachedProvider) IsAvailable(ctx context.Context) bool {
	return p.inner.IsAvailable(ctx)
}

// Complete returns a cached answer for an identical request, or asks the wrapped provider
func (p *CachedProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	key := cache.Key("llm", p.inner.Name(), req.Model, req.System, strconv.Itoa(req.MaxTokens), req.Prompt)

	if data, ok := p.cache.Get(key); ok {
		var resp CompletionResponse
		if err := json.Unmarshal(data, &resp); err == nil {
			resp.Cached = true
			return &resp, nil
		}
	}

	resp, err := p.inner.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("marshal completion: %w", err)
	}
	if err := p.cache.Set(key, data, p.ttl); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to cache LLM response: %v\n", err)
	}

	return resp, nil
}
