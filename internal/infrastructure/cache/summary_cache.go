package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"soundgraph-backend/internal/domain/taxonomy"
)

// DefaultResolveTimeout bounds one shared resolution across every article
// candidate.
const DefaultResolveTimeout = 30 * time.Second

// SummaryResolver produces a summary for a name, or nil.
type SummaryResolver func(ctx context.Context, name string) *taxonomy.Summary

// LookupRecorder receives hit and miss events.
type LookupRecorder interface {
	RecordCacheLookup(cache string, hit bool)
}

// SummaryCache memoizes summaries by the caller's display name, exactly as
// given: "Jazz" and "jazz" are different keys. Entries live for the lifetime
// of the cache. Failed resolutions are not stored, so they are retried on
// the next lookup. Concurrent lookups of the same name share one
// resolution, which runs detached from any single caller's cancellation.
type SummaryCache struct {
	mu      sync.RWMutex
	entries map[string]taxonomy.Summary
	group   singleflight.Group
	metrics LookupRecorder
	timeout time.Duration
}

// NewSummaryCache creates an empty cache. metrics may be nil.
func NewSummaryCache(metrics LookupRecorder) *SummaryCache {
	return &SummaryCache{
		entries: make(map[string]taxonomy.Summary),
		metrics: metrics,
		timeout: DefaultResolveTimeout,
	}
}

// WithTimeout replaces the bound on a shared resolution.
func (c *SummaryCache) WithTimeout(d time.Duration) *SummaryCache {
	if d > 0 {
		c.timeout = d
	}
	return c
}

// Get returns the cached summary for name.
func (c *SummaryCache) Get(name string) (*taxonomy.Summary, bool) {
	c.mu.RLock()
	s, ok := c.entries[name]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return &s, true
}

// Put stores a resolved summary. nil is ignored.
func (c *SummaryCache) Put(name string, s *taxonomy.Summary) {
	if s == nil {
		return
	}
	c.mu.Lock()
	c.entries[name] = *s
	c.mu.Unlock()
}

// Resolve returns the cached summary or runs resolve and writes a non-nil
// result through. A caller whose ctx ends first gets nil; the shared
// resolution keeps going for the others.
func (c *SummaryCache) Resolve(ctx context.Context, name string, resolve SummaryResolver) *taxonomy.Summary {
	if s, ok := c.Get(name); ok {
		c.record(true)
		return s
	}
	c.record(false)

	ch := c.group.DoChan(name, func() (interface{}, error) {
		if s, ok := c.Get(name); ok {
			return s, nil
		}
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		s := resolve(rctx, name)
		c.Put(name, s)
		return s, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil
	case res = <-ch:
	}
	s, _ := res.Val.(*taxonomy.Summary)
	if s == nil {
		return nil
	}
	out := *s
	return &out
}

// Len returns the number of cached names.
func (c *SummaryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *SummaryCache) record(hit bool) {
	if c.metrics != nil {
		c.metrics.RecordCacheLookup("summary", hit)
	}
}
