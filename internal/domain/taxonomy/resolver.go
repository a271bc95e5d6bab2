package taxonomy

import (
	"context"
	"sync"
)

// Summary is descriptive text for an entity.
type Summary struct {
	Title   string `json:"title"`
	Extract string `json:"extract"`
	URL     string `json:"url"`
}

// CategoryIndex lists the members of a category. Any failure yields an empty
// list.
type CategoryIndex interface {
	CategoryMembers(ctx context.Context, key string) []string
}

// SummarySource fetches a page summary. Any failure yields nil.
type SummarySource interface {
	PageSummary(ctx context.Context, title string) *Summary
}

// Resolver walks the fallback table against the external index until a
// candidate produces data.
type Resolver struct {
	index     CategoryIndex
	summaries SummarySource

	mu    sync.RWMutex
	table Table
}

// NewResolver creates a resolver over the given table.
func NewResolver(index CategoryIndex, summaries SummarySource, table Table) *Resolver {
	return &Resolver{
		index:     index,
		summaries: summaries,
		table:     table.Normalized(),
	}
}

// SetTable swaps the fallback table.
func (r *Resolver) SetTable(table Table) {
	table = table.Normalized()
	r.mu.Lock()
	r.table = table
	r.mu.Unlock()
}

// Table returns the active table.
func (r *Resolver) Table() Table {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.table
}

// Subgenres returns the members of the first candidate category that has any,
// unmodified, together with the key that produced them. An empty result means
// every candidate failed.
func (r *Resolver) Subgenres(ctx context.Context, name string) ([]string, string) {
	for _, key := range r.Table().CategoryCandidates(name) {
		if ctx.Err() != nil {
			return nil, ""
		}
		if members := r.index.CategoryMembers(ctx, key); len(members) > 0 {
			return members, key
		}
	}
	return nil, ""
}

// Summary returns the first summary found across the article candidates.
func (r *Resolver) Summary(ctx context.Context, name string) *Summary {
	for _, title := range r.Table().ArticleCandidates(name) {
		if ctx.Err() != nil {
			return nil
		}
		if s := r.summaries.PageSummary(ctx, title); s != nil {
			return s
		}
	}
	return nil
}
