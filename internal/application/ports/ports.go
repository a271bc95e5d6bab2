// Package ports declares the outbound interfaces the explorer depends on.
// Adapters never return errors through these ports: a failed call yields
// the documented empty result and is logged by the adapter.
package ports

import (
	"context"
	"time"

	"soundgraph-backend/internal/domain/tags"
	"soundgraph-backend/internal/domain/taxonomy"
	"soundgraph-backend/internal/domain/track"
)

// TrackSearcher is the track metadata provider. A failed search yields an
// empty list.
type TrackSearcher interface {
	SearchTracks(ctx context.Context, query string, limit int) []track.Track
}

// TagProvider returns community tags ranked by count. A failed call yields
// an empty list.
type TagProvider interface {
	ArtistTopTags(ctx context.Context, artist string) []tags.RawTag
	TrackTopTags(ctx context.Context, artist, name string) []tags.RawTag
}

// CategoryIndex lists the members of a taxonomy category.
type CategoryIndex = taxonomy.CategoryIndex

// SummaryProvider returns a short article summary, or nil.
type SummaryProvider = taxonomy.SummarySource

// Cache is a TTL key/value store for memoized provider results.
type Cache interface {
	GetJSON(ctx context.Context, key string, out interface{}) bool
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration)
	Clear(ctx context.Context, pattern string) int
}
