// Package graph turns a focal entity and its associated items into a
// deduplicated node/link graph for the render surface.
package graph

import (
	"fmt"

	"soundgraph-backend/internal/domain/track"
)

// Kind classifies a node.
type Kind string

const (
	KindTrack Kind = "track"
	KindTag   Kind = "tag"
	KindGenre Kind = "genre"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindTrack, KindTag, KindGenre:
		return true
	}
	return false
}

// Node is a single vertex of a built graph.
type Node struct {
	ID            string       `json:"id"`
	Label         string       `json:"label"`
	Kind          Kind         `json:"kind"`
	IsCentral     bool         `json:"isCentral"`
	IsContext     bool         `json:"isContext"`
	IsPlaceholder bool         `json:"isPlaceholder"`
	Payload       *track.Track `json:"payload,omitempty"`
}

// Link is directed: Target is derived from, or belongs under, Source.
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// NodeID namespaces a normalized key by kind. The same logical entity always
// maps to the same id.
func NodeID(kind Kind, key string) string {
	return fmt.Sprintf("%s:%s", kind, track.Normalize(key))
}

// TrackNodeID is the id of the node representing t.
func TrackNodeID(t track.Track) string {
	return fmt.Sprintf("%s:%s", KindTrack, t.Key())
}

// TagNodeID is the id of the node for a normalized tag.
func TagNodeID(tag string) string {
	return NodeID(KindTag, tag)
}

// GenreNodeID is the id of the node for a genre or subgenre name.
func GenreNodeID(name string) string {
	return NodeID(KindGenre, name)
}
