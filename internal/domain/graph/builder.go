package graph

import (
	"strings"

	"soundgraph-backend/internal/domain/track"
)

const (
	// DefaultMaxTags bounds the tag fan-out of a track view.
	DefaultMaxTags = 12
	// DefaultMaxSubgenres bounds the subgenre fan-out of a genre-focus view.
	DefaultMaxSubgenres = 24
)

// Builder assembles graphs. It holds only limits; every build starts from an
// empty Registry, so calls are pure functions of their inputs.
type Builder struct {
	maxTags      int
	maxSubgenres int
}

// NewBuilder creates a builder. Non-positive limits fall back to defaults.
func NewBuilder(maxTags, maxSubgenres int) *Builder {
	if maxTags <= 0 {
		maxTags = DefaultMaxTags
	}
	if maxSubgenres <= 0 {
		maxSubgenres = DefaultMaxSubgenres
	}
	return &Builder{maxTags: maxTags, maxSubgenres: maxSubgenres}
}

// MaxTags returns the tag cap.
func (b *Builder) MaxTags() int {
	return b.maxTags
}

// BuildTrackView builds one central track node and one tag node per distinct
// tag, each linked from the track.
func (b *Builder) BuildTrackView(t track.Track, tags []string) Graph {
	reg := NewRegistry()

	payload := t
	central, _ := reg.Add(Node{
		ID:        TrackNodeID(t),
		Label:     t.Name,
		Kind:      KindTrack,
		IsCentral: true,
		Payload:   &payload,
	})

	added := 0
	for _, tag := range tags {
		if added >= b.maxTags {
			break
		}
		label := track.Normalize(tag)
		if label == "" {
			continue
		}
		n, inserted := reg.Add(Node{
			ID:    TagNodeID(label),
			Label: label,
			Kind:  KindTag,
		})
		if !inserted {
			continue
		}
		reg.Link(central.ID, n.ID)
		added++
	}

	return reg.Graph(t.DisplayName())
}

// GenreFocus describes the inputs of a genre-focus build.
type GenreFocus struct {
	Name         string
	ContextTrack *track.Track
	Subgenres    []string
	PreserveRole bool
}

// BuildGenreFocus builds the optional context track node, the central genre
// node and one node per subgenre, each linked from the central node. The
// central node is a placeholder when no subgenres resolved.
func (b *Builder) BuildGenreFocus(in GenreFocus) Graph {
	reg := NewRegistry()
	name := strings.TrimSpace(in.Name)
	centralID := GenreNodeID(name)

	var contextID string
	if in.ContextTrack != nil && !in.ContextTrack.IsZero() {
		payload := *in.ContextTrack
		n, _ := reg.Add(Node{
			ID:        TrackNodeID(payload),
			Label:     payload.Name,
			Kind:      KindTrack,
			IsContext: true,
			Payload:   &payload,
		})
		contextID = n.ID
	}

	central, _ := reg.Add(Node{
		ID:        centralID,
		Label:     name,
		Kind:      KindGenre,
		IsCentral: true,
	})
	if contextID != "" {
		reg.Link(contextID, central.ID)
	}

	added := 0
	for _, sub := range in.Subgenres {
		if added >= b.maxSubgenres {
			break
		}
		label := strings.TrimSpace(sub)
		if label == "" {
			continue
		}
		n, inserted := reg.Add(Node{
			ID:    GenreNodeID(label),
			Label: label,
			Kind:  KindGenre,
		})
		if !inserted {
			continue
		}
		reg.Link(central.ID, n.ID)
		added++
	}

	g := reg.Graph(name)
	g.PreserveRole = in.PreserveRole
	if added == 0 {
		for i := range g.Nodes {
			if g.Nodes[i].IsCentral {
				g.Nodes[i].IsPlaceholder = true
			}
		}
	}
	return g
}
