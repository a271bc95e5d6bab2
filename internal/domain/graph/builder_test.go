package graph

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soundgraph-backend/internal/domain/track"
)

var shutdown = track.Track{ID: "1440857781", Name: "Shutdown", Artist: "Skepta", Album: "Konnichiwa"}

func TestBuildTrackView_Scenario(t *testing.T) {
	// Arrange
	b := NewBuilder(0, 0)

	// Act
	g := b.BuildTrackView(shutdown, []string{"grime", "uk rap"})

	// Assert
	require.NoError(t, g.Validate())
	assert.Len(t, g.Nodes, 3)
	assert.Len(t, g.Links, 2)
	central, ok := g.Central()
	require.True(t, ok)
	assert.Equal(t, KindTrack, central.Kind)
	assert.Equal(t, "track:1440857781", central.ID)
	require.NotNil(t, central.Payload)
	assert.Equal(t, "Konnichiwa", central.Payload.Album)
	for _, l := range g.Links {
		assert.Equal(t, central.ID, l.Source)
	}
	assert.Equal(t, []string{"track:1440857781", "tag:grime", "tag:uk rap"}, g.NodeIDs())
	assert.Equal(t, "Shutdown - Skepta", g.Title)
}

func TestBuildTrackView_IdempotentDedup(t *testing.T) {
	b := NewBuilder(0, 0)
	tags := []string{"grime", "Grime ", "uk rap", "grime"}

	first := b.BuildTrackView(shutdown, tags)
	second := b.BuildTrackView(shutdown, tags)

	require.NoError(t, first.Validate())
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"track:1440857781", "tag:grime", "tag:uk rap"}, first.NodeIDs())
	assert.Len(t, first.Links, 2)
}

func TestBuildTrackView_CapsTags(t *testing.T) {
	b := NewBuilder(12, 0)
	tags := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		tags = append(tags, fmt.Sprintf("tag %d", i))
	}

	g := b.BuildTrackView(shutdown, tags)

	require.NoError(t, g.Validate())
	assert.Len(t, g.Nodes, 13)
	assert.Len(t, g.Links, 12)
}

func TestBuildTrackView_NoTags(t *testing.T) {
	g := NewBuilder(0, 0).BuildTrackView(track.Track{Name: "Intro", Artist: "Nobody"}, nil)

	require.NoError(t, g.Validate())
	assert.Len(t, g.Nodes, 1)
	assert.Empty(t, g.Links)
	assert.Equal(t, "track:intro|nobody", g.Nodes[0].ID)
}

func TestBuildGenreFocus_EmptyTaxonomy(t *testing.T) {
	g := NewBuilder(0, 0).BuildGenreFocus(GenreFocus{Name: "jazz"})

	require.NoError(t, g.Validate())
	require.Len(t, g.Nodes, 1)
	assert.Empty(t, g.Links)
	assert.True(t, g.Nodes[0].IsCentral)
	assert.True(t, g.Nodes[0].IsPlaceholder)
	assert.Equal(t, KindGenre, g.Nodes[0].Kind)
	assert.Equal(t, "jazz", g.Title)
}

func TestBuildGenreFocus_WithContextTrack(t *testing.T) {
	// Arrange
	ctxTrack := shutdown
	in := GenreFocus{
		Name:         "grime",
		ContextTrack: &ctxTrack,
		Subgenres:    []string{"Grindie", "Eskibeat", "grime", "Grindie", " "},
		PreserveRole: true,
	}

	// Act
	g := NewBuilder(0, 0).BuildGenreFocus(in)

	// Assert
	require.NoError(t, g.Validate())
	assert.Equal(t, []string{"track:1440857781", "genre:grime", "genre:grindie", "genre:eskibeat"}, g.NodeIDs())
	assert.Equal(t, []Link{
		{Source: "track:1440857781", Target: "genre:grime"},
		{Source: "genre:grime", Target: "genre:grindie"},
		{Source: "genre:grime", Target: "genre:eskibeat"},
	}, g.Links)
	contextNode, ok := g.Context()
	require.True(t, ok)
	assert.False(t, contextNode.IsCentral)
	central, _ := g.Central()
	assert.False(t, central.IsPlaceholder)
	assert.True(t, g.PreserveRole)
}

func TestBuildGenreFocus_CapsSubgenres(t *testing.T) {
	subs := make([]string, 0, 30)
	for i := 0; i < 30; i++ {
		subs = append(subs, fmt.Sprintf("sub %d", i))
	}

	g := NewBuilder(0, 5).BuildGenreFocus(GenreFocus{Name: "rock", Subgenres: subs})

	require.NoError(t, g.Validate())
	assert.Len(t, g.Nodes, 6)
	assert.Len(t, g.Links, 5)
}

func TestBuilds_Invariants(t *testing.T) {
	b := NewBuilder(3, 3)
	ctxTrack := shutdown
	graphs := []Graph{
		b.BuildTrackView(shutdown, []string{"a", "b", "c", "d", "a"}),
		b.BuildTrackView(track.Track{Name: "x"}, []string{""}),
		b.BuildGenreFocus(GenreFocus{Name: "house", ContextTrack: &ctxTrack, Subgenres: []string{"house", "deep house"}}),
		b.BuildGenreFocus(GenreFocus{Name: "", Subgenres: nil}),
	}

	for i, g := range graphs {
		t.Run(fmt.Sprintf("graph %d", i), func(t *testing.T) {
			assert.NoError(t, g.Validate())
			ids := make(map[string]bool)
			for _, n := range g.Nodes {
				ids[n.ID] = true
			}
			for _, l := range g.Links {
				assert.True(t, ids[l.Source], "dangling source %s", l.Source)
				assert.True(t, ids[l.Target], "dangling target %s", l.Target)
			}
		})
	}
}
