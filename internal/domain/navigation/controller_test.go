package navigation

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soundgraph-backend/internal/domain/graph"
	"soundgraph-backend/internal/domain/taxonomy"
	"soundgraph-backend/internal/domain/track"
)

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time { return f.t }

func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

var (
	shutdown   = track.Track{ID: "1440857781", Name: "Shutdown", Artist: "Skepta", Album: "Konnichiwa", ReleaseDate: "2016-05-06"}
	thatsNotMe = track.Track{ID: "1440857000", Name: "That's Not Me", Artist: "Skepta"}
)

func newTestController() (*Controller, *fakeClock, *Session) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := NewController(graph.NewBuilder(0, 0), 10*time.Minute).WithClock(clock.Now)
	return c, clock, NewSession("s1", clock.Now())
}

func selectTrack(t *testing.T, c *Controller, s *Session, tr track.Track, tags []string) View {
	t.Helper()
	req, err := c.SelectTrack(s, tr)
	require.NoError(t, err)
	v, err := c.ApplyTrack(s, req, tags)
	require.NoError(t, err)
	return v
}

func TestController_SelectTrack(t *testing.T) {
	// Arrange
	c, _, s := newTestController()

	// Act
	v := selectTrack(t, c, s, shutdown, []string{"grime", "uk rap"})

	// Assert
	assert.Equal(t, StateTrackView, v.State)
	assert.Len(t, v.Graph.Nodes, 3)
	assert.Len(t, v.Graph.Links, 2)
	assert.Equal(t, uint64(1), v.Generation)
	cur, ok := s.CurrentTrack()
	require.True(t, ok)
	assert.Equal(t, shutdown, cur)

	var panel TrackPanel
	require.NoError(t, json.Unmarshal(v.Panel, &panel))
	assert.Equal(t, "track", panel.Kind)
	assert.Equal(t, []string{"grime", "uk rap"}, panel.Tags)
	assert.Equal(t, []byte(v.Panel), s.Snapshot())
}

func TestController_SelectTrack_Empty(t *testing.T) {
	tests := []struct {
		name  string
		track track.Track
	}{
		{name: "empty record", track: track.Track{}},
		{name: "missing artist", track: track.Track{Name: "Shutdown", Artist: "  "}},
		{name: "missing name", track: track.Track{Artist: "Skepta"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, s := newTestController()

			_, err := c.SelectTrack(s, tt.track)

			assert.ErrorIs(t, err, ErrEmptyTrack)
			assert.Equal(t, uint64(0), s.Generation())
		})
	}
}

func TestController_InvalidTransitions(t *testing.T) {
	c, _, s := newTestController()

	_, err := c.ClickTag(s, "grime")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = c.Back(s)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	selectTrack(t, c, s, shutdown, []string{"grime"})
	_, err = c.Back(s)
	assert.ErrorIs(t, err, ErrInvalidTransition, "back from track view")

	_, err = c.ClickGenre(s, "  ")
	assert.ErrorIs(t, err, ErrEmptyGenre)
}

func TestController_ClickTag_CarriesContext(t *testing.T) {
	c, _, s := newTestController()
	selectTrack(t, c, s, shutdown, []string{"grime", "uk rap"})

	req, err := c.ClickTag(s, "grime")
	require.NoError(t, err)
	v, err := c.ApplyGenre(s, req, []string{"Grindie"}, &taxonomy.Summary{Title: "Grime (music genre)"})
	require.NoError(t, err)

	assert.Equal(t, StateGenreFocus, v.State)
	assert.True(t, req.PreserveRole)
	assert.True(t, v.Graph.PreserveRole)
	require.NotNil(t, req.ContextTrack)
	assert.Equal(t, shutdown, *req.ContextTrack)
	assert.Equal(t, []string{"track:1440857781", "genre:grime", "genre:grindie"}, v.Graph.NodeIDs())

	var panel GenrePanel
	require.NoError(t, json.Unmarshal(v.Panel, &panel))
	assert.Equal(t, 1, panel.Subgenres)
	assert.Equal(t, "Shutdown - Skepta", panel.ContextTrack)
	assert.Empty(t, panel.Message)
}

func TestController_ClickGenre_FromIdle(t *testing.T) {
	c, _, s := newTestController()

	req, err := c.ClickGenre(s, "jazz")
	require.NoError(t, err)
	v, err := c.ApplyGenre(s, req, nil, nil)
	require.NoError(t, err)

	assert.Nil(t, req.ContextTrack)
	assert.False(t, req.PreserveRole)
	require.Len(t, v.Graph.Nodes, 1)
	assert.Empty(t, v.Graph.Links)
	assert.True(t, v.Graph.Nodes[0].IsPlaceholder)

	var panel GenrePanel
	require.NoError(t, json.Unmarshal(v.Panel, &panel))
	assert.Nil(t, panel.Summary)
	assert.Equal(t, NoSummaryMessage, panel.Message)
	assert.Equal(t, 0, panel.Subgenres)

	_, err = c.Back(s)
	assert.ErrorIs(t, err, ErrInvalidTransition, "no track selected")
}

func TestController_Back_RestoresExactPanel(t *testing.T) {
	// Arrange
	c, _, s := newTestController()
	selected := selectTrack(t, c, s, shutdown, []string{"grime", "uk rap"})
	snapshot := append([]byte(nil), selected.Panel...)

	req, err := c.ClickTag(s, "grime")
	require.NoError(t, err)
	_, err = c.ApplyGenre(s, req, []string{"Grindie"}, nil)
	require.NoError(t, err)
	sub, err := c.ClickGenre(s, "Grindie")
	require.NoError(t, err)
	_, err = c.ApplyGenre(s, sub, nil, nil)
	require.NoError(t, err)

	// Act
	back, err := c.Back(s)
	require.NoError(t, err)
	v, err := c.ApplyBack(s, back, nil)

	// Assert
	require.NoError(t, err)
	assert.False(t, back.NeedsTags)
	assert.Equal(t, StateTrackView, v.State)
	assert.Equal(t, snapshot, []byte(v.Panel))
	assert.Equal(t, selected.Graph, v.Graph)
}

func TestController_Back_RederivesAfterTTL(t *testing.T) {
	c, clock, s := newTestController()
	selected := selectTrack(t, c, s, shutdown, []string{"grime", "uk rap"})
	req, err := c.ClickTag(s, "grime")
	require.NoError(t, err)
	_, err = c.ApplyGenre(s, req, nil, nil)
	require.NoError(t, err)

	clock.Advance(11 * time.Minute)
	back, err := c.Back(s)
	require.NoError(t, err)
	require.True(t, back.NeedsTags)
	v, err := c.ApplyBack(s, back, []string{"grime", "uk drill", "hip hop"})

	require.NoError(t, err)
	assert.Len(t, v.Graph.Nodes, 4)
	assert.Equal(t, []byte(selected.Panel), []byte(v.Panel))
}

func TestController_NewTrackResetsBackTarget(t *testing.T) {
	c, _, s := newTestController()
	selectTrack(t, c, s, shutdown, []string{"grime"})
	req, err := c.ClickTag(s, "grime")
	require.NoError(t, err)
	_, err = c.ApplyGenre(s, req, nil, nil)
	require.NoError(t, err)

	second := selectTrack(t, c, s, thatsNotMe, []string{"grime"})

	cur, _ := s.CurrentTrack()
	assert.Equal(t, thatsNotMe, cur)
	assert.Equal(t, []byte(second.Panel), s.Snapshot())
	_, err = c.Back(s)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestController_StaleGeneration(t *testing.T) {
	c, _, s := newTestController()

	first, err := c.ClickGenre(s, "rock")
	require.NoError(t, err)
	second, err := c.ClickGenre(s, "jazz")
	require.NoError(t, err)

	_, err = c.ApplyGenre(s, first, []string{"Grunge"}, nil)
	assert.ErrorIs(t, err, ErrStaleGeneration)
	assert.Equal(t, StateIdle, s.State())

	v, err := c.ApplyGenre(s, second, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "jazz", v.Graph.Title)
	assert.Equal(t, second.Generation, v.Generation)

	_, err = c.ApplyGenre(s, first, []string{"Grunge"}, nil)
	assert.ErrorIs(t, err, ErrStaleGeneration, "late arrival does not clobber")
	assert.Equal(t, "jazz", s.View().Graph.Title)
}

func TestController_StaleTrackSelectionKeepsBackTarget(t *testing.T) {
	c, _, s := newTestController()
	selectTrack(t, c, s, shutdown, []string{"grime"})

	stale, err := c.SelectTrack(s, thatsNotMe)
	require.NoError(t, err)
	req, err := c.ClickTag(s, "grime")
	require.NoError(t, err)
	_, err = c.ApplyGenre(s, req, nil, nil)
	require.NoError(t, err)

	_, err = c.ApplyTrack(s, stale, []string{"rap"})
	assert.ErrorIs(t, err, ErrStaleGeneration)
	cur, _ := s.CurrentTrack()
	assert.Equal(t, shutdown, cur)
}

func TestController_Dispatch(t *testing.T) {
	c, _, s := newTestController()
	selectTrack(t, c, s, shutdown, []string{"grime"})

	tests := []struct {
		name   string
		nodeID string
		want   Action
	}{
		{name: "tag", nodeID: "tag:grime", want: ActionTag},
		{name: "central track", nodeID: "track:1440857781", want: ActionNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := c.Dispatch(s, tt.nodeID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Action)
			assert.Equal(t, tt.nodeID, d.Node.ID)
		})
	}

	_, err := c.Dispatch(s, "tag:missing")
	assert.ErrorIs(t, err, ErrNodeNotFound)

	req, err := c.ClickTag(s, "grime")
	require.NoError(t, err)
	_, err = c.ApplyGenre(s, req, []string{"Grindie"}, nil)
	require.NoError(t, err)

	d, err := c.Dispatch(s, "track:1440857781")
	require.NoError(t, err)
	assert.Equal(t, ActionBack, d.Action)

	d, err = c.Dispatch(s, "genre:grindie")
	require.NoError(t, err)
	assert.Equal(t, ActionGenre, d.Action)
	assert.Equal(t, "Grindie", d.Node.Label)

	d, err = c.Dispatch(s, "genre:grime")
	require.NoError(t, err)
	assert.Equal(t, ActionNone, d.Action)
}
