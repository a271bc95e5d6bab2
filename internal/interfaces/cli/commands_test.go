package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"soundgraph-backend/internal/domain/graph"
	"soundgraph-backend/internal/domain/navigation"
	"soundgraph-backend/internal/domain/taxonomy"
	"soundgraph-backend/internal/domain/track"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

type mockExplorer struct {
	mock.Mock
}

func (m *mockExplorer) Search(_ context.Context, query string) []track.Track {
	return m.Called(query).Get(0).([]track.Track)
}

func (m *mockExplorer) CreateSession(context.Context) (*navigation.Session, error) {
	args := m.Called()
	session, _ := args.Get(0).(*navigation.Session)
	return session, args.Error(1)
}

func (m *mockExplorer) SelectTrack(_ context.Context, sessionID string, t track.Track) (navigation.View, error) {
	args := m.Called(sessionID, t)
	return args.Get(0).(navigation.View), args.Error(1)
}

func (m *mockExplorer) FocusGenre(_ context.Context, sessionID, name string) (navigation.View, error) {
	args := m.Called(sessionID, name)
	return args.Get(0).(navigation.View), args.Error(1)
}

func (m *mockExplorer) ClickNode(_ context.Context, sessionID, nodeID string) (navigation.View, error) {
	args := m.Called(sessionID, nodeID)
	return args.Get(0).(navigation.View), args.Error(1)
}

func (m *mockExplorer) HoverNode(_ context.Context, sessionID, nodeID string) (navigation.HoverCard, error) {
	args := m.Called(sessionID, nodeID)
	return args.Get(0).(navigation.HoverCard), args.Error(1)
}

func (m *mockExplorer) Back(_ context.Context, sessionID string) (navigation.View, error) {
	args := m.Called(sessionID)
	return args.Get(0).(navigation.View), args.Error(1)
}

var shutdown = track.Track{ID: "1440857781", Name: "Shutdown", Artist: "Skepta", Album: "Konnichiwa"}

func views() (navigation.View, navigation.View) {
	b := graph.NewBuilder(12, 24)
	panel, _ := json.Marshal(navigation.TrackPanel{Kind: "track", Track: shutdown, Tags: []string{"grime", "uk rap"}})
	trackView := navigation.View{
		State:      navigation.StateTrackView,
		Graph:      b.BuildTrackView(shutdown, []string{"grime", "uk rap"}),
		Panel:      panel,
		Generation: 1,
	}

	genrePanel, _ := json.Marshal(navigation.GenrePanel{
		Kind:      "genre",
		Name:      "grime",
		Message:   navigation.NoSummaryMessage,
		Subgenres: 1,
	})
	genreView := navigation.View{
		State: navigation.StateGenreFocus,
		Graph: b.BuildGenreFocus(graph.GenreFocus{
			Name:         "grime",
			ContextTrack: &shutdown,
			Subgenres:    []string{"UK drill"},
			PreserveRole: true,
		}),
		Panel:      genrePanel,
		Generation: 2,
	}
	return trackView, genreView
}

func execute(t *testing.T, explorer Explorer, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand(func(context.Context, Options) (Explorer, func(), error) {
		return explorer, func() {}, nil
	})
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&out)
	err := root.Execute()
	return out.String(), err
}

func TestSearchCommand(t *testing.T) {
	explorer := &mockExplorer{}
	explorer.On("Search", "skepta shutdown").Return([]track.Track{shutdown})

	out, err := execute(t, explorer, "", "search", "skepta", "shutdown")

	require.NoError(t, err)
	assert.Contains(t, out, "1  Shutdown - Skepta  (Konnichiwa)")
}

func TestSearchCommand_NoResults(t *testing.T) {
	explorer := &mockExplorer{}
	explorer.On("Search", "zzz").Return([]track.Track{})

	out, err := execute(t, explorer, "", "search", "zzz")

	require.NoError(t, err)
	assert.Contains(t, out, "No tracks found.")
}

func TestRunCommand_InteractiveLoop(t *testing.T) {
	// Arrange
	trackView, genreView := views()
	explorer := &mockExplorer{}
	explorer.On("Search", "shutdown").Return([]track.Track{shutdown})
	explorer.On("CreateSession").Return(navigation.NewSession("s1", time.Now()), nil)
	explorer.On("SelectTrack", "s1", shutdown).Return(trackView, nil)
	explorer.On("ClickNode", "s1", "tag:grime").Return(genreView, nil)
	explorer.On("HoverNode", "s1", "genre:uk drill").Return(navigation.HoverCard{
		NodeID:  "genre:uk drill",
		Label:   "UK drill",
		Summary: &taxonomy.Summary{Title: "UK drill", Extract: "UK drill is a subgenre of drill music."},
	}, nil)
	explorer.On("Back", "s1").Return(trackView, nil).Once()
	explorer.On("Back", "s1").Return(navigation.View{}, navigation.ErrInvalidTransition)
	explorer.On("FocusGenre", "s1", "jazz").Return(genreView, nil)

	// Act
	out, err := execute(t, explorer, "2\nh 3\nb\nb\n9\ng jazz\nq\n", "run", "shutdown")

	// Assert
	require.NoError(t, err)
	assert.Contains(t, out, "Shutdown - Skepta  [track_view #1]")
	assert.Contains(t, out, "  1 * Shutdown (track)")
	assert.Contains(t, out, "Tags: grime, uk rap")
	assert.Contains(t, out, "grime  [genre_focus #2]")
	assert.Contains(t, out, "  1 < Shutdown (track)")
	assert.Contains(t, out, navigation.NoSummaryMessage)
	assert.Contains(t, out, "UK drill is a subgenre of drill music.")
	assert.Contains(t, out, "not available from this view")
	assert.Contains(t, out, "pick a node between 1 and 3")
	explorer.AssertExpectations(t)
}

func TestRunCommand_PickOutOfRange(t *testing.T) {
	explorer := &mockExplorer{}
	explorer.On("Search", "shutdown").Return([]track.Track{shutdown})

	_, err := execute(t, explorer, "", "run", "shutdown", "--pick", "4")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--pick must be between 1 and 1")
}
