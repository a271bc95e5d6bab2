package services_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"

	"soundgraph-backend/internal/application/services"
	"soundgraph-backend/internal/domain/graph"
	"soundgraph-backend/internal/domain/navigation"
	"soundgraph-backend/internal/domain/tags"
	"soundgraph-backend/internal/domain/taxonomy"
	"soundgraph-backend/internal/domain/track"
	"soundgraph-backend/internal/infrastructure/cache"
	"soundgraph-backend/internal/infrastructure/observability"
)

type mockTracks struct {
	mock.Mock
}

func (m *mockTracks) SearchTracks(_ context.Context, query string, limit int) []track.Track {
	args := m.Called(query, limit)
	if v := args.Get(0); v != nil {
		return v.([]track.Track)
	}
	return nil
}

type mockTags struct {
	mock.Mock
}

func (m *mockTags) ArtistTopTags(_ context.Context, artist string) []tags.RawTag {
	args := m.Called(artist)
	if v := args.Get(0); v != nil {
		return v.([]tags.RawTag)
	}
	return nil
}

func (m *mockTags) TrackTopTags(_ context.Context, artist, name string) []tags.RawTag {
	args := m.Called(artist, name)
	if v := args.Get(0); v != nil {
		return v.([]tags.RawTag)
	}
	return nil
}

type mockIndex struct {
	mock.Mock
}

func (m *mockIndex) CategoryMembers(_ context.Context, key string) []string {
	args := m.Called(key)
	if v := args.Get(0); v != nil {
		return v.([]string)
	}
	return nil
}

type mockSummaries struct {
	mock.Mock
}

func (m *mockSummaries) PageSummary(_ context.Context, title string) *taxonomy.Summary {
	args := m.Called(title)
	if v := args.Get(0); v != nil {
		return v.(*taxonomy.Summary)
	}
	return nil
}

type fixture struct {
	service   *services.ExplorerService
	tracks    *mockTracks
	tags      *mockTags
	index     *mockIndex
	summaries *mockSummaries
	metrics   *observability.Collector
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		tracks:    &mockTracks{},
		tags:      &mockTags{},
		index:     &mockIndex{},
		summaries: &mockSummaries{},
		metrics:   observability.NewCollector("test"),
	}
	logger := zap.NewNop()

	f.service = services.NewExplorerService(
		f.tracks,
		f.tags,
		taxonomy.NewResolver(f.index, f.summaries, taxonomy.DefaultTable()),
		tags.NewNormalizer(nil),
		navigation.NewController(graph.NewBuilder(12, 24), time.Minute),
		cache.NewSummaryCache(f.metrics),
		cache.NewMemoryCache(100, 1<<20, logger),
		services.NewSessionStore(10, 0, f.metrics, logger),
		f.metrics,
		logger,
		services.DefaultExplorerConfig(),
	)
	return f
}

var shutdown = track.Track{ID: "1440857781", Name: "Shutdown", Artist: "Skepta"}

func (f *fixture) expectSkeptaTags() {
	f.tags.On("ArtistTopTags", "Skepta").Return([]tags.RawTag{
		{Name: "grime", Count: 100},
		{Name: "uk rap", Count: 60},
		{Name: "Skepta", Count: 40},
		{Name: "seen live", Count: 20},
	})
	f.tags.On("TrackTopTags", "Skepta", "Shutdown").Return([]tags.RawTag{
		{Name: "Grime", Count: 100},
	})
}

func (f *fixture) expectGrimeTaxonomy() {
	f.index.On("CategoryMembers", mock.Anything).Return([]string{"UK drill", "Grindie"})
	f.summaries.On("PageSummary", mock.Anything).Return(&taxonomy.Summary{
		Title:   "Grime (music genre)",
		Extract: "Grime is a genre of electronic music that emerged in London.",
		URL:     "https://en.wikipedia.org/wiki/Grime_(music_genre)",
	})
}

func (f *fixture) newSession(t *testing.T) string {
	t.Helper()
	session, err := f.service.CreateSession(context.Background())
	require.NoError(t, err)
	return session.ID()
}

func TestExplorerService_SelectTrack(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.expectSkeptaTags()
	id := f.newSession(t)

	// Act
	view, err := f.service.SelectTrack(context.Background(), id, shutdown)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, navigation.StateTrackView, view.State)
	assert.Equal(t, uint64(1), view.Generation)
	assert.Equal(t, []string{"track:1440857781", "tag:grime", "tag:uk rap"}, view.Graph.NodeIDs())
	assert.Len(t, view.Graph.Links, 2)

	var panel navigation.TrackPanel
	require.NoError(t, json.Unmarshal(view.Panel, &panel))
	assert.Equal(t, []string{"grime", "uk rap"}, panel.Tags)
	assert.Equal(t, shutdown, panel.Track)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.GraphBuilds.WithLabelValues("track_view")))
}

func TestExplorerService_ClickTagAndBack(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.expectSkeptaTags()
	f.expectGrimeTaxonomy()
	ctx := context.Background()
	id := f.newSession(t)
	trackView, err := f.service.SelectTrack(ctx, id, shutdown)
	require.NoError(t, err)

	// Act
	genreView, err := f.service.ClickTag(ctx, id, "grime")
	require.NoError(t, err)
	backView, backErr := f.service.Back(ctx, id)

	// Assert
	assert.Equal(t, navigation.StateGenreFocus, genreView.State)
	assert.True(t, genreView.Graph.PreserveRole)
	assert.Equal(t, []string{"track:1440857781", "genre:grime", "genre:uk drill", "genre:grindie"}, genreView.Graph.NodeIDs())

	var panel navigation.GenrePanel
	require.NoError(t, json.Unmarshal(genreView.Panel, &panel))
	require.NotNil(t, panel.Summary)
	assert.Equal(t, "Grime (music genre)", panel.Summary.Title)
	assert.Equal(t, 2, panel.Subgenres)
	assert.Equal(t, "Shutdown - Skepta", panel.ContextTrack)

	require.NoError(t, backErr)
	assert.Equal(t, navigation.StateTrackView, backView.State)
	assert.JSONEq(t, string(trackView.Panel), string(backView.Panel))
	assert.Equal(t, trackView.Graph, backView.Graph)
	f.tags.AssertNumberOfCalls(t, "ArtistTopTags", 1)
}

func TestExplorerService_GenreResultsAreMemoized(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.expectSkeptaTags()
	f.expectGrimeTaxonomy()
	ctx := context.Background()
	id := f.newSession(t)
	_, err := f.service.SelectTrack(ctx, id, shutdown)
	require.NoError(t, err)

	// Act
	_, err = f.service.ClickTag(ctx, id, "grime")
	require.NoError(t, err)
	_, err = f.service.Back(ctx, id)
	require.NoError(t, err)
	_, err = f.service.ClickTag(ctx, id, "grime")
	require.NoError(t, err)

	// Assert
	f.index.AssertNumberOfCalls(t, "CategoryMembers", 1)
	f.summaries.AssertNumberOfCalls(t, "PageSummary", 1)
}

func TestExplorerService_GenreMemoKeepsCase(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.expectGrimeTaxonomy()
	ctx := context.Background()
	id := f.newSession(t)

	// Act
	for _, name := range []string{"Trap", "trap", " trap "} {
		_, err := f.service.FocusGenre(ctx, id, name)
		require.NoError(t, err)
	}

	// Assert
	f.index.AssertNumberOfCalls(t, "CategoryMembers", 2)
	f.index.AssertCalled(t, "CategoryMembers", "Trap")
	f.index.AssertCalled(t, "CategoryMembers", "trap")
}

func TestExplorerService_FocusGenreWithoutData(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.index.On("CategoryMembers", mock.Anything).Return(nil)
	f.summaries.On("PageSummary", mock.Anything).Return(nil)
	ctx := context.Background()
	id := f.newSession(t)

	// Act
	view, err := f.service.FocusGenre(ctx, id, "Jazz")
	_, again := f.service.FocusGenre(ctx, id, "Jazz")

	// Assert
	require.NoError(t, err)
	require.NoError(t, again)
	require.Len(t, view.Graph.Nodes, 1)
	assert.True(t, view.Graph.Nodes[0].IsPlaceholder)

	var panel navigation.GenrePanel
	require.NoError(t, json.Unmarshal(view.Panel, &panel))
	assert.Nil(t, panel.Summary)
	assert.Equal(t, navigation.NoSummaryMessage, panel.Message)

	calls := len(f.index.Calls)
	assert.Equal(t, 2*len(taxonomy.DefaultTable().CategoryCandidates("Jazz")), calls, "empty results are not memoized")
}

func TestExplorerService_InvalidTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.newSession(t)

	_, err := f.service.ClickTag(ctx, id, "grime")
	assert.ErrorIs(t, err, navigation.ErrInvalidTransition)

	_, err = f.service.Back(ctx, id)
	assert.ErrorIs(t, err, navigation.ErrInvalidTransition)

	_, err = f.service.View(ctx, "missing")
	assert.ErrorIs(t, err, services.ErrSessionNotFound)

	_, err = f.service.SelectTrack(ctx, "missing", shutdown)
	assert.ErrorIs(t, err, services.ErrSessionNotFound)
}

func TestExplorerService_ClickNode(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.expectSkeptaTags()
	f.expectGrimeTaxonomy()
	ctx := context.Background()
	id := f.newSession(t)
	trackView, err := f.service.SelectTrack(ctx, id, shutdown)
	require.NoError(t, err)

	// Act & Assert
	same, err := f.service.ClickNode(ctx, id, "track:1440857781")
	require.NoError(t, err)
	assert.Equal(t, trackView.Generation, same.Generation, "central node is a no-op")

	focus, err := f.service.ClickNode(ctx, id, "tag:uk rap")
	require.NoError(t, err)
	assert.Equal(t, navigation.StateGenreFocus, focus.State)
	central, ok := focus.Graph.Central()
	require.True(t, ok)
	assert.Equal(t, "genre:uk rap", central.ID)

	sub, err := f.service.ClickNode(ctx, id, "genre:grindie")
	require.NoError(t, err)
	assert.False(t, sub.Graph.PreserveRole)
	assert.Equal(t, "Grindie", sub.Graph.Title)

	back, err := f.service.ClickNode(ctx, id, "track:1440857781")
	require.NoError(t, err)
	assert.Equal(t, navigation.StateTrackView, back.State)

	_, err = f.service.ClickNode(ctx, id, "tag:missing")
	assert.ErrorIs(t, err, navigation.ErrNodeNotFound)
}

func TestExplorerService_ClickNodeRecordsSpan(t *testing.T) {
	// Arrange
	recorder := tracetest.NewSpanRecorder()
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	defer otel.SetTracerProvider(previous)

	f := newFixture(t)
	ctx := context.Background()
	id := f.newSession(t)

	// Act
	_, err := f.service.ClickNode(ctx, id, "tag:missing")

	// Assert
	assert.ErrorIs(t, err, navigation.ErrNodeNotFound)
	var clicked []sdktrace.ReadOnlySpan
	for _, span := range recorder.Ended() {
		if span.Name() == "ExplorerService.ClickNode" {
			clicked = append(clicked, span)
		}
	}
	require.Len(t, clicked, 1)
	assert.Equal(t, codes.Error, clicked[0].Status().Code)
}

func TestExplorerService_HoverNode(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.expectSkeptaTags()
	f.summaries.On("PageSummary", mock.Anything).Return(nil)
	ctx := context.Background()
	id := f.newSession(t)
	before, err := f.service.SelectTrack(ctx, id, shutdown)
	require.NoError(t, err)

	// Act
	trackCard, trackErr := f.service.HoverNode(ctx, id, "track:1440857781")
	tagCard, tagErr := f.service.HoverNode(ctx, id, "tag:grime")
	_, missingErr := f.service.HoverNode(ctx, id, "tag:nope")
	after, viewErr := f.service.View(ctx, id)

	// Assert
	require.NoError(t, trackErr)
	require.NotNil(t, trackCard.Track)
	assert.Equal(t, "Skepta", trackCard.Track.Artist)

	require.NoError(t, tagErr)
	assert.Nil(t, tagCard.Summary)
	assert.Equal(t, navigation.NoSummaryMessage, tagCard.Message)

	assert.ErrorIs(t, missingErr, navigation.ErrNodeNotFound)

	require.NoError(t, viewErr)
	assert.Equal(t, before.Generation, after.Generation, "hover does not change the view")
}

func TestExplorerService_SupersededSelectionIsDropped(t *testing.T) {
	// Arrange
	f := newFixture(t)
	slow := track.Track{ID: "1", Name: "Song", Artist: "Slow"}
	started := make(chan struct{})
	release := make(chan struct{})
	f.tags.On("ArtistTopTags", "Slow").Run(func(mock.Arguments) {
		close(started)
		<-release
	}).Return([]tags.RawTag{{Name: "rock", Count: 1}})
	f.tags.On("TrackTopTags", "Slow", "Song").Return(nil)
	f.index.On("CategoryMembers", mock.Anything).Return(nil)
	f.summaries.On("PageSummary", mock.Anything).Return(nil)
	ctx := context.Background()
	id := f.newSession(t)

	type result struct {
		view navigation.View
		err  error
	}
	done := make(chan result, 1)

	// Act
	go func() {
		view, err := f.service.SelectTrack(ctx, id, slow)
		done <- result{view, err}
	}()
	<-started
	newer, err := f.service.FocusGenre(ctx, id, "jazz")
	require.NoError(t, err)
	close(release)
	stale := <-done

	// Assert
	assert.ErrorIs(t, stale.err, navigation.ErrStaleGeneration)
	current, err := f.service.View(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, newer.Generation, current.Generation)
	assert.Equal(t, navigation.StateGenreFocus, current.State)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.StaleViewsDropped.WithLabelValues("select_track")))
}

func TestExplorerService_Search(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.tracks.On("SearchTracks", "Skepta", 25).Return([]track.Track{shutdown})
	f.tracks.On("SearchTracks", "nothing", 25).Return([]track.Track{})
	ctx := context.Background()

	// Act
	first := f.service.Search(ctx, "Skepta")
	second := f.service.Search(ctx, "  skepta ")
	f.service.Search(ctx, "nothing")
	f.service.Search(ctx, "nothing")
	blank := f.service.Search(ctx, "   ")

	// Assert
	assert.Equal(t, []track.Track{shutdown}, first)
	assert.Equal(t, first, second)
	assert.Empty(t, blank)
	f.tracks.AssertNumberOfCalls(t, "SearchTracks", 3)
}

func TestExplorerService_ReloadTaxonomyDropsMemo(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.expectGrimeTaxonomy()
	ctx := context.Background()
	id := f.newSession(t)
	_, err := f.service.FocusGenre(ctx, id, "grime")
	require.NoError(t, err)

	// Act
	f.service.ReloadTaxonomy(ctx, taxonomy.DefaultTable())
	_, err = f.service.FocusGenre(ctx, id, "grime")

	// Assert
	require.NoError(t, err)
	f.index.AssertNumberOfCalls(t, "CategoryMembers", 2)
}

func TestExplorerService_ReloadDenylist(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.expectSkeptaTags()
	ctx := context.Background()
	id := f.newSession(t)

	// Act
	f.service.ReloadDenylist([]string{"grime"})
	view, err := f.service.SelectTrack(ctx, id, shutdown)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"track:1440857781", "tag:uk rap", "tag:seen live"}, view.Graph.NodeIDs())
}
