package navigation

import (
	"strings"
	"time"

	"soundgraph-backend/internal/domain/graph"
	"soundgraph-backend/internal/domain/taxonomy"
	"soundgraph-backend/internal/domain/track"
)

// DefaultTrackViewTTL is how long a built track graph may be reused by Back.
const DefaultTrackViewTTL = 10 * time.Minute

// Every interaction is split in two: a request step that validates the
// transition and issues a generation ticket, and an apply step that builds
// the view from fetched data and installs it only if the ticket is still the
// newest one. Fetching happens between the two, outside the session lock.

// TrackRequest is an issued track selection.
type TrackRequest struct {
	Generation uint64
	Track      track.Track
}

// GenreRequest is an issued genre focus.
type GenreRequest struct {
	Generation   uint64
	Name         string
	ContextTrack *track.Track
	PreserveRole bool
}

// BackRequest is an issued return to the track view. When NeedsTags is false
// Graph holds the reusable track graph.
type BackRequest struct {
	Generation uint64
	Track      track.Track
	Graph      graph.Graph
	NeedsTags  bool
}

// Action is the outcome of a node click.
type Action int

const (
	ActionNone Action = iota
	ActionTag
	ActionGenre
	ActionBack
)

func (a Action) String() string {
	switch a {
	case ActionTag:
		return "tag"
	case ActionGenre:
		return "genre"
	case ActionBack:
		return "back"
	default:
		return "none"
	}
}

// Dispatch pairs a clicked node with the action it triggers.
type Dispatch struct {
	Action Action
	Node   graph.Node
}

// Controller is the navigation state machine.
type Controller struct {
	builder      *graph.Builder
	trackViewTTL time.Duration
	now          func() time.Time
}

// NewController creates a controller. A non-positive ttl selects
// DefaultTrackViewTTL.
func NewController(builder *graph.Builder, trackViewTTL time.Duration) *Controller {
	if trackViewTTL <= 0 {
		trackViewTTL = DefaultTrackViewTTL
	}
	return &Controller{builder: builder, trackViewTTL: trackViewTTL, now: time.Now}
}

// WithClock replaces the time source.
func (c *Controller) WithClock(now func() time.Time) *Controller {
	c.now = now
	return c
}

// Builder returns the graph builder.
func (c *Controller) Builder() *graph.Builder {
	return c.builder
}

// SelectTrack is valid from every state.
func (c *Controller) SelectTrack(s *Session, t track.Track) (TrackRequest, error) {
	if strings.TrimSpace(t.Name) == "" || strings.TrimSpace(t.Artist) == "" {
		return TrackRequest{}, ErrEmptyTrack
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return TrackRequest{Generation: s.issue(c.now()), Track: t}, nil
}

// ApplyTrack builds the track view from filtered tags, makes the track the
// back target and snapshots its panel.
func (c *Controller) ApplyTrack(s *Session, req TrackRequest, tags []string) (View, error) {
	g := c.builder.BuildTrackView(req.Track, tags)
	panel, err := encodeTrackPanel(req.Track, tags)
	if err != nil {
		return View{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current(req.Generation) {
		return View{}, ErrStaleGeneration
	}
	now := c.now()
	selected := req.Track
	s.currentTrack = &selected
	s.snapshot = panel
	s.trackGraph = g
	s.trackGraphAt = now
	return s.install(StateTrackView, g, panel, req.Generation, now), nil
}

// ClickTag focuses a tag of the displayed track, carrying the track as
// context and keeping the tag's colour role.
func (c *Controller) ClickTag(s *Session, tag string) (GenreRequest, error) {
	name := strings.TrimSpace(tag)
	if name == "" {
		return GenreRequest{}, ErrEmptyGenre
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateTrackView || s.currentTrack == nil {
		return GenreRequest{}, ErrInvalidTransition
	}
	ctxTrack := *s.currentTrack
	return GenreRequest{
		Generation:   s.issue(c.now()),
		Name:         name,
		ContextTrack: &ctxTrack,
		PreserveRole: true,
	}, nil
}

// ClickGenre focuses a genre from any state. The selected track, if any, is
// carried as context.
func (c *Controller) ClickGenre(s *Session, genre string) (GenreRequest, error) {
	name := strings.TrimSpace(genre)
	if name == "" {
		return GenreRequest{}, ErrEmptyGenre
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	req := GenreRequest{Generation: s.issue(c.now()), Name: name}
	if s.currentTrack != nil {
		ctxTrack := *s.currentTrack
		req.ContextTrack = &ctxTrack
	}
	return req, nil
}

// ApplyGenre builds the genre-focus view. A nil summary and an empty
// subgenre list are both valid outcomes.
func (c *Controller) ApplyGenre(s *Session, req GenreRequest, subgenres []string, summary *taxonomy.Summary) (View, error) {
	g := c.builder.BuildGenreFocus(graph.GenreFocus{
		Name:         req.Name,
		ContextTrack: req.ContextTrack,
		Subgenres:    subgenres,
		PreserveRole: req.PreserveRole,
	})
	panel, err := encodeGenrePanel(req.Name, summary, len(g.Nodes)-countFixed(g), req.ContextTrack)
	if err != nil {
		return View{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current(req.Generation) {
		return View{}, ErrStaleGeneration
	}
	return s.install(StateGenreFocus, g, panel, req.Generation, c.now()), nil
}

// Back returns from a genre focus to the selected track. The last track graph
// is reused while it is younger than the track view TTL; otherwise the caller
// must re-fetch tags.
func (c *Controller) Back(s *Session) (BackRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateGenreFocus || s.currentTrack == nil {
		return BackRequest{}, ErrInvalidTransition
	}
	now := c.now()
	req := BackRequest{Generation: s.issue(now), Track: *s.currentTrack}
	if !s.trackGraph.IsEmpty() && now.Sub(s.trackGraphAt) < c.trackViewTTL {
		if central, ok := s.trackGraph.Central(); ok && central.ID == graph.TrackNodeID(req.Track) {
			req.Graph = s.trackGraph
			return req, nil
		}
	}
	req.NeedsTags = true
	return req, nil
}

// ApplyBack installs the track view with the snapshotted panel. When the
// request needs tags the graph is re-derived from them; the panel is never
// rebuilt.
func (c *Controller) ApplyBack(s *Session, req BackRequest, tags []string) (View, error) {
	g := req.Graph
	if req.NeedsTags {
		g = c.builder.BuildTrackView(req.Track, tags)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current(req.Generation) {
		return View{}, ErrStaleGeneration
	}
	now := c.now()
	if req.NeedsTags {
		s.trackGraph = g
		s.trackGraphAt = now
	}
	return s.install(StateTrackView, g, s.snapshot, req.Generation, now), nil
}

// Dispatch maps a click on a node of the displayed graph to an action.
func (c *Controller) Dispatch(s *Session, nodeID string) (Dispatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.view.Graph.Node(nodeID)
	if !ok {
		return Dispatch{}, ErrNodeNotFound
	}
	d := Dispatch{Node: n}
	switch {
	case n.IsContext:
		d.Action = ActionBack
	case n.IsCentral:
		d.Action = ActionNone
	case n.Kind == graph.KindTag:
		d.Action = ActionTag
	case n.Kind == graph.KindGenre:
		d.Action = ActionGenre
	}
	return d, nil
}

// countFixed counts the central and context nodes of g.
func countFixed(g graph.Graph) int {
	n := 0
	for _, node := range g.Nodes {
		if node.IsCentral || node.IsContext {
			n++
		}
	}
	return n
}
