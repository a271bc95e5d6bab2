package navigation

import (
	"sync"
	"time"

	"soundgraph-backend/internal/domain/graph"
	"soundgraph-backend/internal/domain/track"
)

// Session is the navigation context of one user. It is created on session
// start and owned by the controller; all fields are guarded by mu.
type Session struct {
	id        string
	createdAt time.Time

	mu           sync.Mutex
	state        State
	currentTrack *track.Track
	// snapshot is the encoded panel captured when currentTrack was selected.
	snapshot     []byte
	trackGraph   graph.Graph
	trackGraphAt time.Time
	view         View
	// generation is the last ticket issued; the installed view carries the
	// ticket that built it.
	generation   uint64
	touchedAt    time.Time
}

// NewSession creates an idle session.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		id:        id,
		createdAt: now,
		touchedAt: now,
		state:     StateIdle,
		view:      View{State: StateIdle},
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// CreatedAt returns when the session started.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// TouchedAt returns the time of the last installed view or issued request.
func (s *Session) TouchedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touchedAt
}

// Touch records activity that does not change the view, such as a poll or
// a hover.
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.After(s.touchedAt) {
		s.touchedAt = now
	}
}

// View returns the installed view.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentTrack returns a copy of the selected track, if any.
func (s *Session) CurrentTrack() (track.Track, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentTrack == nil {
		return track.Track{}, false
	}
	return *s.currentTrack, true
}

// Snapshot returns a copy of the track panel snapshot.
func (s *Session) Snapshot() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.snapshot...)
}

// Generation returns the last issued ticket.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// issue hands out the next ticket. Caller holds mu.
func (s *Session) issue(now time.Time) uint64 {
	s.generation++
	s.touchedAt = now
	return s.generation
}

// current reports whether gen is still the newest ticket. Caller holds mu.
func (s *Session) current(gen uint64) bool {
	return gen == s.generation
}

// install replaces the displayed view. Caller holds mu.
func (s *Session) install(state State, g graph.Graph, panel []byte, gen uint64, now time.Time) View {
	s.state = state
	s.view = View{
		State:      state,
		Graph:      g,
		Panel:      append([]byte(nil), panel...),
		Generation: gen,
	}
	s.touchedAt = now
	return s.view
}

// Node looks up a node of the displayed graph.
func (s *Session) Node(id string) (graph.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.Graph.Node(id)
}
