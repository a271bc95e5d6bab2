package handlers

import (
	"encoding/json"

	"soundgraph-backend/internal/domain/graph"
	"soundgraph-backend/internal/domain/navigation"
	"soundgraph-backend/internal/domain/track"
)

// FocusGenreRequest is the body of POST /sessions/{sessionID}/genre.
type FocusGenreRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// SessionResponse is returned when a session starts.
type SessionResponse struct {
	SessionID string       `json:"session_id"`
	View      ViewResponse `json:"view"`
}

// ViewResponse is a view with render hints attached to every node.
type ViewResponse struct {
	SessionID  string            `json:"session_id"`
	State      navigation.State  `json:"state"`
	Generation uint64            `json:"generation"`
	Graph      graph.RenderGraph `json:"graph"`
	Panel      json.RawMessage   `json:"panel,omitempty"`
}

// SearchResponse lists track cards for a query.
type SearchResponse struct {
	Query   string        `json:"query"`
	Results []track.Track `json:"results"`
	Total   int           `json:"total"`
}

func toViewResponse(sessionID string, v navigation.View) ViewResponse {
	return ViewResponse{
		SessionID:  sessionID,
		State:      v.State,
		Generation: v.Generation,
		Graph:      v.Graph.Render(),
		Panel:      v.Panel,
	}
}
