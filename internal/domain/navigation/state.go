// Package navigation holds the per-session navigation context and the state
// machine that decides what each interaction builds.
package navigation

import (
	"encoding/json"

	"soundgraph-backend/internal/domain/graph"
	apperrors "soundgraph-backend/pkg/errors"
)

// State is the kind of view currently displayed.
type State string

const (
	StateIdle       State = "idle"
	StateTrackView  State = "track_view"
	StateGenreFocus State = "genre_focus"
)

var (
	// ErrInvalidTransition is returned when an interaction is not allowed
	// from the current state.
	ErrInvalidTransition = apperrors.NewConflictError("navigation transition not allowed from current view").WithCode("INVALID_TRANSITION")
	// ErrStaleGeneration is returned when a newer request was issued before
	// this one could be applied. The view it built is discarded.
	ErrStaleGeneration = apperrors.NewConflictError("view superseded by a newer request").WithCode("STALE_GENERATION")
	// ErrNodeNotFound is returned when a node id is not part of the current
	// graph.
	ErrNodeNotFound = apperrors.NewNotFoundError("node").WithCode("NODE_NOT_FOUND")
	// ErrEmptyGenre is returned when a genre focus is requested without a name.
	ErrEmptyGenre = apperrors.NewValidationError("genre name is required").WithCode("EMPTY_GENRE")
)

// View is what the render surface displays: a graph plus the detail panel.
type View struct {
	State      State           `json:"state"`
	Graph      graph.Graph     `json:"graph"`
	Panel      json.RawMessage `json:"panel,omitempty"`
	Generation uint64          `json:"generation"`
}

// ErrEmptyTrack is returned when a track selection carries no identity.
var ErrEmptyTrack = apperrors.NewValidationError("track name and artist are required").WithCode("EMPTY_TRACK")
