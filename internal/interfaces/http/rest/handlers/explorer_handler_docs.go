package handlers

// OpenAPI annotations for the explorer endpoints, read by the swag CLI.

// Search lists track cards for a query
// @Summary Search tracks
// @Description Searches the track metadata provider. Non-empty results are cached per normalized query.
// @Tags search
// @Produce json
// @Param q query string true "Free-text query"
// @Success 200 {object} SearchResponse "Track cards"
// @Failure 400 {object} errors.ErrorResponse "Missing query"
// @Router /search [get]

// CreateSession starts a navigation session
// @Summary Create a session
// @Description Starts an idle navigation session.
// @Tags sessions
// @Produce json
// @Success 201 {object} SessionResponse "Session created"
// @Failure 503 {object} errors.ErrorResponse "Session store full"
// @Router /sessions [post]

// DeleteSession ends a navigation session
// @Summary Delete a session
// @Tags sessions
// @Param sessionID path string true "Session ID"
// @Success 204 "Session ended"
// @Failure 404 {object} errors.ErrorResponse "Session not found"
// @Router /sessions/{sessionID} [delete]

// GetView returns the installed view
// @Summary Get the current view
// @Description Returns the graph with render hints, the detail panel, the state and the generation.
// @Tags navigation
// @Produce json
// @Param sessionID path string true "Session ID"
// @Success 200 {object} ViewResponse "Current view"
// @Failure 404 {object} errors.ErrorResponse "Session not found"
// @Router /sessions/{sessionID}/view [get]

// SelectTrack shows the track view for a track
// @Summary Select a track
// @Description Builds the track view from the track's filtered artist and track tags.
// @Tags navigation
// @Accept json
// @Produce json
// @Param sessionID path string true "Session ID"
// @Param request body track.Track true "Track record; name and artist are required"
// @Success 200 {object} ViewResponse "Track view"
// @Failure 400 {object} errors.ErrorResponse "Invalid track"
// @Failure 404 {object} errors.ErrorResponse "Session not found"
// @Failure 409 {object} errors.ErrorResponse "Superseded by a newer request (STALE_GENERATION)"
// @Router /sessions/{sessionID}/track [post]

// FocusGenre focuses a genre by name
// @Summary Focus a genre
// @Description Builds the genre-focus view: context track, central genre and resolved subgenres.
// @Tags navigation
// @Accept json
// @Produce json
// @Param sessionID path string true "Session ID"
// @Param request body FocusGenreRequest true "Genre name"
// @Success 200 {object} ViewResponse "Genre-focus view"
// @Failure 400 {object} errors.ErrorResponse "Invalid request"
// @Failure 404 {object} errors.ErrorResponse "Session not found"
// @Failure 409 {object} errors.ErrorResponse "Superseded by a newer request (STALE_GENERATION)"
// @Router /sessions/{sessionID}/genre [post]

// ClickNode dispatches a click on a node
// @Summary Click a node
// @Description Tag nodes focus the tag, genre nodes focus the genre, the context track goes back and the central node is a no-op.
// @Tags navigation
// @Produce json
// @Param sessionID path string true "Session ID"
// @Param nodeID path string true "Node ID, path-escaped"
// @Success 200 {object} ViewResponse "Resulting view"
// @Failure 404 {object} errors.ErrorResponse "Session or node not found"
// @Failure 409 {object} errors.ErrorResponse "Transition not allowed or superseded"
// @Router /sessions/{sessionID}/nodes/{nodeID}/click [post]

// HoverNode describes a node without changing the view
// @Summary Hover a node
// @Tags navigation
// @Produce json
// @Param sessionID path string true "Session ID"
// @Param nodeID path string true "Node ID, path-escaped"
// @Success 200 {object} navigation.HoverCard "Track card or summary"
// @Failure 404 {object} errors.ErrorResponse "Session or node not found"
// @Router /sessions/{sessionID}/nodes/{nodeID}/hover [get]

// Back returns to the selected track
// @Summary Go back
// @Description Restores the track view with the panel exactly as it was first shown.
// @Tags navigation
// @Produce json
// @Param sessionID path string true "Session ID"
// @Success 200 {object} ViewResponse "Track view"
// @Failure 404 {object} errors.ErrorResponse "Session not found"
// @Failure 409 {object} errors.ErrorResponse "Transition not allowed or superseded"
// @Router /sessions/{sessionID}/back [post]
