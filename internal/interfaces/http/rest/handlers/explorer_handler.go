// Package handlers serves the explorer API.
package handlers

import (
	"context"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"soundgraph-backend/internal/domain/navigation"
	"soundgraph-backend/internal/domain/track"
	"soundgraph-backend/pkg/api"
	apperrors "soundgraph-backend/pkg/errors"
)

// Explorer is the use-case surface the handlers drive.
type Explorer interface {
	Search(ctx context.Context, query string) []track.Track
	CreateSession(ctx context.Context) (*navigation.Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
	View(ctx context.Context, sessionID string) (navigation.View, error)
	SelectTrack(ctx context.Context, sessionID string, t track.Track) (navigation.View, error)
	FocusGenre(ctx context.Context, sessionID, name string) (navigation.View, error)
	ClickNode(ctx context.Context, sessionID, nodeID string) (navigation.View, error)
	HoverNode(ctx context.Context, sessionID, nodeID string) (navigation.HoverCard, error)
	Back(ctx context.Context, sessionID string) (navigation.View, error)
}

// ExplorerHandler handles session and navigation requests.
type ExplorerHandler struct {
	explorer     Explorer
	validate     *validator.Validate
	logger       *zap.Logger
	errorHandler *apperrors.ErrorHandler
}

// NewExplorerHandler creates the handler.
func NewExplorerHandler(explorer Explorer, logger *zap.Logger, errorHandler *apperrors.ErrorHandler) *ExplorerHandler {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &ExplorerHandler{
		explorer:     explorer,
		validate:     v,
		logger:       logger,
		errorHandler: errorHandler,
	}
}

// Search handles GET /search?q=
func (h *ExplorerHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		h.errorHandler.Handle(w, r, apperrors.NewValidationError("search query is required").WithCode("EMPTY_QUERY"))
		return
	}

	results := h.explorer.Search(r.Context(), query)
	api.Success(w, http.StatusOK, SearchResponse{Query: query, Results: results, Total: len(results)})
}

// CreateSession handles POST /sessions
func (h *ExplorerHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.explorer.CreateSession(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	api.Success(w, http.StatusCreated, SessionResponse{
		SessionID: session.ID(),
		View:      toViewResponse(session.ID(), session.View()),
	})
}

// DeleteSession handles DELETE /sessions/{sessionID}
func (h *ExplorerHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.explorer.DeleteSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetView handles GET /sessions/{sessionID}/view
func (h *ExplorerHandler) GetView(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	view, err := h.explorer.View(r.Context(), sessionID)
	h.respondView(w, r, sessionID, view, err)
}

// SelectTrack handles POST /sessions/{sessionID}/track
func (h *ExplorerHandler) SelectTrack(w http.ResponseWriter, r *http.Request) {
	var body track.Track
	if !h.decode(w, r, &body) {
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	view, err := h.explorer.SelectTrack(r.Context(), sessionID, body)
	h.respondView(w, r, sessionID, view, err)
}

// FocusGenre handles POST /sessions/{sessionID}/genre
func (h *ExplorerHandler) FocusGenre(w http.ResponseWriter, r *http.Request) {
	var body FocusGenreRequest
	if !h.decode(w, r, &body) {
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	view, err := h.explorer.FocusGenre(r.Context(), sessionID, body.Name)
	h.respondView(w, r, sessionID, view, err)
}

// ClickNode handles POST /sessions/{sessionID}/nodes/{nodeID}/click
func (h *ExplorerHandler) ClickNode(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	view, err := h.explorer.ClickNode(r.Context(), sessionID, nodeIDParam(r))
	h.respondView(w, r, sessionID, view, err)
}

// HoverNode handles GET /sessions/{sessionID}/nodes/{nodeID}/hover
func (h *ExplorerHandler) HoverNode(w http.ResponseWriter, r *http.Request) {
	card, err := h.explorer.HoverNode(r.Context(), chi.URLParam(r, "sessionID"), nodeIDParam(r))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, card)
}

// Back handles POST /sessions/{sessionID}/back
func (h *ExplorerHandler) Back(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	view, err := h.explorer.Back(r.Context(), sessionID)
	h.respondView(w, r, sessionID, view, err)
}

func (h *ExplorerHandler) respondView(w http.ResponseWriter, r *http.Request, sessionID string, view navigation.View, err error) {
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	api.Success(w, http.StatusOK, toViewResponse(sessionID, view))
}

// decode reads and validates a JSON body, answering 400 on failure.
func (h *ExplorerHandler) decode(w http.ResponseWriter, r *http.Request, target interface{}) bool {
	if err := api.DecodeJSON(r, target); err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewValidationError("invalid request body").WithCause(err))
		return false
	}
	if err := h.validate.Struct(target); err != nil {
		h.errorHandler.Handle(w, r, validationError(err))
		return false
	}
	return true
}

func validationError(err error) *apperrors.AppError {
	appErr := apperrors.NewValidationError("request validation failed")
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return appErr.WithCause(err)
	}
	fields := make(map[string]interface{}, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return appErr.WithDetails(map[string]interface{}{"fields": fields})
}

// nodeIDParam returns the node id path segment. Ids such as "tag:ac/dc"
// arrive escaped.
func nodeIDParam(r *http.Request) string {
	raw := chi.URLParam(r, "nodeID")
	if id, err := url.PathUnescape(raw); err == nil {
		return id
	}
	return raw
}
