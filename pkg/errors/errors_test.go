package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAppError_IsMatchesByTypeAndCode(t *testing.T) {
	sentinel := NewConflictError("superseded").WithCode("STALE")
	other := NewConflictError("another message").WithCode("STALE")
	uncoded := NewConflictError("superseded")

	assert.True(t, stderrors.Is(fmt.Errorf("apply: %w", other), sentinel))
	assert.False(t, stderrors.Is(uncoded, sentinel))
	assert.False(t, stderrors.Is(NewValidationError("x").WithCode("STALE"), sentinel))
}

func TestTypeHelpers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"not found", NewNotFoundError("session"), IsNotFound},
		{"validation", NewValidationError("bad"), IsValidation},
		{"conflict", NewConflictError("busy"), IsConflict},
		{"wrapped internal", fmt.Errorf("outer: %w", NewInternalError("boom")), IsInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.True(t, IsAppError(tt.err))
		})
	}

	assert.False(t, IsNotFound(stderrors.New("plain")))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))

	wrapped := Wrap(stderrors.New("disk"), "saving")
	appErr := GetAppError(wrapped)
	require.NotNil(t, appErr)
	assert.Equal(t, ErrorTypeInternal, appErr.Type)
	assert.Equal(t, "saving", appErr.Message)
}

func TestErrorHandler_Handle(t *testing.T) {
	handler := NewErrorHandler(zap.NewNop(), false)

	t.Run("app error keeps status and code", func(t *testing.T) {
		// Arrange
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/x/back", nil)

		// Act
		handler.Handle(w, r, NewConflictError("no track to go back to").WithCode("INVALID_TRANSITION"))

		// Assert
		assert.Equal(t, http.StatusConflict, w.Code)
		var body ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.True(t, body.Error)
		assert.Equal(t, "CONFLICT", body.Type)
		assert.Equal(t, "INVALID_TRANSITION", body.Code)
	})

	t.Run("plain error is hidden", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)

		handler.Handle(w, r, stderrors.New("secret detail"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "secret detail")
	})
}
