package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestAppError_TypeHelpers(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := NewUnavailableError("snapshot").WithCode(CodeSnapshotUnavailable).WithCause(cause)

	wrapped := fmt.Errorf("get orders: %w", err)

	assert.True(t, IsAppError(wrapped))
	assert.True(t, IsUnavailable(wrapped))
	assert.False(t, IsValidation(wrapped))
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, http.StatusServiceUnavailable, GetAppError(wrapped).HTTPStatus)
}

func TestConstructors_Status(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want int
	}{
		{"validation", NewValidationError("bad page"), http.StatusBadRequest},
		{"not found", NewNotFoundError("order"), http.StatusNotFound},
		{"internal", NewInternalError("boom"), http.StatusInternalServerError},
		{"unavailable", NewUnavailableError("snapshot"), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus)
			assert.NotEmpty(t, tt.err.StackTrace)
		})
	}
	assert.Equal(t, "order not found", NewNotFoundError("order").Message)
}

func TestErrorHandler_Handle(t *testing.T) {
	h := NewErrorHandler(zap.NewNop(), false)

	t.Run("app error uses its status and code", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
		req.Header.Set("X-Request-ID", "req-1")

		h.Handle(rec, req, NewValidationError("invalid query").
			WithCode(CodeInvalidQuery).
			WithDetail("page_size", "must be at most 100"))

		require.Equal(t, http.StatusBadRequest, rec.Code)

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.True(t, body.Error)
		assert.Equal(t, "VALIDATION", body.Type)
		assert.Equal(t, CodeInvalidQuery, body.Code)
		assert.Equal(t, "req-1", body.RequestID)
		assert.Equal(t, "must be at most 100", body.Details["page_size"])
		assert.NotContains(t, body.Details, "stack_trace")
	})

	t.Run("unknown error is hidden", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		h.Handle(rec, req, fmt.Errorf("secret detail"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "secret detail")
	})

	t.Run("debug exposes stack trace", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewErrorHandler(zap.NewNop(), true).Handle(rec, httptest.NewRequest(http.MethodGet, "/", nil),
			NewNotFoundError("order"))

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.NotEmpty(t, body.Details["stack_trace"])
	})
}

func TestErrorHandler_RecovererRendersEnvelope(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	h := NewErrorHandler(zap.New(core), false)

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(h.Recoverer)
	router.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set("X-Request-Id", "req-9")
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, string(ErrorTypeInternal), body.Type)
	assert.Equal(t, "req-9", body.RequestID)
	assert.Equal(t, 1, logs.FilterMessage("Handler panicked").Len())
}

func TestErrorHandler_RecovererRepanicsAbort(t *testing.T) {
	h := NewErrorHandler(zap.NewNop(), false)
	handler := h.Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}
