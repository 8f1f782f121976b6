package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/maturehumanity/levela/pkg/errors"
	"github.com/maturehumanity/levela/pkg/logger"
	"github.com/maturehumanity/levela/pkg/validator"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteJSON(rec, http.StatusCreated, Response{Data: map[string]string{"id": "abc"}})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	resp := decodeEnvelope(t, rec)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "abc", data["id"])
}

func TestWriteError_AppError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users/x", nil)

	WriteError(rec, req, apperrors.NotFound("user", "x"), logger.New("test", "error"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "user")
}

func TestWriteError_WrappedSentinel(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/endorsements", nil)

	err := fmt.Errorf("create endorsement: %w", apperrors.ErrInvalidInput)
	WriteError(rec, req, err, logger.New("test", "error"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
}

func TestWriteError_UnknownErrorIsOpaque500(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users/x", nil)

	WriteError(rec, req, fmt.Errorf("pq: relation does not exist"), logger.New("test", "error"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INTERNAL_ERROR", resp.Error.Code)
	// Storage details must not leak to the client.
	assert.NotContains(t, resp.Error.Message, "pq:")
}

func TestWriteError_IncludesCorrelationID(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users/x", nil)
	req = req.WithContext(logger.WithCorrelationID(req.Context(), "corr-123"))

	WriteError(rec, req, apperrors.NotFound("user", "x"), logger.New("test", "error"))

	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "corr-123", resp.Error.RequestID)
}

func TestWriteValidationError_FieldMap(t *testing.T) {
	type body struct {
		Email string `validate:"required,email"`
	}
	err := validator.Validate(body{Email: "nope"})
	require.Error(t, err)

	rec := httptest.NewRecorder()
	WriteValidationError(rec, err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Contains(t, resp.Error.Fields, "Email")
}

func TestNewPaginatedResponse(t *testing.T) {
	resp := NewPaginatedResponse([]string{"a", "b"}, 11, 2, 5)

	assert.Equal(t, 11, resp.TotalCount)
	assert.Equal(t, 3, resp.TotalPages) // ceil(11/5)
	assert.True(t, resp.HasNext)
}

func TestNewPaginatedResponse_NilDataBecomesEmptySlice(t *testing.T) {
	resp := NewPaginatedResponse[string](nil, 0, 1, 20)

	assert.NotNil(t, resp.Data)
	assert.Empty(t, resp.Data)
	assert.False(t, resp.HasNext)
}

func TestParseUUID_Valid(t *testing.T) {
	rec := httptest.NewRecorder()
	want := uuid.New()

	got, ok := ParseUUID(rec, want.String())

	assert.True(t, ok)
	assert.Equal(t, want, got)
}

func TestParseUUID_Invalid(t *testing.T) {
	rec := httptest.NewRecorder()

	_, ok := ParseUUID(rec, "not-a-uuid")

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_PARAMETER", resp.Error.Code)
}
