package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Render(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/analyze", nil)

	render.Render(w, r, ErrInsufficientData)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var body APIError
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "INSUFFICIENT_DATA", body.ErrorCode)
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *APIError
		wantStatus int
		wantCode   string
	}{
		{"invalid request", ErrInvalidRequest, http.StatusBadRequest, "INVALID_REQUEST"},
		{"validation failed", ErrValidationFailed, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"not found", ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"insufficient data", ErrInsufficientData, http.StatusUnprocessableEntity, "INSUFFICIENT_DATA"},
		{"rate limit", ErrRateLimitExceeded, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED"},
		{"export failed", ErrExportFailed, http.StatusInternalServerError, "EXPORT_FAILED"},
		{"acquisition failed", ErrAcquisitionFailed, http.StatusBadGateway, "ACQUISITION_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, tt.err.StatusCode)
			assert.Equal(t, tt.wantCode, tt.err.ErrorCode)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestDetailHelpers(t *testing.T) {
	cause := fmt.Errorf("boom")

	acq := AcquisitionError(cause)
	assert.Equal(t, http.StatusBadGateway, acq.StatusCode)
	assert.Equal(t, "boom", acq.Details)

	exp := ExportError(cause)
	assert.Equal(t, "EXPORT_FAILED", exp.ErrorCode)

	val := ErrValidation("url", "must be a valid URL")
	assert.Equal(t, ValidationError{Field: "url", Message: "must be a valid URL"}, val.Details)

	nf := NotFoundError("listing")
	assert.Equal(t, "listing not found", nf.Message)

	multi := NewValidationErrors([]ValidationError{{Field: "points", Message: "required"}})
	assert.Len(t, multi.Details.(ValidationErrors).Errors, 1)
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()

	WriteError(w, ErrAcquisitionFailed)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var response ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.False(t, response.Success)
	assert.Equal(t, "ACQUISITION_FAILED", response.Error.ErrorCode)
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	problem := NewProblemDetails(http.StatusUnprocessableEntity, TypeInsufficientData, "Insufficient Data", "", "/api/analyze").
		WithExtension("valid_points", 1).
		WithExtension("status", 999)

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, TypeInsufficientData, decoded["type"])
	assert.Equal(t, float64(http.StatusUnprocessableEntity), decoded["status"], "standard members win over extensions")
	assert.Equal(t, float64(1), decoded["valid_points"])
	assert.NotContains(t, decoded, "detail")
}
