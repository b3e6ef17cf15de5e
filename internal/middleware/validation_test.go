package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "pricepulse/internal/errors"
)

type listingRequest struct {
	URL        string `json:"url" validate:"required,listingurl"`
	WindowDays int    `json:"window_days" validate:"omitempty,gte=1,lte=3650"`
	Output     string `json:"output,omitempty" validate:"omitempty,filename"`
}

func newValidation(limit int64) *ValidationMiddleware {
	logger := testLogger()
	return NewValidationMiddleware(logger, apierrors.NewErrorHandler(logger, false), limit)
}

func TestValidateStruct(t *testing.T) {
	vm := newValidation(0)

	tests := []struct {
		name      string
		req       listingRequest
		wantField string
	}{
		{name: "valid", req: listingRequest{URL: "https://steamcommunity.com/market/listings/730/Chroma%203%20Case"}},
		{name: "missing url", req: listingRequest{}, wantField: "url"},
		{name: "relative url", req: listingRequest{URL: "/market/listings/730/x"}, wantField: "url"},
		{name: "ftp url", req: listingRequest{URL: "ftp://example.com/x"}, wantField: "url"},
		{name: "other host", req: listingRequest{URL: "https://evil.example/market/listings/730/..%2F..%2Ftmp%2Fx"}, wantField: "url"},
		{name: "lookalike host", req: listingRequest{URL: "https://steamcommunity.com.evil.example/market/listings/730/x"}, wantField: "url"},
		{name: "www host", req: listingRequest{URL: "https://www.steamcommunity.com/market/listings/730/x"}},
		{name: "window too small", req: listingRequest{URL: "https://steamcommunity.com/x", WindowDays: -1}, wantField: "window_days"},
		{name: "traversal", req: listingRequest{URL: "https://steamcommunity.com/x", Output: "../etc"}, wantField: "output"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := vm.ValidateStruct(tt.req)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var apiErr *apierrors.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
			details, ok := apiErr.Details.(apierrors.ValidationErrors)
			require.True(t, ok)
			require.Len(t, details.Errors, 1)
			assert.Equal(t, tt.wantField, details.Errors[0].Field)
		})
	}
}

func TestDecode(t *testing.T) {
	vm := newValidation(0)

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "valid", body: `{"url":"https://steamcommunity.com/market/listings/730/x"}`},
		{name: "empty", body: ``, wantErr: true},
		{name: "unknown field", body: `{"url":"https://steamcommunity.com/x","extra":1}`, wantErr: true},
		{name: "fails validation", body: `{"url":"nope"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var out listingRequest
			err := vm.Decode(req, &out)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "https://steamcommunity.com/market/listings/730/x", out.URL)
		})
	}
}

func TestValidateRequest(t *testing.T) {
	vm := newValidation(32)
	h := vm.ValidateRequest(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	tests := []struct {
		name   string
		method string
		body   string
		want   int
	}{
		{"get passes", http.MethodGet, "", http.StatusAccepted},
		{"valid json", http.MethodPost, `{"a":1}`, http.StatusAccepted},
		{"invalid json", http.MethodPost, `{"a":`, http.StatusBadRequest},
		{"too large", http.MethodPost, `{"a":"` + strings.Repeat("x", 64) + `"}`, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, "/api/analyze", strings.NewReader(tt.body)))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestContentTypeValidator(t *testing.T) {
	h := ContentTypeValidator("application/json")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name        string
		contentType string
		want        int
	}{
		{"json", "application/json; charset=utf-8", http.StatusOK},
		{"missing", "", http.StatusBadRequest},
		{"form", "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestQueryParamValidator(t *testing.T) {
	logger := testLogger()
	qv := NewQueryParamValidator(logger, apierrors.NewErrorHandler(logger, false))

	tests := []struct {
		query  string
		want   int
		wantOK bool
	}{
		{"", 1095, true},
		{"window_days=30", 30, true},
		{"window_days=abc", 0, false},
		{"window_days=0", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := httptest.NewRecorder()
			got, ok := qv.ValidateInt(rec, httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil), "window_days", 1, 3650, 1095)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
			if !ok {
				assert.Equal(t, http.StatusBadRequest, rec.Code)
			}
		})
	}
}
