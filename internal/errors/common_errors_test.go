package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without cause",
			err:  NewAppValidationError("item url is required"),
			want: "[VALIDATION] item url is required",
		},
		{
			name: "with cause",
			err:  NewNetworkError("listing page did not load", fmt.Errorf("net::ERR_NAME_NOT_RESOLVED")),
			want: "[NETWORK] listing page did not load: net::ERR_NAME_NOT_RESOLVED",
		},
		{
			name: "not found formats resource",
			err:  NewNotFoundError("price data"),
			want: "[NOT_FOUND] price data not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAppError_Constructors(t *testing.T) {
	cause := fmt.Errorf("root cause")

	tests := []struct {
		name     string
		err      *AppError
		wantType ErrorType
	}{
		{name: "network", err: NewNetworkError("m", cause), wantType: ErrTypeNetwork},
		{name: "parsing", err: NewParsingError("m", cause), wantType: ErrTypeParsing},
		{name: "storage", err: NewStorageError("m", cause), wantType: ErrTypeStorage},
		{name: "config", err: NewConfigError("m", cause), wantType: ErrTypeConfig},
		{name: "insufficient data", err: NewInsufficientDataError("m", cause), wantType: ErrTypeInsufficientData},
		{name: "scheduler", err: NewSchedulerError("m", cause), wantType: ErrTypeScheduler},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, "m", tt.err.Message)
			assert.Same(t, cause, tt.err.Cause)
			assert.NotNil(t, tt.err.Context)
		})
	}
}

func TestAppError_ErrorsIntegration(t *testing.T) {
	t.Run("errors.Is sees the cause", func(t *testing.T) {
		sentinel := errors.New("timeout waiting for table")
		appErr := NewNetworkError("fetch failed", sentinel)

		assert.True(t, errors.Is(appErr, sentinel))
		assert.False(t, errors.Is(appErr, errors.New("other")))
	})

	t.Run("errors.As through wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("export: %w", NewStorageError("write csv", nil))

		var appErr *AppError
		require.True(t, errors.As(wrapped, &appErr))
		assert.Equal(t, ErrTypeStorage, appErr.Type)
	})
}

func TestAppError_WithContext(t *testing.T) {
	appErr := &AppError{Type: ErrTypeStorage, Message: "write failed"}

	result := appErr.
		WithContext("file", "Chroma_3_Case_price_data.csv").
		WithContext("rows", 3).
		WithContext("rows", 4)

	assert.Same(t, appErr, result)
	assert.Equal(t, "Chroma_3_Case_price_data.csv", result.Context["file"])
	assert.Equal(t, 4, result.Context["rows"])
}
