package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name        string
		err         *StandardError
		wantCode    string
		wantRetries int
	}{
		{"region lookup", NewRegionNotFoundError("Atlantis"), "REFERENCE_NOT_FOUND", 0},
		{"time frame lookup", NewTimeFrameNotFoundError("2099"), "REFERENCE_NOT_FOUND", 0},
		{"unsafe input", NewInputUnsafeError("customDirection"), "INPUT_UNSAFE", 0},
		{"gateway 503", NewGatewayRequestError(http.StatusServiceUnavailable, fmt.Errorf("overloaded")), "GATEWAY_REQUEST_FAILED", 3},
		{"gateway 400 is not retried", NewGatewayRequestError(http.StatusBadRequest, fmt.Errorf("bad")), "GATEWAY_REQUEST_FAILED", 0},
		{"gateway timeout", NewGatewayTimeoutError(fmt.Errorf("deadline")), "GATEWAY_TIMEOUT", 1},
		{"unmapped code passes through", NewInternalError(fmt.Errorf("boom")), "INTERNAL_ERROR", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmnErr := ConvertToBPMNError(tt.err)
			assert.Equal(t, tt.wantCode, bpmnErr.Code)
			assert.Equal(t, tt.wantRetries, bpmnErr.Retries)

			vars := bpmnErr.ToErrorVariables()
			assert.Equal(t, string(tt.err.Code), vars["originalErrorCode"])
			assert.Equal(t, tt.err.Message, vars["errorMessage"])
		})
	}
}

func TestConvertToBPMNError_CarriesMetadata(t *testing.T) {
	bpmnErr := ConvertToBPMNError(NewRegionNotFoundError("Atlantis"))
	assert.Equal(t, "Atlantis", bpmnErr.ToErrorVariables()["region"])
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(ErrCodeRegionNotFound))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(ErrCodeTimeFrameNotFound))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(ErrCodeInputUnsafe))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(ErrCodeFeedbackRequired))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(ErrCodeInputValidationFailed))
	assert.Equal(t, http.StatusTooManyRequests, HTTPStatus(ErrCodeRateLimited))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus("SOMETHING_ELSE"))
}

func TestAs(t *testing.T) {
	wrapped := fmt.Errorf("building prompt: %w", NewRegionNotFoundError("Atlantis"))

	stdErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrCodeRegionNotFound, stdErr.Code)

	_, ok = As(fmt.Errorf("plain"))
	assert.False(t, ok)

	assert.Equal(t, ErrCodeInternalError, Normalize(fmt.Errorf("plain")).Code)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "LOOKUP", GetErrorCategory(ErrCodeRegionNotFound))
	assert.Equal(t, "SAFETY", GetErrorCategory(ErrCodeInputUnsafe))
	assert.Equal(t, "AI", GetErrorCategory(ErrCodeGatewayTimeout))
	assert.Equal(t, "RATE_LIMIT", GetErrorCategory(ErrCodeRateLimited))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeFeedbackRequired))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternalError))
}
