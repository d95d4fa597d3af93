// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Lookup errors raised by the prompt builder for unknown reference keys.
	ErrCodeRegionNotFound    ErrorCode = "REGION_NOT_FOUND"
	ErrCodeTimeFrameNotFound ErrorCode = "TIME_FRAME_NOT_FOUND"

	ErrCodeInputUnsafe           ErrorCode = "INPUT_UNSAFE"
	ErrCodeFeedbackRequired      ErrorCode = "FEEDBACK_REQUIRED"
	ErrCodeInputParsingFailed    ErrorCode = "INPUT_PARSING_FAILED"
	ErrCodeInputValidationFailed ErrorCode = "INPUT_VALIDATION_FAILED"

	ErrCodeGatewayNotConfigured ErrorCode = "GATEWAY_NOT_CONFIGURED"
	ErrCodeGatewayRequestFailed ErrorCode = "GATEWAY_REQUEST_FAILED"
	ErrCodeGatewayTimeout       ErrorCode = "GATEWAY_TIMEOUT"

	ErrCodeRateLimited   ErrorCode = "RATE_LIMITED"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"

	// Generic codes used by the Camunda client wrapper.
	ErrCodeExternalService   ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout           ErrorCode = "TIMEOUT_ERROR"
	ErrCodeResourceNotFound  ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeAuthenticationErr ErrorCode = "AUTHENTICATION_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a key to the error metadata and returns the error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = map[string]interface{}{}
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewRegionNotFoundError is returned when a region key has no reference data.
func NewRegionNotFoundError(region string) *StandardError {
	return newError(ErrCodeRegionNotFound, "Region not found", fmt.Sprintf("unknown region %q", region), false).
		WithMetadata("region", region)
}

// NewTimeFrameNotFoundError is returned when a time frame has no reference data.
func NewTimeFrameNotFoundError(timeFrame string) *StandardError {
	return newError(ErrCodeTimeFrameNotFound, "Time frame not found", fmt.Sprintf("unknown time frame %q", timeFrame), false).
		WithMetadata("timeFrame", timeFrame)
}

// NewInputUnsafeError reports user text that failed the safety check.
// The caller attaches issues and suggestions as metadata.
func NewInputUnsafeError(field string) *StandardError {
	return newError(ErrCodeInputUnsafe, "Input contains content that is not appropriate for young learners", field, false).
		WithMetadata("field", field)
}

func NewFeedbackRequiredError() *StandardError {
	return newError(ErrCodeFeedbackRequired, "At least one of liked or disliked feedback is required", "", false)
}

func NewInputParsingError(err error) *StandardError {
	return newError(ErrCodeInputParsingFailed, "Failed to parse input", errDetails(err), false)
}

// NewInputValidationError wraps schema violations.
func NewInputValidationError(violations []string) *StandardError {
	return newError(ErrCodeInputValidationFailed, "Input validation failed", strings.Join(violations, "; "), false).
		WithMetadata("violations", violations)
}

func NewGatewayNotConfiguredError() *StandardError {
	return newError(ErrCodeGatewayNotConfigured, "Text generation API key is not configured", "", false)
}

func NewGatewayRequestError(statusCode int, err error) *StandardError {
	return newError(ErrCodeGatewayRequestFailed, "Text generation request failed", errDetails(err), statusCode >= 500 || statusCode == http.StatusTooManyRequests).
		WithMetadata("statusCode", statusCode)
}

func NewGatewayTimeoutError(err error) *StandardError {
	return newError(ErrCodeGatewayTimeout, "Text generation request timed out", errDetails(err), true)
}

func NewRateLimitedError(key string) *StandardError {
	return newError(ErrCodeRateLimited, "Too many scenario requests, please wait a moment", key, true)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternalError, "Unexpected error", errDetails(err), false)
}

// Generic constructors

func NewExternalServiceError(service string, err error) *StandardError {
	return newError(ErrCodeExternalService, fmt.Sprintf("External service '%s' error", service), errDetails(err), true)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeTimeout, fmt.Sprintf("Service '%s' timeout", service), errDetails(err), true)
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return newError(ErrCodeResourceNotFound, fmt.Sprintf("Resource not found in %s", service), details, false)
}

func NewAuthenticationError(details string) *StandardError {
	return newError(ErrCodeAuthenticationErr, "Authentication failed", details, false)
}

func errDetails(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to the BPMN error codes used in
// the scenario process model. Lookup failures collapse into one boundary event.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeRegionNotFound:        "REFERENCE_NOT_FOUND",
	ErrCodeTimeFrameNotFound:     "REFERENCE_NOT_FOUND",
	ErrCodeInputUnsafe:           "INPUT_UNSAFE",
	ErrCodeFeedbackRequired:      "FEEDBACK_REQUIRED",
	ErrCodeInputParsingFailed:    "INPUT_INVALID",
	ErrCodeInputValidationFailed: "INPUT_INVALID",
	ErrCodeGatewayNotConfigured:  "GATEWAY_NOT_CONFIGURED",
	ErrCodeGatewayRequestFailed:  "GATEWAY_REQUEST_FAILED",
	ErrCodeGatewayTimeout:        "GATEWAY_TIMEOUT",
	ErrCodeRateLimited:           "RATE_LIMITED",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeGatewayRequestFailed,
		ErrCodeExternalService:
		return 3

	case ErrCodeRateLimited,
		ErrCodeTimeout:
		return 2

	case ErrCodeGatewayTimeout:
		return 1

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasSuffix(codeStr, "_NOT_FOUND"):
		return "LOOKUP"
	case strings.Contains(codeStr, "UNSAFE"):
		return "SAFETY"
	case strings.Contains(codeStr, "GATEWAY"):
		return "AI"
	case strings.Contains(codeStr, "RATE"):
		return "RATE_LIMIT"
	case strings.Contains(codeStr, "INPUT") || strings.Contains(codeStr, "FEEDBACK"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}

// As extracts a *StandardError from err's chain.
func As(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HTTPStatus maps an error code to the status returned by the public API.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeRegionNotFound, ErrCodeTimeFrameNotFound, ErrCodeResourceNotFound:
		return http.StatusNotFound
	case ErrCodeInputUnsafe:
		return http.StatusUnprocessableEntity
	case ErrCodeFeedbackRequired, ErrCodeInputParsingFailed, ErrCodeInputValidationFailed:
		return http.StatusBadRequest
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeGatewayTimeout, ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeGatewayRequestFailed, ErrCodeExternalService:
		return http.StatusBadGateway
	case ErrCodeGatewayNotConfigured:
		return http.StatusServiceUnavailable
	case ErrCodeAuthenticationErr:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
