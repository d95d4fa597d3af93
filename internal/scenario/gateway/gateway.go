// Package gateway calls the hosted text-generation API and substitutes a demo
// scenario whenever that call cannot produce text.
package gateway

import (
	"context"
	stderrors "errors"
	"fmt"

	"worldbuilder/internal/common/errors"
)

// Generator turns a prompt into generated text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

var (
	ErrNotConfigured = stderrors.New("text generation API key is not configured")
	ErrEmptyResponse = stderrors.New("empty response from text generation API")
)

// GatewayError is a non-2xx reply from the generation API.
type GatewayError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *GatewayError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("generation API returned status %d (%s): %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("generation API returned status %d: %s", e.StatusCode, e.Message)
}

// Classify maps a Generate error onto the shared error codes.
func Classify(err error) *errors.StandardError {
	if stdErr, ok := errors.As(err); ok {
		return stdErr
	}

	var gwErr *GatewayError
	switch {
	case stderrors.Is(err, ErrNotConfigured):
		return errors.NewGatewayNotConfiguredError()
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.NewGatewayTimeoutError(err)
	case stderrors.As(err, &gwErr):
		return errors.NewGatewayRequestError(gwErr.StatusCode, err)
	default:
		return errors.NewGatewayRequestError(0, err)
	}
}
