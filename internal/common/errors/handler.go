// internal/common/errors/handler.go
package errors

import (
	"context"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// ErrorHandler resolves a failed job either by failing it with retries or,
// for business errors, by throwing a BPMN error the process model can catch.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleJobError normalizes err and reports it to the broker.
func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) *BPMNError {
	stdErr := Normalize(err)
	bpmnErr := ConvertToBPMNError(stdErr)

	h.logError(job, stdErr, bpmnErr)

	var sendErr error
	if bpmnErr.Retries > 0 && job.GetRetries() > 1 {
		sendErr = h.failJobWithRetries(ctx, client, job, bpmnErr)
	} else {
		sendErr = h.throwBPMNError(ctx, client, job, bpmnErr)
	}
	if sendErr != nil {
		h.logger.Error("Failed to report job error to Camunda", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  sendErr.Error(),
		})
	}
	return bpmnErr
}

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	if stdErr, ok := As(err); ok {
		return stdErr
	}
	return NewInternalError(err)
}

func (h *ErrorHandler) failJobWithRetries(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError) error {
	// job.Retries is what the broker has left; never raise it.
	retries := bpmnErr.Retries
	if remaining := int(job.GetRetries()) - 1; remaining < retries {
		retries = remaining
	}

	cmd := client.NewFailJobCommand().
		JobKey(job.GetKey()).
		Retries(int32(retries)).
		ErrorMessage(fmt.Sprintf("[%s] %s", bpmnErr.Code, bpmnErr.Message))

	withVars, err := cmd.VariablesFromMap(bpmnErr.ToErrorVariables())
	if err != nil {
		_, err = cmd.Send(ctx)
		return err
	}
	_, err = withVars.Send(ctx)
	return err
}

func (h *ErrorHandler) throwBPMNError(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError) error {
	cmd := client.NewThrowErrorCommand().
		JobKey(job.GetKey()).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(bpmnErr.Message)

	withVars, err := cmd.VariablesFromMap(bpmnErr.ToErrorVariables())
	if err != nil {
		_, err = cmd.Send(ctx)
		return err
	}
	_, err = withVars.Send(ctx)
	return err
}

func (h *ErrorHandler) logError(job entities.Job, stdErr *StandardError, bpmnErr *BPMNError) {
	h.logger.Error("Job failed", map[string]interface{}{
		"jobKey":           job.GetKey(),
		"jobType":          job.GetType(),
		"errorCode":        string(stdErr.Code),
		"bpmnErrorCode":    bpmnErr.Code,
		"message":          bpmnErr.Message,
		"details":          stdErr.Details,
		"retryable":        stdErr.Retryable,
		"retries":          bpmnErr.Retries,
		"errorCategory":    GetErrorCategory(stdErr.Code),
		"workflowInstance": job.GetProcessInstanceKey(),
	})
}
