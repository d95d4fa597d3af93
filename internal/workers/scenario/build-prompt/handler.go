package buildprompt

import (
	"context"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"worldbuilder/internal/common/config"
	"worldbuilder/internal/common/errors"
	"worldbuilder/internal/common/logger"
	"worldbuilder/internal/common/metrics"
	"worldbuilder/internal/common/observability"
	"worldbuilder/internal/common/validation"
	"worldbuilder/internal/scenario"
)

const (
	TaskType  = "scenario.build-prompt"
	ConfigKey = "scenario-build-prompt"
)

type Handler struct {
	config       *Config
	logger       logger.Logger
	service      PromptBuilder
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
}

type HandlerOptions struct {
	AppConfig     *config.Config
	CustomConfig  *Config
	Service       PromptBuilder
	Observability *observability.Observability
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for build-prompt: %w", err)
	}
	if opts.Service == nil {
		return nil, fmt.Errorf("build-prompt requires a scenario service")
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info")
	}

	return &Handler{
		config:       workerConfig,
		logger:       log,
		service:      opts.Service,
		obs:          opts.Observability,
		errorHandler: errors.NewErrorHandler(log),
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Building scenario prompt", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
		"worker":             TaskType,
	})

	input, err := h.parseInput(job)
	if err != nil {
		h.failJob(ctx, client, job, err, startTime)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.failJob(ctx, client, job, err, startTime)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	h.obs.RecordJobProcessed(ctx, TaskType, "completed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(startTime), "completed")
}

// Execute builds a refinement prompt when the input carries a previous
// scenario or feedback, and a generation prompt otherwise.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	var (
		text string
		err  error
	)
	refinement := input.Fields.IsRefinement()

	if refinement {
		var req scenario.RefinementRequest
		if req, err = input.Fields.Refinement(); err != nil {
			return nil, err
		}
		text, err = h.service.BuildRefinementPrompt(ctx, req)
	} else {
		var req scenario.GenerationRequest
		if req, err = input.Fields.Generation(); err != nil {
			return nil, err
		}
		text, err = h.service.BuildPrompt(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	return &Output{Prompt: text, PromptLength: len(text), Refinement: refinement}, nil
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInputParsingError(err)
	}

	if result := validation.ValidateInput(variables, GetInputSchema()); !result.Valid {
		return nil, errors.NewInputValidationError(result.GetErrorMessages())
	}

	fields, err := scenario.DecodeRequestFields(variables)
	if err != nil {
		return nil, err
	}
	return &Input{Fields: fields}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	variables := map[string]interface{}{
		"prompt":       output.Prompt,
		"promptLength": output.PromptLength,
		"refinement":   output.Refinement,
	}

	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromMap(variables)
	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
			"worker": TaskType,
		})
		return
	}

	if _, err := request.Send(ctx); err != nil {
		h.logger.Error("Failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
			"worker": TaskType,
		})
		return
	}

	// The prompt itself is never logged.
	h.logger.Info("Scenario prompt built", map[string]interface{}{
		"jobKey":       job.GetKey(),
		"promptLength": output.PromptLength,
		"refinement":   output.Refinement,
		"worker":       TaskType,
	})
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error, startTime time.Time) {
	stdErr := errors.Normalize(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.obs.RecordJobProcessed(ctx, TaskType, "failed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(startTime), "failed")
	h.errorHandler.HandleJobError(ctx, client, job, stdErr)
}

func (h *Handler) GetTaskType() string {
	return TaskType
}

func (h *Handler) IsEnabled() bool {
	return h.config.Enabled
}
