package generatescenario

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
	TaskType  = "scenario.generate-scenario"
	ConfigKey = "scenario-generate-scenario"
)

type Handler struct {
	config       *Config
	logger       logger.Logger
	service      Completer
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
}

type HandlerOptions struct {
	AppConfig     *config.Config
	CustomConfig  *Config
	Service       Completer
	Observability *observability.Observability
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for generate-scenario: %w", err)
	}
	if opts.Service == nil {
		return nil, fmt.Errorf("generate-scenario requires a scenario service")
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

// Handle never fails on gateway errors: the service substitutes a demo
// scenario and the job completes with demo=true.
func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Generating scenario", map[string]interface{}{
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	kind := "generate"
	if input.Refinement {
		kind = "refine"
	}

	sc := h.service.Complete(ctx, kind, input.Prompt, input.Region, input.TimeFrame)
	return &Output{
		ScenarioID:     sc.ID,
		Scenario:       sc.Text,
		Demo:           sc.Demo,
		FallbackReason: sc.FallbackReason,
		GeneratedAt:    sc.GeneratedAt,
	}, nil
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInputParsingError(err)
	}

	if result := validation.ValidateInput(variables, GetInputSchema()); !result.Valid {
		return nil, errors.NewInputValidationError(result.GetErrorMessages())
	}

	tf, err := scenario.ParseTimeFrame(variables["timeFrame"].(string))
	if err != nil {
		return nil, err
	}

	input := &Input{
		Prompt:    variables["prompt"].(string),
		Region:    variables["region"].(string),
		TimeFrame: tf,
	}
	if refinement, ok := variables["refinement"].(bool); ok {
		input.Refinement = refinement
	}
	return input, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	variables := map[string]interface{}{
		"scenarioId":  output.ScenarioID,
		"scenario":    output.Scenario,
		"demo":        output.Demo,
		"generatedAt": output.GeneratedAt.Format(time.RFC3339),
	}
	if output.FallbackReason != "" {
		variables["fallbackReason"] = output.FallbackReason
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

	h.logger.Info("Scenario generated", map[string]interface{}{
		"jobKey":     job.GetKey(),
		"scenarioId": output.ScenarioID,
		"demo":       output.Demo,
		"worker":     TaskType,
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
