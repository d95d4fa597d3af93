// Package service runs the scenario pipeline: safety check, rate limit,
// prompt assembly, generation with demo fallback and cleanup.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"worldbuilder/internal/common/errors"
	"worldbuilder/internal/common/logger"
	"worldbuilder/internal/common/metrics"
	"worldbuilder/internal/common/observability"
	"worldbuilder/internal/common/ratelimit"
	"worldbuilder/internal/scenario"
	"worldbuilder/internal/scenario/cleaner"
	"worldbuilder/internal/scenario/gateway"
	"worldbuilder/internal/scenario/prompt"
	"worldbuilder/internal/scenario/refdata"
	"worldbuilder/internal/scenario/safety"
)

const (
	kindGenerate = "generate"
	kindRefine   = "refine"
)

type Options struct {
	Store          *refdata.Store
	Builder        *prompt.Builder
	Generator      gateway.Generator
	GatewayTimeout time.Duration
	Limiter        ratelimit.Limiter
	Observability  *observability.Observability
	Logger         logger.Logger
}

type Service struct {
	store   *refdata.Store
	builder *prompt.Builder
	gateway *gateway.Fallback
	limiter ratelimit.Limiter
	obs     *observability.Observability
	tracer  trace.Tracer
	logger  logger.Logger
	now     func() time.Time
	newID   func() string
}

func New(opts Options) *Service {
	if opts.Builder == nil {
		opts.Builder = prompt.New(opts.Store)
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.Unlimited{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNoOpLogger()
	}
	return &Service{
		store:   opts.Store,
		builder: opts.Builder,
		gateway: gateway.NewFallback(opts.Generator, opts.Store, opts.GatewayTimeout, opts.Logger),
		limiter: opts.Limiter,
		obs:     opts.Observability,
		tracer:  opts.Observability.Tracer(),
		logger:  opts.Logger,
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
}

// Store exposes the reference data for read-only endpoints.
func (s *Service) Store() *refdata.Store {
	return s.store
}

type clientKeyCtx struct{}

// WithClientKey tags ctx with the caller identity used for rate limiting.
func WithClientKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, clientKeyCtx{}, key)
}

func clientKey(ctx context.Context) string {
	if key, ok := ctx.Value(clientKeyCtx{}).(string); ok && key != "" {
		return key
	}
	return "anonymous"
}

// CheckInput reports whether text is fit to submit.
func (s *Service) CheckInput(text string) scenario.SafetyVerdict {
	verdict := safety.Validate(text)
	for _, issue := range verdict.Issues {
		metrics.UnsafeInputs.WithLabelValues(issue.Category).Inc()
	}
	return verdict
}

// SanitizeInput rewrites text into a form safe to embed in a prompt.
func (s *Service) SanitizeInput(text string) scenario.SanitizationResult {
	result := safety.Sanitize(text)
	for _, w := range result.Warnings {
		metrics.SanitizerModifications.WithLabelValues(w.Category).Inc()
	}
	return result
}

// BuildPrompt validates req and assembles its generation prompt.
func (s *Service) BuildPrompt(ctx context.Context, req scenario.GenerationRequest) (string, error) {
	ctx, span := s.tracer.Start(ctx, "scenario.build_prompt", trace.WithAttributes(requestAttrs(req.Region, req.TimeFrame, req.Mode)...))
	defer span.End()

	if err := checkAge(req.LearnerAge); err != nil {
		return "", spanError(span, err)
	}
	if err := s.requireSafe("customDirection", req.CustomDirection); err != nil {
		return "", spanError(span, err)
	}

	text, err := s.builder.BuildGeneration(req)
	if err != nil {
		return "", spanError(span, err)
	}
	s.obs.RecordPromptLength(ctx, kindGenerate, len(text))
	span.SetAttributes(attribute.Int("prompt.length", len(text)))
	return text, nil
}

// BuildRefinementPrompt validates req and assembles its refinement prompt.
func (s *Service) BuildRefinementPrompt(ctx context.Context, req scenario.RefinementRequest) (string, error) {
	ctx, span := s.tracer.Start(ctx, "scenario.build_refinement_prompt", trace.WithAttributes(requestAttrs(req.Region, req.TimeFrame, req.Mode)...))
	defer span.End()

	if err := checkAge(req.LearnerAge); err != nil {
		return "", spanError(span, err)
	}
	if req.Feedback.Empty() {
		return "", spanError(span, errors.NewFeedbackRequiredError())
	}
	if req.PreviousScenario == "" {
		return "", spanError(span, errors.NewInputValidationError([]string{"previousScenario is required"}))
	}
	if err := s.requireSafe("feedback.liked", req.Feedback.Liked); err != nil {
		return "", spanError(span, err)
	}
	if err := s.requireSafe("feedback.disliked", req.Feedback.Disliked); err != nil {
		return "", spanError(span, err)
	}

	text, err := s.builder.BuildRefinement(req)
	if err != nil {
		return "", spanError(span, err)
	}
	s.obs.RecordPromptLength(ctx, kindRefine, len(text))
	span.SetAttributes(attribute.Int("prompt.length", len(text)))
	return text, nil
}

// Generate produces a new scenario. Gateway failures never surface; the
// result is then a demo scenario.
func (s *Service) Generate(ctx context.Context, req scenario.GenerationRequest) (*scenario.Scenario, error) {
	ctx, span := s.tracer.Start(ctx, "scenario.generate", trace.WithAttributes(requestAttrs(req.Region, req.TimeFrame, req.Mode)...))
	defer span.End()

	text, err := s.BuildPrompt(ctx, req)
	if err != nil {
		return nil, spanError(span, err)
	}

	// Only requests that would reach the gateway count against the limit.
	if err := s.limiter.Allow(ctx, clientKey(ctx)); err != nil {
		return nil, spanError(span, err)
	}

	sc := s.Complete(ctx, kindGenerate, text, req.Region, req.TimeFrame)
	sc.LearnerAge = req.LearnerAge
	sc.Mode = req.Mode
	span.SetAttributes(attribute.Bool("scenario.demo", sc.Demo))
	return sc, nil
}

// Refine regenerates a scenario from the previous text and feedback.
func (s *Service) Refine(ctx context.Context, req scenario.RefinementRequest) (*scenario.Scenario, error) {
	ctx, span := s.tracer.Start(ctx, "scenario.refine", trace.WithAttributes(requestAttrs(req.Region, req.TimeFrame, req.Mode)...))
	defer span.End()

	text, err := s.BuildRefinementPrompt(ctx, req)
	if err != nil {
		return nil, spanError(span, err)
	}

	// Only requests that would reach the gateway count against the limit.
	if err := s.limiter.Allow(ctx, clientKey(ctx)); err != nil {
		return nil, spanError(span, err)
	}

	sc := s.Complete(ctx, kindRefine, text, req.Region, req.TimeFrame)
	sc.LearnerAge = req.LearnerAge
	sc.Mode = req.Mode
	sc.Refined = true
	span.SetAttributes(attribute.Bool("scenario.demo", sc.Demo))
	return sc, nil
}

// Complete sends an assembled prompt to the gateway and cleans the reply.
// kind is "generate" or "refine" and only labels metrics.
func (s *Service) Complete(ctx context.Context, kind, promptText, region string, tf scenario.TimeFrame) *scenario.Scenario {
	year := tf.Year()

	gctx, span := s.tracer.Start(ctx, "scenario.gateway")
	result := s.gateway.Generate(gctx, promptText, region, year)
	span.SetAttributes(attribute.Bool("scenario.demo", result.Demo))
	if result.Reason != "" {
		span.SetAttributes(attribute.String("fallback.reason", result.Reason))
	}
	span.End()

	_, span = s.tracer.Start(ctx, "scenario.clean")
	text := cleaner.Clean(result.Text)
	span.End()

	source := "model"
	if result.Demo {
		source = "demo"
	}
	metrics.ScenarioGenerations.WithLabelValues(kind, source).Inc()

	s.logger.Info("Scenario produced", map[string]interface{}{
		"kind":         kind,
		"region":       region,
		"year":         year,
		"promptLength": len(promptText),
		"demo":         result.Demo,
	})

	return &scenario.Scenario{
		ID:             s.newID(),
		Region:         region,
		TimeFrame:      year,
		Text:           text,
		Demo:           result.Demo,
		FallbackReason: result.Reason,
		Refined:        kind == kindRefine,
		GeneratedAt:    s.now().UTC(),
	}
}

// requireSafe returns INPUT_UNSAFE with the verdict attached when text fails
// validation.
func (s *Service) requireSafe(field, text string) error {
	verdict := s.CheckInput(text)
	if verdict.IsSafe {
		return nil
	}
	return errors.NewInputUnsafeError(field).
		WithMetadata("issues", verdict.Issues).
		WithMetadata("suggestions", verdict.Suggestions)
}

func checkAge(age *int) error {
	if age == nil {
		return nil
	}
	if *age < scenario.MinLearnerAge || *age > scenario.MaxLearnerAge {
		return errors.NewInputValidationError([]string{
			fmt.Sprintf("learnerAge must be between %d and %d", scenario.MinLearnerAge, scenario.MaxLearnerAge),
		})
	}
	return nil
}

func requestAttrs(region string, tf scenario.TimeFrame, mode scenario.Mode) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("scenario.region", region),
		attribute.String("scenario.year", tf.Year()),
		attribute.String("scenario.mode", string(mode)),
	}
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
