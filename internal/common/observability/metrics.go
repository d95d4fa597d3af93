package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"

	"worldbuilder/internal/common/logger"
)

// Observability bundles the OTel meter (exported through the Prometheus
// registry) and the tracer used by the scenario pipeline.
type Observability struct {
	meterProvider *metric.MeterProvider
	meter         otelmetric.Meter
	jobCounter    otelmetric.Int64Counter
	jobDuration   otelmetric.Float64Histogram
	promptLength  otelmetric.Int64Histogram
	tracer        trace.Tracer
	shutdownTrace func(context.Context) error
}

func New(serviceName string, log logger.Logger) *Observability {
	o := &Observability{tracer: otel.Tracer(serviceName)}

	exporter, err := prometheus.New()
	if err != nil {
		log.Warn("Failed to create Prometheus exporter", map[string]interface{}{"error": err.Error()})
		return o
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	jobCounter, _ := meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)

	jobDuration, _ := meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	)

	promptLength, _ := meter.Int64Histogram(
		"scenario.prompt.length",
		otelmetric.WithDescription("Length of assembled prompts"),
		otelmetric.WithUnit("By"),
	)

	o.meterProvider = provider
	o.meter = meter
	o.jobCounter = jobCounter
	o.jobDuration = jobDuration
	o.promptLength = promptLength
	return o
}

// NewNoop returns an Observability that records nothing. Used by tests.
func NewNoop() *Observability {
	return &Observability{tracer: otel.Tracer("noop")}
}

// Tracer returns the tracer scenario components start spans from.
func (o *Observability) Tracer() trace.Tracer {
	if o == nil || o.tracer == nil {
		return otel.Tracer("worldbuilder")
	}
	return o.tracer
}

func (o *Observability) RecordJobProcessed(ctx context.Context, taskType, status string) {
	if o != nil && o.jobCounter != nil {
		o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("task_type", taskType),
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string) {
	if o != nil && o.jobDuration != nil {
		o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("task_type", taskType),
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordPromptLength(ctx context.Context, kind string, length int) {
	if o != nil && o.promptLength != nil {
		o.promptLength.Record(ctx, int64(length), otelmetric.WithAttributes(
			attribute.String("kind", kind),
		))
	}
}

func (o *Observability) Shutdown(ctx context.Context) {
	if o == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if o.shutdownTrace != nil {
		_ = o.shutdownTrace(ctx)
	}
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
}
