package observability

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	"worldbuilder/internal/common/config"
	"worldbuilder/internal/common/logger"
)

// InitTracing installs a global tracer provider. With telemetry disabled the
// default no-op provider stays in place.
func (o *Observability) InitTracing(ctx context.Context, app config.AppConfig, cfg config.TelemetryConfig, log logger.Logger) error {
	if !cfg.Enabled {
		return nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(app.Version),
			attribute.String("deployment.environment", app.Environment),
		),
	)
	if err != nil {
		log.Warn("otel resource init failed (continuing)", map[string]interface{}{"error": err.Error()})
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithResource(res),
	}

	if endpoint := strings.TrimSpace(cfg.OTLPEndpoint); endpoint != "" {
		expOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(trimScheme(endpoint))}
		if cfg.Insecure {
			expOpts = append(expOpts, otlptracehttp.WithInsecure())
		}
		exporter, err := otlptracehttp.New(ctx, expOpts...)
		if err != nil {
			return err
		}
		opts = append(opts, sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)))
	} else {
		log.Warn("telemetry enabled without an OTLP endpoint; spans are sampled but not exported", nil)
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	o.tracer = tp.Tracer(cfg.ServiceName)
	o.shutdownTrace = tp.Shutdown

	log.Info("otel tracing initialized", map[string]interface{}{
		"service":  cfg.ServiceName,
		"endpoint": cfg.OTLPEndpoint,
		"ratio":    cfg.SampleRatio,
	})
	return nil
}

// otlptracehttp.WithEndpoint wants host:port without a scheme.
func trimScheme(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")
	return strings.TrimSuffix(endpoint, "/")
}
