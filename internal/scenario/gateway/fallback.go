package gateway

import (
	"context"
	stderrors "errors"
	"strconv"
	"time"

	"worldbuilder/internal/common/logger"
	"worldbuilder/internal/common/metrics"
	"worldbuilder/internal/scenario/refdata"
)

// Result is generated text or the demo substituted for it.
type Result struct {
	Text   string
	Demo   bool
	Reason string // error code that caused the fallback
}

// Fallback never fails: any Generate error yields the demo scenario for the
// region and year, or the generic placeholder.
type Fallback struct {
	gen     Generator
	store   *refdata.Store
	timeout time.Duration
	logger  logger.Logger
}

func NewFallback(gen Generator, store *refdata.Store, timeout time.Duration, log logger.Logger) *Fallback {
	return &Fallback{gen: gen, store: store, timeout: timeout, logger: log}
}

func (f *Fallback) Generate(ctx context.Context, prompt, region, year string) Result {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := f.gen.Generate(ctx, prompt)
	if err == nil {
		metrics.GatewayRequestDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
		return Result{Text: text}
	}

	stdErr := Classify(err)
	status := string(stdErr.Code)
	var gwErr *GatewayError
	if stderrors.As(err, &gwErr) {
		status = strconv.Itoa(gwErr.StatusCode)
	}
	metrics.GatewayRequestDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	metrics.ScenarioFallbacks.WithLabelValues(string(stdErr.Code)).Inc()

	f.logger.Warn("Serving demo scenario", map[string]interface{}{
		"region":    region,
		"year":      year,
		"errorCode": string(stdErr.Code),
		"error":     err.Error(),
	})

	demo, ok := f.store.DemoScenario(region, year)
	if !ok {
		demo = f.store.GenericDemo(region, year)
	}
	return Result{Text: demo, Demo: true, Reason: string(stdErr.Code)}
}
