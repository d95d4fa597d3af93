// cmd/worker-manager/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"worldbuilder/internal/api"
	"worldbuilder/internal/common/camunda"
	"worldbuilder/internal/common/config"
	"worldbuilder/internal/common/database"
	commonhttp "worldbuilder/internal/common/http"
	"worldbuilder/internal/common/logger"
	"worldbuilder/internal/common/observability"
	"worldbuilder/internal/common/ratelimit"
	"worldbuilder/internal/scenario/gateway"
	"worldbuilder/internal/scenario/prompt"
	"worldbuilder/internal/scenario/refdata"
	"worldbuilder/internal/scenario/service"

	bp "worldbuilder/internal/workers/scenario/build-prompt"
	gs "worldbuilder/internal/workers/scenario/generate-scenario"
	si "worldbuilder/internal/workers/scenario/sanitize-input"
	vi "worldbuilder/internal/workers/scenario/validate-input"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog, err := logger.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger setup failed: %v\n", err)
		os.Exit(1)
	}
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	obs := observability.New(cfg.Telemetry.ServiceName, log)
	if err := obs.InitTracing(ctx, cfg.App, cfg.Telemetry, log); err != nil {
		zapLog.Warn("tracing disabled", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		obs.Shutdown(shutdownCtx)
	}()

	store, err := refdata.Load()
	if err != nil {
		zapLog.Fatal("reference data failed to load", zap.Error(err))
	}
	zapLog.Info("Reference data loaded", zap.Int("regions", len(store.Regions())))

	// --- Redis is optional; without it the limiter stays in process ---
	readiness := map[string]api.ReadinessCheck{}
	var redis *database.RedisClient
	if cfg.Redis.Enabled {
		redis = database.NewRedis(cfg.Redis)
		err = retryWithBackoff(func() error {
			return redis.Ping(ctx)
		}, 5, time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Warn("redis unavailable, using in-process rate limiting", zap.Error(err))
			redis.Close()
			redis = nil
		} else {
			defer redis.Close()
			readiness["redis"] = redis.Ping
			zapLog.Info("Redis connected successfully")
		}
	}
	limiter := ratelimit.New(cfg.RateLimit, redis, log)

	anthropic := gateway.NewAnthropicClient(cfg.APIs.Anthropic, commonhttp.NewClient(cfg.APIs.Anthropic.GatewayTimeout()))
	if !anthropic.Configured() {
		zapLog.Warn("Anthropic API key not configured, serving demo scenarios")
	}

	svc := service.New(service.Options{
		Store:          store,
		Builder:        prompt.New(store),
		Generator:      anthropic,
		GatewayTimeout: cfg.APIs.Anthropic.GatewayTimeout(),
		Limiter:        limiter,
		Observability:  obs,
		Logger:         log,
	})

	// --- Zeebe workers, when a broker is configured ---
	var workers *camunda.WorkerSet
	if cfg.Camunda.Enabled {
		client, err := camunda.NewClientWithConfig(ctx, camunda.ConfigFrom(cfg.Camunda))
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		defer client.Close()
		readiness["camunda"] = client.HealthCheck
		zapLog.Info("Zeebe client connected successfully")

		regs, err := registrations(cfg, svc, obs, log)
		if err != nil {
			zapLog.Fatal("failed to create worker handlers", zap.Error(err))
		}
		workers = camunda.OpenWorkers(client.GetClient(), cfg, regs, log)
		defer workers.Close()
		zapLog.Info("Workers registered", zap.Int("count", workers.Len()))
	}

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(svc, api.RouterConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Version:     cfg.App.Version,
		CORSOrigins: cfg.Server.CORSOrigins,
		Readiness:   readiness,
	}, log)
	server := api.NewServer(cfg.Server, router, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		zapLog.Error("shutdown with error", zap.Error(err))
		return
	}
	zapLog.Info("shutdown complete")
}

func registrations(cfg *config.Config, svc *service.Service, obs *observability.Observability, log logger.Logger) ([]camunda.Registration, error) {
	validate, err := vi.NewHandler(vi.HandlerOptions{AppConfig: cfg, Service: svc, Observability: obs, Logger: log})
	if err != nil {
		return nil, err
	}
	sanitize, err := si.NewHandler(si.HandlerOptions{AppConfig: cfg, Service: svc, Observability: obs, Logger: log})
	if err != nil {
		return nil, err
	}
	build, err := bp.NewHandler(bp.HandlerOptions{AppConfig: cfg, Service: svc, Observability: obs, Logger: log})
	if err != nil {
		return nil, err
	}
	generate, err := gs.NewHandler(gs.HandlerOptions{AppConfig: cfg, Service: svc, Observability: obs, Logger: log})
	if err != nil {
		return nil, err
	}

	return []camunda.Registration{
		{TaskType: vi.TaskType, ConfigKey: vi.ConfigKey, Handler: validate},
		{TaskType: si.TaskType, ConfigKey: si.ConfigKey, Handler: sanitize},
		{TaskType: bp.TaskType, ConfigKey: bp.ConfigKey, Handler: build},
		{TaskType: gs.TaskType, ConfigKey: gs.ConfigKey, Handler: generate},
	}, nil
}
