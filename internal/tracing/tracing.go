package tracing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nicolastakashi/banshee-console/internal/config"
	"github.com/thanos-io/thanos/pkg/tracing/otlp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace"
	"gopkg.in/yaml.v3"
)

// kitLogger adapts slog to the go-kit logger the thanos exporter expects.
type kitLogger struct {
	logger *slog.Logger
}

func newKitLogger(logger *slog.Logger) *kitLogger {
	return &kitLogger{logger: logger}
}

func (kl *kitLogger) Log(keyvals ...any) error {
	kl.logger.Log(context.Background(), slog.LevelInfo, "tracing", keyvals...)
	return nil
}

// WithTracing installs a global tracer provider built from cfg.Tracing, with
// the service name resolved by cfg. Callers must shut the provider down.
func WithTracing(ctx context.Context, logger *slog.Logger, cfg *config.Config) (*trace.TracerProvider, error) {
	if !cfg.IsTracingEnabled() {
		return nil, fmt.Errorf("tracing is not configured")
	}

	tracingCfg := *cfg.Tracing
	tracingCfg.ServiceName = cfg.GetTracingServiceName()
	b, err := yaml.Marshal(tracingCfg)
	if err != nil {
		return nil, fmt.Errorf("marshal tracing config: %w", err)
	}

	tp, err := otlp.NewTracerProvider(ctx, newKitLogger(logger), b)
	if err != nil {
		return nil, fmt.Errorf("create tracer provider: %w", err)
	}
	otel.SetTracerProvider(tp)
	return tp, nil
}
