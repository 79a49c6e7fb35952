package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogsConfig enables shipping zap entries over OTLP
type LogsConfig struct {
	Enabled bool
}

// LoggerProvider owns the SDK log provider
type LoggerProvider struct {
	provider *sdklog.LoggerProvider
}

// NewLoggerProvider exports log records to col and installs the provider
// globally
func NewLoggerProvider(ctx context.Context, col Collector, cfg LogsConfig, logger *zap.Logger) (*LoggerProvider, error) {
	if !cfg.Enabled {
		logger.Info("OTLP log export disabled")
		return &LoggerProvider{}, nil
	}

	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(col.Endpoint)}
	if col.Insecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	}
	exporter, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create log exporter: %w", err)
	}
	res, err := col.resource()
	if err != nil {
		return nil, err
	}

	provider := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	)
	global.SetLoggerProvider(provider)
	return &LoggerProvider{provider: provider}, nil
}

// Bridge returns base teed into OpenTelemetry for entries at or above
// level. While export is disabled base itself is returned.
func (lp *LoggerProvider) Bridge(base *zap.Logger, scope string, level zapcore.Level) *zap.Logger {
	if lp == nil || lp.provider == nil {
		return base
	}
	otelCore := minLevelCore{
		Core: otelzap.NewCore(scope, otelzap.WithLoggerProvider(lp.provider)),
		min:  level,
	}
	return base.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, otelCore)
	}))
}

// Shutdown exports the records still buffered
func (lp *LoggerProvider) Shutdown(ctx context.Context) error {
	if lp.provider == nil {
		return nil
	}
	return flush(ctx, "logs", lp.provider.Shutdown)
}

// minLevelCore puts a level floor on the otelzap core, which exports
// everything it is given
type minLevelCore struct {
	zapcore.Core
	min zapcore.Level
}

func (c minLevelCore) Enabled(lvl zapcore.Level) bool {
	return lvl >= c.min && c.Core.Enabled(lvl)
}

func (c minLevelCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(e.Level) {
		return ce
	}
	return c.Core.Check(e, ce)
}

func (c minLevelCore) With(fields []zapcore.Field) zapcore.Core {
	return minLevelCore{Core: c.Core.With(fields), min: c.min}
}
