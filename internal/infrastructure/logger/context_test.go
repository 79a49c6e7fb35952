package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func validSpanContext() trace.SpanContext {
	return trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x0a, 0x0b, 0x0c, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d},
		SpanID:     trace.SpanID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08},
		TraceFlags: trace.FlagsSampled,
	})
}

func TestFromContext(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	log := zap.New(core)

	ctx := WithContext(context.Background(), log)
	FromContext(ctx).Info("stored")
	assert.Equal(t, 1, recorded.Len())

	assert.NotPanics(t, func() {
		FromContext(context.Background()).Info("no logger attached")
	})
}

func TestWithRequestIDAndUser(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	ctx, _ := WithRequestID(context.Background(), zap.New(core), "req-1")
	ctx, log := WithUser(ctx, FromContext(ctx), "user-7", "cashier")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "user-7", GetUserID(ctx))
	assert.Equal(t, "cashier", GetRole(ctx))

	log.Info("checkout")
	fields := recorded.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "user-7", fields["user_id"])
	assert.Equal(t, "cashier", fields["role"])
}

func TestContextGettersOnEmptyContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetUserID(ctx))
	assert.Empty(t, GetRole(ctx))
	assert.Empty(t, GetTraceID(ctx))
}

func TestTraceCorrelation(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	log := zap.New(core)
	sc := validSpanContext()
	ctx := trace.ContextWithSpanContext(WithContext(context.Background(), log), sc)

	assert.Equal(t, sc.TraceID().String(), GetTraceID(ctx))

	L(ctx).Info("with span")
	fields := recorded.All()[0].ContextMap()
	assert.Equal(t, sc.TraceID().String(), fields["trace_id"])
	assert.Equal(t, sc.SpanID().String(), fields["span_id"])

	assert.Same(t, log, WithTraceContext(context.Background(), log), "no span leaves the logger unchanged")
}

func TestOr(t *testing.T) {
	attachedCore, attached := observer.New(zapcore.InfoLevel)
	fallbackCore, fallback := observer.New(zapcore.InfoLevel)
	fallbackLog := zap.New(fallbackCore)

	Or(context.Background(), fallbackLog).Info("fallback")
	assert.Equal(t, 1, fallback.Len())

	ctx := WithContext(context.Background(), zap.New(attachedCore))
	Or(ctx, fallbackLog).Info("attached")
	assert.Equal(t, 1, attached.Len())
	assert.Equal(t, 1, fallback.Len())

	assert.NotPanics(t, func() { Or(context.Background(), nil).Info("nop") })
}
