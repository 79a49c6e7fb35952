// Package telemetry wires OpenTelemetry traces, metrics and logs plus
// Pyroscope profiling into the POS backend.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// shutdownTimeout bounds how long a provider may spend flushing on exit
const shutdownTimeout = 10 * time.Second

// Collector is the OTLP gRPC endpoint every signal is exported to, and the
// service identity attached to what is exported
type Collector struct {
	Endpoint       string
	Insecure       bool
	ServiceName    string
	ServiceVersion string
}

func (c Collector) resource() (*resource.Resource, error) {
	version := c.ServiceVersion
	if version == "" {
		version = "dev"
	}
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(c.ServiceName),
		semconv.ServiceVersion(version),
	))
	if err != nil {
		return nil, fmt.Errorf("build telemetry resource: %w", err)
	}
	return res, nil
}

// flush runs a provider's Shutdown under shutdownTimeout
func flush(ctx context.Context, signal string, shutdown func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		return fmt.Errorf("flush %s: %w", signal, err)
	}
	return nil
}
