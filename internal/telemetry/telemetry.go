// Package telemetry wires the OpenTelemetry SDK the teacher's
// observability package used, narrowed to span the one thing worth
// tracing here: each Cycle Runner invocation (the tool calls inside it
// get no spans of their own). Traces go to stdout, matching the teacher's own stdouttrace setup
// rather than standing up a collector for this exercise.
package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is the package-wide tracer CycleRunner.Run pulls its span from.
var Tracer trace.Tracer = otel.Tracer("github.com/casualtrader/engine")

// Setup installs a stdout-exporting TracerProvider as the global
// provider and returns a shutdown func the caller must defer.
func Setup(ctx context.Context, serviceName string) (shutdown func(context.Context) error, err error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(serviceName),
	))
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	Tracer = provider.Tracer("github.com/casualtrader/engine")

	return func(shutdownCtx context.Context) error {
		var errs []error
		if err := provider.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	}, nil
}
