// Package telemetry wires OpenTelemetry spans and metrics for snapshot runs.
//
// Everything is off unless ISSUESNAP_OTEL_ENABLED=true, in which case:
//
//	ISSUESNAP_OTEL_STDOUT=true              print spans and metrics to stderr
//	OTEL_EXPORTER_OTLP_METRICS_ENDPOINT=... push metrics over OTLP/HTTP
//	OTEL_EXPORTER_OTLP_ENDPOINT=...         same, used when the above is unset
//
// Console output goes to stderr because stdout carries the run summary.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const defaultScope = "github.com/steveyegge/issuesnap"

// Options selects exporters. The zero value exports nothing.
type Options struct {
	Console      io.Writer // pretty-printed spans and metrics; nil disables
	OTLPEndpoint string    // host:port or http(s) URL for metrics; "" disables
}

// Enabled reports whether telemetry is active (ISSUESNAP_OTEL_ENABLED=true).
func Enabled() bool {
	return os.Getenv("ISSUESNAP_OTEL_ENABLED") == "true"
}

// OptionsFromEnv builds Options from the environment variables above.
func OptionsFromEnv() Options {
	var o Options
	if os.Getenv("ISSUESNAP_OTEL_STDOUT") == "true" {
		o.Console = os.Stderr
	}
	o.OTLPEndpoint = firstNonEmpty(
		os.Getenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"),
		os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	)
	return o
}

var shutdownFns []func(context.Context) error

// Init installs global providers for one process. With telemetry disabled
// it installs no-op providers so instruments cost nothing.
func Init(ctx context.Context, serviceName, version string) error {
	if !Enabled() {
		otel.SetTracerProvider(tracenoop.NewTracerProvider())
		otel.SetMeterProvider(metricnoop.NewMeterProvider())
		return nil
	}
	return InitWithOptions(ctx, serviceName, version, OptionsFromEnv())
}

// InitWithOptions installs SDK providers exporting as opts describes.
func InitWithOptions(ctx context.Context, serviceName, version string, opts Options) error {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(version),
		),
		resource.WithHost(),
		resource.WithProcess(),
	)
	if err != nil {
		return fmt.Errorf("telemetry: resource: %w", err)
	}

	tp, err := newTracerProvider(res, opts)
	if err != nil {
		return fmt.Errorf("telemetry: trace provider: %w", err)
	}
	mp, err := newMeterProvider(ctx, res, opts)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return fmt.Errorf("telemetry: metric provider: %w", err)
	}

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	shutdownFns = append(shutdownFns, tp.Shutdown, mp.Shutdown)
	return nil
}

func newTracerProvider(res *resource.Resource, opts Options) (*sdktrace.TracerProvider, error) {
	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	}
	// Spans are only ever printed; a single run has no use for a trace backend.
	if opts.Console != nil {
		exp, err := stdouttrace.New(stdouttrace.WithWriter(opts.Console), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, err
		}
		tpOpts = append(tpOpts, sdktrace.WithSyncer(exp))
	}
	return sdktrace.NewTracerProvider(tpOpts...), nil
}

func newMeterProvider(ctx context.Context, res *resource.Resource, opts Options) (*sdkmetric.MeterProvider, error) {
	mpOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}

	if opts.Console != nil {
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(opts.Console), stdoutmetric.WithPrettyPrint())
		if err != nil {
			return nil, err
		}
		mpOpts = append(mpOpts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)))
	}
	if opts.OTLPEndpoint != "" {
		exp, err := buildOTLPMetricExporter(ctx, opts.OTLPEndpoint)
		if err != nil {
			return nil, fmt.Errorf("otlp metric exporter: %w", err)
		}
		mpOpts = append(mpOpts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(30*time.Second)),
		))
	}
	return sdkmetric.NewMeterProvider(mpOpts...), nil
}

// Tracer returns a tracer for name, or for the module scope when name is "".
func Tracer(name string) trace.Tracer {
	if name == "" {
		name = defaultScope
	}
	return otel.Tracer(name)
}

// Meter returns a meter for name, or for the module scope when name is "".
func Meter(name string) metric.Meter {
	if name == "" {
		name = defaultScope
	}
	return otel.Meter(name)
}

// Shutdown flushes and stops the providers installed by Init. Periodic
// readers export once more on shutdown, so even a short run reports.
func Shutdown(ctx context.Context) error {
	var errs []error
	for _, fn := range shutdownFns {
		errs = append(errs, fn(ctx))
	}
	shutdownFns = nil
	return errors.Join(errs...)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
