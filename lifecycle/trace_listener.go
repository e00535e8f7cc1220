package lifecycle

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/runkit/component"
	"github.com/kbukum/runkit/environment"
	"github.com/kbukum/runkit/logger"
)

// TraceListenerID is the declaration identifier of the built-in trace listener.
const TraceListenerID = "tracing"

// Properties the trace listener reads from the Environment.
const (
	TracingEnabledKey    = "tracing.enabled"
	TracingEndpointKey   = "tracing.endpoint"
	TracingInsecureKey   = "tracing.insecure"
	TracingSampleRateKey = "tracing.sample_rate"
)

// TraceListener exports a startup trace for the run over OTLP/HTTP. It stays
// dormant unless tracing.enabled=true is present in the Environment; an
// exporter that cannot be built disables tracing for the run rather than
// failing it.
type TraceListener struct {
	log     *logger.Logger
	service string
	version string
	runID   string

	provider *sdktrace.TracerProvider
	runSpan  trace.Span
}

// NewTraceListener creates the built-in startup tracer.
func NewTraceListener(log *logger.Logger, service, version, runID string) *TraceListener {
	return &TraceListener{
		log:     log.WithComponent("tracing"),
		service: service,
		version: version,
		runID:   runID,
	}
}

func (t *TraceListener) Name() string { return TraceListenerID }

func (t *TraceListener) Priority() int { return -50 }

func (t *TraceListener) Starting(ctx context.Context) error {
	// The Environment does not exist yet; configuration happens in
	// EnvironmentPrepared.
	return nil
}

func (t *TraceListener) EnvironmentPrepared(ctx context.Context, env *environment.Environment) error {
	if env.PropertyOrDefault(TracingEnabledKey, "false") != "true" {
		return nil
	}

	provider, err := t.newProvider(ctx, env)
	if err != nil {
		t.log.Warn("Startup tracing disabled", logger.ErrorFields("init", err))
		return nil
	}
	t.provider = provider

	tracer := provider.Tracer("github.com/kbukum/runkit/lifecycle")
	_, t.runSpan = tracer.Start(ctx, "application.run", trace.WithAttributes(
		semconv.ServiceName(t.service),
		semconv.ServiceVersion(t.version),
		attribute.String("run.id", t.runID),
	))
	t.runSpan.AddEvent("environmentPrepared")
	return nil
}

func (t *TraceListener) ContextPrepared(ctx context.Context, c component.Context) error {
	t.addEvent("contextPrepared")
	return nil
}

func (t *TraceListener) ContextLoaded(ctx context.Context, c component.Context) error {
	t.addEvent("contextLoaded")
	return nil
}

func (t *TraceListener) Running(ctx context.Context, c component.Context) error {
	t.addEvent("running")
	return nil
}

func (t *TraceListener) Failed(ctx context.Context, c component.Context, err error) error {
	if t.runSpan != nil {
		t.runSpan.RecordError(err)
		t.runSpan.SetStatus(codes.Error, err.Error())
	}
	return nil
}

func (t *TraceListener) Finished(ctx context.Context, c component.Context, err error) error {
	if t.runSpan != nil {
		t.runSpan.End()
		t.runSpan = nil
	}
	if t.provider != nil {
		if shutdownErr := t.provider.Shutdown(ctx); shutdownErr != nil {
			t.log.Warn("Trace provider shutdown failed", logger.ErrorFields("shutdown", shutdownErr))
		}
		t.provider = nil
	}
	return nil
}

func (t *TraceListener) addEvent(name string) {
	if t.runSpan != nil {
		t.runSpan.AddEvent(name)
	}
}

func (t *TraceListener) newProvider(ctx context.Context, env *environment.Environment) (*sdktrace.TracerProvider, error) {
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(env.PropertyOrDefault(TracingEndpointKey, "localhost:4318")),
	}
	if env.PropertyOrDefault(TracingInsecureKey, "true") == "true" {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, err
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(t.service),
			semconv.ServiceVersion(t.version),
		),
	)
	if err != nil {
		return nil, err
	}

	rate := 1.0
	if raw, ok := env.Property(TracingSampleRateKey); ok {
		if parsed, parseErr := strconv.ParseFloat(raw, 64); parseErr == nil {
			rate = parsed
		}
	}
	var sampler sdktrace.Sampler
	switch {
	case rate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	case rate <= 0:
		sampler = sdktrace.NeverSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(rate)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	), nil
}
