package runtime

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.30.0"

	"github.com/mileslindheimer/speech-to-chords/internal/config"
)

// telemetry owns the tracer and meter providers plus the standalone
// Prometheus scrape listener on telemetry.prometheus_bind.
type telemetry struct {
	log     *slog.Logger
	traces  *sdktrace.TracerProvider
	metrics *sdkmetric.MeterProvider
	promSrv *http.Server
}

func startTelemetry(ctx context.Context, cfg config.Config, log *slog.Logger) (*telemetry, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.RuntimeName),
			attribute.String("deployment.environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, err
	}

	t := &telemetry{log: log}

	t.traces, err = newTracerProvider(ctx, cfg.Telemetry, res, log)
	if err != nil {
		return nil, err
	}
	otel.SetTracerProvider(t.traces)

	promExporter, err := prometheus.New()
	if err != nil {
		log.Warn("prometheus exporter unavailable, metrics disabled", slog.String("error", err.Error()))
		t.metrics = sdkmetric.NewMeterProvider(sdkmetric.WithResource(res))
	} else {
		t.metrics = sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(promExporter),
			sdkmetric.WithResource(res),
		)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		t.promSrv = &http.Server{
			Addr:              cfg.Telemetry.PrometheusBind,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := t.promSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics listener failed", slog.String("error", err.Error()))
			}
		}()
		log.Info("metrics listener started", slog.String("addr", cfg.Telemetry.PrometheusBind))
	}
	otel.SetMeterProvider(t.metrics)

	return t, nil
}

func newTracerProvider(ctx context.Context, cfg config.TelemetryConfig, res *resource.Resource, log *slog.Logger) (*sdktrace.TracerProvider, error) {
	var (
		exporter sdktrace.SpanExporter
		err      error
	)
	if endpoint := strings.TrimSpace(cfg.OTLPEndpoint); endpoint != "" {
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint)}
		if cfg.OTLPInsecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exporter, err = otlptracegrpc.New(ctx, opts...)
		if err != nil {
			return nil, err
		}
		log.Info("tracing initialized", slog.String("exporter", "otlp"), slog.String("endpoint", endpoint))
	} else {
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, err
		}
		log.Info("tracing initialized", slog.String("exporter", "stdout"))
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	), nil
}

func (t *telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}
	var errs []error
	if t.promSrv != nil {
		if err := t.promSrv.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := t.metrics.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := t.traces.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
