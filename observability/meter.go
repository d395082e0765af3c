package observability

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/payclient/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// Enabled turns exporting on.
	Enabled bool `mapstructure:"enabled"`
	// ServiceName is the name of the service.
	ServiceName string `mapstructure:"service_name"`
	// ServiceVersion is the version of the service.
	ServiceVersion string `mapstructure:"service_version"`
	// Environment is the deployment environment (sandbox, live).
	Environment string `mapstructure:"environment"`
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string `mapstructure:"endpoint"`
	// Insecure allows insecure connections (for development).
	Insecure bool `mapstructure:"insecure"`
	// Interval is the metric export interval.
	Interval time.Duration `mapstructure:"interval"`
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "dev",
		Environment:    "sandbox",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config MeterConfig, log *logger.Logger) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	log.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the client's metric instruments.
type Metrics struct {
	requestTotal    metric.Int64Counter
	requestDuration metric.Float64Histogram
	retryTotal      metric.Int64Counter
	pollTotal       metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	requestTotal, err := meter.Int64Counter("payclient.http.requests",
		metric.WithDescription("Logical requests sent through the middleware chain"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating payclient.http.requests counter: %w", err)
	}

	requestDuration, err := meter.Float64Histogram("payclient.http.duration",
		metric.WithDescription("Duration of logical requests, retries included"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating payclient.http.duration histogram: %w", err)
	}

	retryTotal, err := meter.Int64Counter("payclient.http.retries",
		metric.WithDescription("Physical attempts beyond the first"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating payclient.http.retries counter: %w", err)
	}

	pollTotal, err := meter.Int64Counter("payclient.poll.completed",
		metric.WithDescription("Finished polling operations by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating payclient.poll.completed counter: %w", err)
	}

	return &Metrics{
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		retryTotal:      retryTotal,
		pollTotal:       pollTotal,
	}, nil
}

// DefaultMetrics creates the instruments on the global meter provider.
func DefaultMetrics() (*Metrics, error) {
	return NewMetrics(Meter(InstrumentationName))
}

// RecordRequest records a finished logical request. status is the HTTP
// status, or 0 when no response was received.
func (m *Metrics) RecordRequest(ctx context.Context, method string, status int, outcome string, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("method", method),
		attribute.String("outcome", outcome),
	}
	if status > 0 {
		attrs = append(attrs, attribute.String("status", strconv.Itoa(status)))
	}
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("method", method),
	))
}

// RecordRetry records one retried attempt.
func (m *Metrics) RecordRetry(ctx context.Context, method string) {
	m.retryTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("method", method)))
}

// RecordPoll records a finished polling operation.
func (m *Metrics) RecordPoll(ctx context.Context, outcome string, attempts int) {
	m.pollTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.Int("attempts", attempts),
	))
}
