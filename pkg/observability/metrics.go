package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics holds the instruments recorded by the chat pipeline and its providers
type Metrics struct {
	replies        metric.Int64Counter
	failures       metric.Int64Counter
	latency        metric.Float64Histogram
	wsConnections  metric.Int64UpDownCounter
	breakerChanges metric.Int64Counter
	cacheLookups   metric.Int64Counter
}

// NewMetrics creates the instruments on the given meter provider
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(instrumentationName)
	m := &Metrics{}

	var err error
	if m.replies, err = meter.Int64Counter("board_persona_replies_total",
		metric.WithDescription("Persona replies persisted")); err != nil {
		return nil, err
	}
	if m.failures, err = meter.Int64Counter("board_persona_failures_total",
		metric.WithDescription("Persona completions that failed")); err != nil {
		return nil, err
	}
	if m.latency, err = meter.Float64Histogram("board_completion_seconds",
		metric.WithDescription("Completion latency per persona call"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.wsConnections, err = meter.Int64UpDownCounter("board_ws_connections",
		metric.WithDescription("Open chat sockets")); err != nil {
		return nil, err
	}
	if m.breakerChanges, err = meter.Int64Counter("board_breaker_transitions_total",
		metric.WithDescription("Circuit breaker state transitions")); err != nil {
		return nil, err
	}
	if m.cacheLookups, err = meter.Int64Counter("board_translation_cache_lookups_total",
		metric.WithDescription("Translation cache lookups by result")); err != nil {
		return nil, err
	}

	return m, nil
}

// NoopMetrics returns instruments that record nothing
func NoopMetrics() *Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider())
	return m
}

func (m *Metrics) PersonaReply(ctx context.Context, kind string, took time.Duration) {
	attrs := metric.WithAttributes(attribute.String("personality", kind))
	m.replies.Add(ctx, 1, attrs)
	m.latency.Record(ctx, took.Seconds(), attrs)
}

func (m *Metrics) PersonaFailure(ctx context.Context, kind, reason string) {
	m.failures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("personality", kind),
		attribute.String("reason", reason),
	))
}

func (m *Metrics) SocketOpened(ctx context.Context) { m.wsConnections.Add(ctx, 1) }
func (m *Metrics) SocketClosed(ctx context.Context) { m.wsConnections.Add(ctx, -1) }

func (m *Metrics) BreakerTransition(name, from, to string) {
	m.breakerChanges.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("breaker", name),
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

func (m *Metrics) CacheLookup(ctx context.Context, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// Prometheus bundles a meter provider exporting to a dedicated registry with its scrape handler
type Prometheus struct {
	Provider *sdkmetric.MeterProvider
	Handler  http.Handler
}

// SetupPrometheus wires the OpenTelemetry prometheus exporter to a fresh registry
func SetupPrometheus() (*Prometheus, error) {
	registry := prometheus.NewRegistry()

	exp, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize prometheus exporter: %w", err)
	}

	return &Prometheus{
		Provider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(exp)),
		Handler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}, nil
}
