package observability

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/trace"
)

func sumOf(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	return 0
}

func TestMetricsRecord(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := NewMetrics(mp)
	require.NoError(t, err)

	ctx := context.Background()
	m.PersonaReply(ctx, "wise_mentor", 20*time.Millisecond)
	m.PersonaReply(ctx, "creative_friend", 30*time.Millisecond)
	m.PersonaFailure(ctx, "wise_mentor", "timeout")
	m.SocketOpened(ctx)
	m.SocketOpened(ctx)
	m.SocketClosed(ctx)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	assert.Equal(t, int64(2), sumOf(t, rm, "board_persona_replies_total"))
	assert.Equal(t, int64(1), sumOf(t, rm, "board_persona_failures_total"))
	assert.Equal(t, int64(1), sumOf(t, rm, "board_ws_connections"))
}

func TestNoopMetrics(t *testing.T) {
	m := NoopMetrics()
	m.PersonaReply(context.Background(), "x", time.Second)
	m.BreakerTransition("openai", "closed", "open")
	m.CacheLookup(context.Background(), true)
}

func TestPrometheusHandler(t *testing.T) {
	p, err := SetupPrometheus()
	require.NoError(t, err)

	m, err := NewMetrics(p.Provider)
	require.NoError(t, err)
	m.PersonaReply(context.Background(), "wise_mentor", time.Millisecond)

	w := httptest.NewRecorder()
	p.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "board_persona_replies_total")
}

func TestTracingMiddleware(t *testing.T) {
	shutdown, err := SetupTracing("test", io.Discard)
	require.NoError(t, err)
	defer func() { _ = shutdown(context.Background()) }()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TracingMiddleware())

	var traced bool
	r.GET("/x", func(c *gin.Context) {
		traced = trace.SpanContextFromContext(c.Request.Context()).IsValid()
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, traced)
}

func TestSetupTracingExportsServiceResource(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := SetupTracing("board-test", &buf)
	require.NoError(t, err)

	_, span := Tracer().Start(context.Background(), "ai.Complete")
	span.End()
	require.NoError(t, shutdown(context.Background()))

	out := buf.String()
	assert.Contains(t, out, `"Name":"ai.Complete"`)
	assert.Contains(t, out, "service.name")
	assert.Contains(t, out, "board-test")
}
