package telemetry_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/lwmacct/261015-go-pkg-svcboot/pkg/telemetry"
)

func setupTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	telemetry.InitPropagator()

	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
	})

	return exporter
}

func spanAttrs(span tracetest.SpanStub) map[string]any {
	attrs := make(map[string]any, len(span.Attributes))
	for _, a := range span.Attributes {
		attrs[string(a.Key)] = a.Value.AsInterface()
	}

	return attrs
}

func TestMiddleware_CreatesServerSpan(t *testing.T) {
	exporter := setupTracer(t)

	handler := telemetry.Middleware("test")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/items/42", http.NoBody))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "HTTP POST /items/42", spans[0].Name)
	assert.Equal(t, trace.SpanKindServer, spans[0].SpanKind)
	assert.Equal(t, codes.Unset, spans[0].Status.Code)

	attrs := spanAttrs(spans[0])
	assert.Equal(t, "POST", attrs["http.method"])
	assert.Equal(t, int64(http.StatusNotFound), attrs["http.status_code"])
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMiddleware_ServerErrorStatus(t *testing.T) {
	exporter := setupTracer(t)

	handler := telemetry.Middleware("test")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, int64(http.StatusInternalServerError), spanAttrs(spans[0])["http.status_code"])
}

func TestMiddleware_ContinuesUpstreamTrace(t *testing.T) {
	exporter := setupTracer(t)

	ctx, parent := otel.Tracer("client").Start(context.Background(), "call")
	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	telemetry.InjectHTTP(ctx, req.Header)
	parent.End()

	var inner trace.SpanContext
	handler := telemetry.Middleware("test")(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		inner = trace.SpanContextFromContext(r.Context())
	}))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, exporter.GetSpans(), 2)
	assert.Equal(t, parent.SpanContext().TraceID(), inner.TraceID())
	assert.NotEqual(t, parent.SpanContext().SpanID(), inner.SpanID())
}

func TestMiddleware_RecordsMetrics(t *testing.T) {
	setupTracer(t)

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp)
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	handler := telemetry.Middleware("test")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(t.Context(), &rm))

	names := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = m.Data
		}
	}
	require.Contains(t, names, "http.server.request.duration")
	require.Contains(t, names, "http.server.request.total")

	sum, ok := names["http.server.request.total"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)
}
