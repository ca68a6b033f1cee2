package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

// 指标标签。
var (
	AttrHTTPMethod = attribute.Key("http.method")
	AttrHTTPStatus = attribute.Key("http.status_code")
	AttrResult     = attribute.Key("result")
)

// Middleware 为每个请求创建服务端 span 并记录请求指标。
//
// 上游的 W3C Trace Context 会被提取，span 名为 "HTTP <method> <path>"。
// name 作为 tracer 与 meter 的 instrumentation scope。
func Middleware(name string) func(http.Handler) http.Handler {
	meter := otel.Meter(name)

	total, err := meter.Int64Counter(
		"http.server.request.total",
		metric.WithDescription("Total number of incoming HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		otel.Handle(err)
		total = noop.Int64Counter{}
	}

	duration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("Duration of incoming HTTP requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		otel.Handle(err)
		duration = noop.Float64Histogram{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ctx := ExtractHTTP(r.Context(), r.Header)
			ctx, span := otel.Tracer(name).Start(ctx, fmt.Sprintf("HTTP %s %s", r.Method, r.URL.Path),
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					AttrHTTPMethod.String(r.Method),
					attribute.String("http.url", r.URL.String()),
				),
			)
			defer span.End()

			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r.WithContext(ctx))

			span.SetAttributes(AttrHTTPStatus.Int(rw.status))
			if rw.status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(rw.status))
			}

			result := "success"
			if rw.status >= http.StatusBadRequest {
				result = "error"
			}
			attrs := metric.WithAttributes(
				AttrHTTPMethod.String(r.Method),
				AttrHTTPStatus.Int(rw.status),
				AttrResult.String(result),
			)
			duration.Record(ctx, time.Since(start).Seconds(), attrs)
			total.Add(ctx, 1, attrs)
		})
	}
}

// responseWriter 记录写出的状态码。
type responseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.status = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

// Unwrap 使 http.ResponseController 能穿透包装。
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
