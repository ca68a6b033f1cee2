package telemetry

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/url"
	"os"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"

	"github.com/lwmacct/261015-go-pkg-svcboot/pkg/logging"
	"github.com/lwmacct/261015-go-pkg-svcboot/pkg/svcinfo"
)

// Option 配置 [Init]。
type Option func(*options)

type options struct {
	consoleWriter io.Writer
	exportWriter  io.Writer
}

// WithConsoleWriter 设置控制台日志的输出，默认 os.Stdout。
func WithConsoleWriter(w io.Writer) Option {
	return func(o *options) {
		o.consoleWriter = w
	}
}

// WithExportWriter 设置 stdout 导出器的输出，默认 os.Stdout。
func WithExportWriter(w io.Writer) Option {
	return func(o *options) {
		o.exportWriter = w
	}
}

// Providers 持有 [Init] 创建的 provider。
//
// 未启用的信号对应字段为 nil。服务退出前调用 [Providers.Shutdown] 以刷新缓冲的数据。
type Providers struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	LoggerProvider *sdklog.LoggerProvider

	logger     *slog.Logger
	prevLogger *slog.Logger

	// slog.SetDefault 会重定向标准库 log 的输出，恢复时一并还原
	prevLogWriter io.Writer
	prevLogFlags  int

	once sync.Once
	err  error
}

// InitPropagator 注册 W3C Trace Context 与 Baggage 全局传播器。
func InitPropagator() {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}

// Init 按 settings 初始化追踪、日志和指标。
//
// 资源属性 service.name 取 info.MetricsName，service.instance.id 每个进程随机生成。
// 安装的 logger 成为 slog.Default()，Shutdown 时恢复之前的默认 logger。
// 任一步骤失败时，已创建的 provider 会被关闭。
func Init(ctx context.Context, info svcinfo.Info, settings Settings, opts ...Option) (*Providers, error) {
	o := options{consoleWriter: os.Stdout, exportWriter: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	InitPropagator()

	res, err := newResource(info)
	if err != nil {
		return nil, &Error{Kind: KindInitTrace, Err: err}
	}

	p := &Providers{
		prevLogger:    slog.Default(),
		prevLogWriter: log.Writer(),
		prevLogFlags:  log.Flags(),
	}

	if settings.Trace.enabled() {
		tp, err := newTracerProvider(ctx, settings.Trace, res, o.exportWriter)
		if err != nil {
			return nil, &Error{Kind: KindInitTrace, Err: err}
		}
		otel.SetTracerProvider(tp)
		p.TracerProvider = tp
	}

	if err := p.initLogs(ctx, info, settings.Log, res, o.consoleWriter); err != nil {
		_ = p.Shutdown(ctx)
		return nil, &Error{Kind: KindInitLog, Err: err}
	}

	if settings.Metric.enabled() {
		mp, err := newMeterProvider(ctx, settings.Metric, res, o.exportWriter)
		if err != nil {
			_ = p.Shutdown(ctx)
			return nil, &Error{Kind: KindInitMetric, Err: err}
		}
		otel.SetMeterProvider(mp)
		p.MeterProvider = mp
	}

	p.logger.Debug("Telemetry initialized",
		"service", info.MetricsName,
		"traces", p.TracerProvider != nil,
		"metrics", p.MeterProvider != nil,
		"otel_logs", p.LoggerProvider != nil,
	)

	return p, nil
}

// Logger 返回 Init 安装的 logger。
func (p *Providers) Logger() *slog.Logger {
	if p == nil || p.logger == nil {
		return slog.Default()
	}

	return p.logger
}

// Shutdown 刷新并关闭所有 provider，合并返回各自的错误。
//
// nil 接收者和重复调用都是安全的。
func (p *Providers) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}

	p.once.Do(func() {
		var errs []error
		if p.TracerProvider != nil {
			if err := p.TracerProvider.Shutdown(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		if p.LoggerProvider != nil {
			if err := p.LoggerProvider.Shutdown(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		if p.MeterProvider != nil {
			if err := p.MeterProvider.Shutdown(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		if p.logger != nil && p.prevLogger != nil {
			slog.SetDefault(p.prevLogger)
			log.SetOutput(p.prevLogWriter)
			log.SetFlags(p.prevLogFlags)
		}
		p.err = errors.Join(errs...)
	})

	return p.err
}

func (p *Providers) initLogs(ctx context.Context, info svcinfo.Info, s LogSettings, res *resource.Resource, console io.Writer) error {
	handlers := []slog.Handler{logging.NewHandler(logging.ParseLevel(s.ConsoleLevel), s.Format, console)}

	if s.Endpoint != "" {
		opts := []otlploghttp.Option{otlploghttp.WithEndpoint(hostPort(s.Endpoint))}
		if !isHTTPS(s.Endpoint) {
			opts = append(opts, otlploghttp.WithInsecure())
		}
		if path := urlPath(s.Endpoint); path != "" {
			opts = append(opts, otlploghttp.WithURLPath(path))
		}
		exp, err := otlploghttp.New(ctx, opts...)
		if err != nil {
			return err
		}

		lp := sdklog.NewLoggerProvider(
			sdklog.WithProcessor(sdklog.NewBatchProcessor(exp)),
			sdklog.WithResource(res),
		)
		p.LoggerProvider = lp

		bridge := otelslog.NewHandler(info.MetricsName, otelslog.WithLoggerProvider(lp))
		handlers = append(handlers, logging.LevelFilter(bridge, logging.ParseLevel(s.OtelLevel)))
	}

	p.logger = slog.New(logging.Fanout(handlers...))
	slog.SetDefault(p.logger)

	return nil
}

func newResource(info svcinfo.Info) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(info.MetricsName),
			semconv.ServiceVersion(info.Version),
			semconv.ServiceInstanceID(uuid.NewString()),
		),
	)
}

func newTracerProvider(ctx context.Context, s TraceSettings, res *resource.Resource, w io.Writer) (*sdktrace.TracerProvider, error) {
	var (
		exp sdktrace.SpanExporter
		err error
	)
	if s.Exporter == ExporterStdout {
		exp, err = stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	} else {
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(hostPort(s.Endpoint))}
		if !isHTTPS(s.Endpoint) {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		if path := urlPath(s.Endpoint); path != "" {
			opts = append(opts, otlptracehttp.WithURLPath(path))
		}
		exp, err = otlptracehttp.New(ctx, opts...)
	}
	if err != nil {
		return nil, err
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	), nil
}

func newMeterProvider(ctx context.Context, s MetricSettings, res *resource.Resource, w io.Writer) (*sdkmetric.MeterProvider, error) {
	var (
		exp sdkmetric.Exporter
		err error
	)
	if s.Exporter == ExporterStdout {
		exp, err = stdoutmetric.New(stdoutmetric.WithWriter(w))
	} else {
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(hostPort(s.Endpoint))}
		if !isHTTPS(s.Endpoint) {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		if path := urlPath(s.Endpoint); path != "" {
			opts = append(opts, otlpmetrichttp.WithURLPath(path))
		}
		exp, err = otlpmetrichttp.New(ctx, opts...)
	}
	if err != nil {
		return nil, err
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if s.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(s.Interval))
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, readerOpts...)),
		sdkmetric.WithResource(res),
	), nil
}

// hostPort 提取 URL 中的 host:port (例如 "http://collector:4318" -> "collector:4318")。
func hostPort(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return endpoint
	}

	return u.Host
}

func isHTTPS(endpoint string) bool {
	u, err := url.Parse(endpoint)
	if err != nil {
		return false
	}

	return u.Scheme == "https"
}

// urlPath 返回 endpoint 中显式给出的路径，没有时返回空串以使用导出器的默认路径。
func urlPath(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" || u.Path == "/" {
		return ""
	}

	return u.Path
}
