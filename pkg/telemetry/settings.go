package telemetry

import "time"

// 导出方式。
const (
	ExporterOTLP   = "otlp"
	ExporterStdout = "stdout"
)

// Settings 遥测配置，可作为任意配置类型的子树使用。
type Settings struct {
	Trace  TraceSettings  `json:"trace"  desc:"Settings for tracing"`
	Log    LogSettings    `json:"log"    desc:"Settings for logging"`
	Metric MetricSettings `json:"metric" desc:"Settings for metrics"`
}

// TraceSettings 分布式追踪配置。
type TraceSettings struct {
	Exporter string `json:"exporter,omitempty" desc:"Span exporter: otlp or stdout" example:"otlp" validate:"omitempty,oneof=otlp stdout"`
	Endpoint string `json:"endpoint,omitempty" desc:"OTLP/HTTP endpoint to send traces to, omit to disable" example:"http://localhost:4318"`
}

// LogSettings 日志配置。
//
// 级别使用 env-logger 风格语法，见 [logging.ParseLevel]。
//
// [logging.ParseLevel]: github.com/lwmacct/261015-go-pkg-svcboot/pkg/logging.ParseLevel
type LogSettings struct {
	ConsoleLevel string `json:"console_level"      desc:"Log level for console output, set to off to disable console logging" example:"debug,my_service=info"`
	OtelLevel    string `json:"otel_level"         desc:"Log level for logs sent to OpenTelemetry"                           example:"warn,my_service=debug"`
	Format       string `json:"format,omitempty"   desc:"Console format: text or json"                                         example:"text" validate:"omitempty,oneof=text json"`
	Endpoint     string `json:"endpoint,omitempty" desc:"OTLP/HTTP endpoint to send logs to, omit to disable OpenTelemetry logs" example:"http://localhost:4318"`
}

// MetricSettings 指标配置。
type MetricSettings struct {
	Exporter string        `json:"exporter,omitempty" desc:"Metric exporter: otlp or stdout"                    example:"otlp" validate:"omitempty,oneof=otlp stdout"`
	Endpoint string        `json:"endpoint,omitempty" desc:"OTLP/HTTP endpoint to send metrics to, omit to disable" example:"http://localhost:4318"`
	Interval time.Duration `json:"interval,omitempty" desc:"Export interval"                                     example:"60s"`
}

func (s TraceSettings) enabled() bool {
	return s.Exporter == ExporterStdout || s.Endpoint != ""
}

func (s MetricSettings) enabled() bool {
	return s.Exporter == ExporterStdout || s.Endpoint != ""
}
