// Package telemetry 基于 OpenTelemetry 初始化追踪、指标和日志。
//
// [Settings] 可作为服务配置的一个子树，endpoint 为空的信号不导出。
// 每个信号可选择 OTLP/HTTP 或 stdout 导出器：
//
//	providers, err := telemetry.Init(ctx, info, cfg.Telemetry)
//	if err != nil {
//	    return err
//	}
//	defer providers.Shutdown(context.Background())
//
// 日志总是输出到控制台 (级别由 console_level 控制)，配置了日志 endpoint 时
// 同时通过 otelslog 桥接发送到 OpenTelemetry (级别由 otel_level 控制)。
//
// 跨服务传播使用 W3C Trace Context，见 [ExtractHTTP]、[InjectHTTP] 和 [Middleware]。
package telemetry
