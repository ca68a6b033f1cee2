// Package logging 构造基于 log/slog 的结构化日志。
//
// 级别使用 env-logger 风格的描述 (例如 "debug" 或 "info,my_module=debug")，
// 敏感字段通过 masq 脱敏。
//
//	logger := logging.New("info", logging.FormatText, os.Stderr)
//	slog.SetDefault(logger)
package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// 日志格式。
const (
	FormatText = "text"
	FormatJSON = "json"
)

// LevelOff 高于任何实际级别，用于关闭输出。
const LevelOff = slog.Level(1 << 10)

// LevelTrace 比 Debug 更详细的级别。
const LevelTrace = slog.LevelDebug - 4

type contextKey struct{}

// New 创建日志记录器，levels 的语法见 [ParseLevel]。
//
// format 为 [FormatJSON] 时使用 JSON，其它值使用文本格式。
func New(levels, format string, w io.Writer) *slog.Logger {
	return slog.New(NewHandler(ParseLevel(levels), format, w))
}

// NewHandler 创建带脱敏的控制台 handler。
func NewHandler(level slog.Leveler, format string, w io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:       level,
		AddSource:   level.Level() <= slog.LevelDebug,
		ReplaceAttr: newRedactAttr(),
	}
	if format == FormatJSON {
		return slog.NewJSONHandler(w, opts)
	}

	return slog.NewTextHandler(w, opts)
}

// ParseLevel 解析 env-logger 风格的级别描述。
//
// 以逗号分隔的指令中，第一个不含 "=" 且可识别的指令决定全局级别；
// "target=level" 形式的指令被接受但忽略。"off" 关闭输出。
// 空字符串或无法识别时返回 Info。
func ParseLevel(levels string) slog.Level {
	for directive := range strings.SplitSeq(levels, ",") {
		directive = strings.TrimSpace(directive)
		if directive == "" || strings.Contains(directive, "=") {
			continue
		}
		if lvl, ok := levelByName(directive); ok {
			return lvl
		}
	}

	return slog.LevelInfo
}

func levelByName(name string) (slog.Level, bool) {
	switch strings.ToLower(name) {
	case "off":
		return LevelOff, true
	case "trace":
		return LevelTrace, true
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return 0, false
	}
}

// WithLogger 将 logger 存入 context。
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext 取出 context 中的 logger，不存在时返回 slog.Default()。
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(contextKey{}).(*slog.Logger); ok {
		return logger
	}

	return slog.Default()
}
