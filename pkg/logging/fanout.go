package logging

import (
	"context"
	"errors"
	"log/slog"
)

// fanout 将记录分发给多个 handler。
type fanout struct {
	handlers []slog.Handler
}

// Fanout 返回把每条记录分发给所有启用该级别的 handler 的 slog.Handler。
//
// nil handler 会被忽略；只剩一个时直接返回它。
func Fanout(handlers ...slog.Handler) slog.Handler {
	hs := make([]slog.Handler, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			hs = append(hs, h)
		}
	}
	if len(hs) == 1 {
		return hs[0]
	}

	return &fanout{handlers: hs}
}

func (f *fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}

	return false
}

func (f *fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (f *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	hs := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		hs[i] = h.WithAttrs(attrs)
	}

	return &fanout{handlers: hs}
}

func (f *fanout) WithGroup(name string) slog.Handler {
	hs := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		hs[i] = h.WithGroup(name)
	}

	return &fanout{handlers: hs}
}

// levelFilter 丢弃低于 level 的记录。
type levelFilter struct {
	slog.Handler
	level slog.Leveler
}

// LevelFilter 包装 h，只放行 level 及以上的记录。
func LevelFilter(h slog.Handler, level slog.Leveler) slog.Handler {
	return &levelFilter{Handler: h, level: level}
}

func (l *levelFilter) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= l.level.Level() && l.Handler.Enabled(ctx, level)
}

func (l *levelFilter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level < l.level.Level() {
		return nil
	}

	return l.Handler.Handle(ctx, r)
}

func (l *levelFilter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelFilter{Handler: l.Handler.WithAttrs(attrs), level: l.level}
}

func (l *levelFilter) WithGroup(name string) slog.Handler {
	return &levelFilter{Handler: l.Handler.WithGroup(name), level: l.level}
}
