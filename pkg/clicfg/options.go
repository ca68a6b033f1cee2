package clicfg

import (
	"io"
	"os"

	"github.com/lwmacct/261015-go-pkg-svcboot/pkg/cfgm"
)

// options 协商选项。
type options struct {
	writer      io.Writer
	errWriter   io.Writer
	defaults    any
	loadOptions []cfgm.Option
}

// Option 协商选项函数。
type Option func(*options)

func newOptions(opts []Option) *options {
	o := &options{
		writer:    os.Stdout,
		errWriter: os.Stderr,
	}
	for _, opt := range opts {
		opt(o)
	}

	return o
}

// WithWriter 设置帮助与版本信息的输出，默认 os.Stdout。
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		o.writer = w
	}
}

// WithErrWriter 设置错误信息的输出，默认 os.Stderr。
func WithErrWriter(w io.Writer) Option {
	return func(o *options) {
		o.errWriter = w
	}
}

// WithDefaults 设置配置默认值，见 [cfgm.WithDefaults]。
func WithDefaults(v any) Option {
	return func(o *options) {
		o.defaults = v
	}
}

// WithLoadOptions 追加传给 [cfgm.Load] 的选项，例如 [cfgm.WithStrict]。
func WithLoadOptions(opts ...cfgm.Option) Option {
	return func(o *options) {
		o.loadOptions = append(o.loadOptions, opts...)
	}
}
