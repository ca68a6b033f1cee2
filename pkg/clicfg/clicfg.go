package clicfg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"

	"github.com/urfave/cli/v3"

	"github.com/lwmacct/261015-go-pkg-svcboot/pkg/cfgm"
	"github.com/lwmacct/261015-go-pkg-svcboot/pkg/svcinfo"
)

// State 协商成功时的终止状态。
type State int

const (
	// StateReady 配置已加载，应用继续运行。
	StateReady State = iota
	// StateGenerated 已写入示例配置文件，进程应正常退出。
	StateGenerated
	// StateInfo 已输出帮助或版本信息，进程应正常退出。
	StateInfo
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "Ready"
	case StateGenerated:
		return "Generated"
	case StateInfo:
		return "Info"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Session 解析后的参数与配置。
type Session[C, A any] struct {
	Args   A
	Config C
}

// Result 协商结果，仅 StateReady 时 Session 非 nil。
type Result[C, A any] struct {
	State   State
	Session *Session[C, A]
	// GeneratedPath StateGenerated 时写入的文件路径。
	GeneratedPath string
}

// Describer 可由参数类型实现，替换帮助信息中的服务描述。
type Describer interface {
	Describe() string
}

// exit 进程退出函数，测试中可替换。
var exit = os.Exit

// Negotiate 解析 args 并按 --generate / --config 分支处理。
//
// args 遵循 os.Args 约定 (args[0] 为程序名)。
//   - --generate <path>：写入示例配置后返回 StateGenerated，不加载配置
//   - --config <path>：将 flag 解码为 A，再以 A 为最低层、envPrefix 为环境变量前缀加载 C
//   - --help / --version：输出后返回 StateInfo
//
// 失败时返回 [*Error]，不会返回部分构造的 Session。
func Negotiate[C, A any](ctx context.Context, info svcinfo.Info, envPrefix string, args []string, opts ...Option) (Result[C, A], error) {
	o := newOptions(opts)

	fields, err := argFields(reflect.TypeFor[A]())
	if err != nil {
		return Result[C, A]{}, argParseError(err)
	}

	var (
		ran    bool
		result Result[C, A]
	)

	cmd := &cli.Command{
		Name:            info.Name,
		Version:         info.Version,
		Usage:           usageText[A](info),
		Writer:          o.writer,
		ErrWriter:       o.errWriter,
		HideHelpCommand: true,
		Flags:           buildFlags(fields),
		// 错误统一由调用方处理，不在这里退出进程或打印帮助
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		OnUsageError: func(_ context.Context, _ *cli.Command, err error, _ bool) error {
			return err
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			ran = true
			if cmd.NArg() > 0 {
				return argParseError(fmt.Errorf("unexpected argument %q", cmd.Args().First()))
			}

			if cmd.IsSet(flagGenerate) {
				path := cmd.String(flagGenerate)
				if err := cfgm.WriteExample[C](path); err != nil {
					return &Error{Kind: KindConfigGenerate, Path: path, Err: err}
				}
				slog.Debug("Generated config file", "path", path)
				result = Result[C, A]{State: StateGenerated, GeneratedPath: path}

				return nil
			}

			configPath := cmd.String(flagConfig)
			if configPath == "" {
				return argParseError(errors.New(`required flag "config" not set (use --generate to create one)`))
			}

			parsed, err := decodeArgs[A](cmd, fields)
			if err != nil {
				return argParseError(err)
			}

			loadOpts := []cfgm.Option{cfgm.WithArgs(parsed)}
			if o.defaults != nil {
				loadOpts = append(loadOpts, cfgm.WithDefaults(o.defaults))
			}
			loadOpts = append(loadOpts, cfgm.WithConfigFile(configPath), cfgm.WithEnvPrefix(envPrefix))
			loadOpts = append(loadOpts, o.loadOptions...)

			cfg, err := cfgm.Load[C](loadOpts...)
			if err != nil {
				return &Error{Kind: KindConfigLoad, Path: configPath, Err: err}
			}

			result = Result[C, A]{
				State:   StateReady,
				Session: &Session[C, A]{Args: parsed, Config: *cfg},
			}

			return nil
		},
	}
	if info.Author != "" {
		cmd.Authors = []any{info.Author}
	}

	if len(args) == 0 {
		args = []string{info.Name}
	}
	if err := cmd.Run(ctx, args); err != nil {
		var cerr *Error
		if errors.As(err, &cerr) {
			return Result[C, A]{}, cerr
		}

		return Result[C, A]{}, argParseError(err)
	}

	// Action 未执行说明 urfave/cli 已处理 --help 或 --version
	if !ran {
		return Result[C, A]{State: StateInfo}, nil
	}

	return result, nil
}

// TryNew 使用进程参数协商。
//
// 需要进程正常退出 (已生成配置或已输出帮助) 时返回 (nil, nil)。
func TryNew[C, A any](info svcinfo.Info, envPrefix string, opts ...Option) (*Session[C, A], error) {
	result, err := Negotiate[C, A](context.Background(), info, envPrefix, os.Args, opts...)
	if err != nil {
		return nil, err
	}

	return result.Session, nil
}

// New 与 [TryNew] 相同，但会直接结束进程。
//
// 失败时向 stderr 输出 "Error: ..." 并以 1 退出；
// 生成配置或输出帮助后以 0 退出；仅配置就绪时返回。
func New[C, A any](info svcinfo.Info, envPrefix string, opts ...Option) *Session[C, A] {
	o := newOptions(opts)

	session, err := TryNew[C, A](info, envPrefix, opts...)
	if err != nil {
		_, _ = fmt.Fprintf(o.errWriter, "Error: %v\n", err)
		exit(1)

		return nil
	}
	if session == nil {
		exit(0)

		return nil
	}

	return session
}

func buildFlags(fields []argField) []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    flagConfig,
			Aliases: []string{"c"},
			Usage:   "Specifies the config file to run the service with",
		},
		&cli.StringFlag{
			Name:    flagGenerate,
			Aliases: []string{"g"},
			Usage:   "Generates a new default config file for the service",
		},
	}
	for _, f := range fields {
		flags = append(flags, f.cliFlag())
	}

	return flags
}

func usageText[A any](info svcinfo.Info) string {
	var zero A
	if d, ok := any(zero).(Describer); ok {
		return d.Describe()
	}
	if d, ok := any(&zero).(Describer); ok {
		return d.Describe()
	}

	return info.Description
}
