package clicfg

import (
	"errors"
	"fmt"

	"github.com/lwmacct/261015-go-pkg-svcboot/pkg/cfgm"
)

// Kind 协商失败的类别。
type Kind int

// 失败类别。
const (
	// KindArgParse 参数格式错误、缺少 --config 或未知 flag。
	KindArgParse Kind = iota + 1
	// KindConfigGenerate 写入示例配置文件失败。
	KindConfigGenerate
	// KindConfigLoad 配置加载、合并或解码失败。
	KindConfigLoad
)

func (k Kind) String() string {
	switch k {
	case KindArgParse:
		return "ArgParse"
	case KindConfigGenerate:
		return "ConfigGenerate"
	case KindConfigLoad:
		return "ConfigLoad"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// 可与 [errors.Is] 配合使用的哨兵错误。
//
// 配置加载失败可以直接匹配 [cfgm.ErrConfigLoad]。
var (
	ErrArgParse       = errors.New("argument parse failed")
	ErrConfigGenerate = errors.New("config generate failed")
)

// Error 协商失败时返回的错误。
type Error struct {
	Kind Kind
	// Path 相关的配置文件路径，可能为空。
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindArgParse:
		return fmt.Sprintf("could not parse arguments: %v", e.Err)
	case KindConfigGenerate:
		return fmt.Sprintf("could not generate config file at %q: %v", e.Path, e.Err)
	default:
		return e.Err.Error()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is 按类别匹配哨兵错误。
func (e *Error) Is(target error) bool {
	switch target {
	case ErrArgParse:
		return e.Kind == KindArgParse
	case ErrConfigGenerate:
		return e.Kind == KindConfigGenerate
	case cfgm.ErrConfigLoad:
		return e.Kind == KindConfigLoad
	}

	return false
}

func argParseError(err error) *Error {
	return &Error{Kind: KindArgParse, Err: err}
}
