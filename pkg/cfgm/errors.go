package cfgm

import (
	"errors"
	"fmt"
)

// Kind 错误类别。
type Kind int

// 错误类别。
const (
	// KindConfigLoad 配置文件读取/解析失败，或合并结果无法解码为目标类型。
	KindConfigLoad Kind = iota + 1
	// KindConfigFileWrite 示例配置文件写入失败。
	KindConfigFileWrite
)

// 可与 [errors.Is] 配合使用的哨兵错误。
var (
	ErrConfigLoad      = errors.New("config load failed")
	ErrConfigFileWrite = errors.New("config file write failed")
)

// Error 是本包返回的错误类型，保留底层原因链。
type Error struct {
	Kind Kind
	// Path 相关文件路径，可能为空。
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindConfigFileWrite:
		return fmt.Sprintf("could not write to the config file at %q: %v", e.Path, e.Err)
	default:
		return fmt.Sprintf("could not load application configuration: %v", e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is 让 errors.Is(err, ErrConfigLoad) 等按类别匹配。
func (e *Error) Is(target error) bool {
	switch target {
	case ErrConfigLoad:
		return e.Kind == KindConfigLoad
	case ErrConfigFileWrite:
		return e.Kind == KindConfigFileWrite
	}

	return false
}

func loadError(path string, err error) error {
	return &Error{Kind: KindConfigLoad, Path: path, Err: err}
}
