package telemetry

import "fmt"

// Kind 初始化失败的类别。
type Kind int

// 失败类别。
const (
	KindInitLog Kind = iota + 1
	KindInitMetric
	KindInitTrace
)

// Error 初始化失败时返回的错误。
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindInitLog:
		return fmt.Sprintf("could not initialize logging: %v", e.Err)
	case KindInitMetric:
		return fmt.Sprintf("could not initialize metrics: %v", e.Err)
	default:
		return fmt.Sprintf("could not initialize tracing: %v", e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }
