package errbridge

import "errors"

var (
	// ErrNilLogger 表示安装目标 Logger 为 nil。
	ErrNilLogger = errors.New("errbridge: nil logger")

	// ErrNoSignals 表示信号订阅未指定任何信号。
	ErrNoSignals = errors.New("errbridge: no signals specified")
)
