package severity

import "errors"

var (
	// ErrUnknownSeverity 表示字符串无法解析为任何严重度（调用方配置错误）。
	ErrUnknownSeverity = errors.New("severity: unknown severity")

	// ErrInvalidLevel 表示数值不在 0~7 等级标尺内（含 Off）。
	ErrInvalidLevel = errors.New("severity: invalid level")
)
