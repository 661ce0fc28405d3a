package smartlog

import "errors"

var (
	// ErrConstruction 表示 Logger 构造失败（目录/锁/文件初始化任一环节），
	// 致命：实例不可用，也不得被注册。
	ErrConstruction = errors.New("smartlog: construction failed")

	// ErrInvalidConfig 表示配置不合法（目录缺失、阈值越界等）。
	ErrInvalidConfig = errors.New("smartlog: invalid configuration")

	// ErrUnknownKey 表示批量配置中出现不认识的键（配置错误，快速失败）。
	ErrUnknownKey = errors.New("smartlog: unknown configuration key")

	// ErrUnsupportedFormat 表示不支持的配置格式。
	ErrUnsupportedFormat = errors.New("smartlog: unsupported config format")

	// ErrParseFailed 表示批量配置解析失败。
	ErrParseFailed = errors.New("smartlog: failed to parse config")
)
