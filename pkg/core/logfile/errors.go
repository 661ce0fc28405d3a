package logfile

import "errors"

var (
	// ErrEmptyDir 表示日志目录参数为空。
	ErrEmptyDir = errors.New("logfile: directory is required")

	// ErrDirectory 表示日志目录无法创建。
	ErrDirectory = errors.New("logfile: cannot create directory")

	// ErrNotWritable 表示解析出的活动文件已存在但不可写（构造期预检失败，致命）。
	ErrNotWritable = errors.New("logfile: active file not writable")

	// ErrOpen 表示活动文件无法以追加模式打开。
	ErrOpen = errors.New("logfile: cannot open active file")

	// ErrWrite 表示向活动文件写入失败。
	ErrWrite = errors.New("logfile: write failed")

	// ErrClosed 表示 Manager 已关闭或句柄尚未打开。
	ErrClosed = errors.New("logfile: manager is closed")
)
