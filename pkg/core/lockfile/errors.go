package lockfile

import "errors"

var (
	// ErrLockFile 表示锁文件无法打开或写入（如目录权限不足）。
	ErrLockFile = errors.New("lockfile: cannot open lock file")

	// ErrNotHeld 表示在未持有锁的情况下调用了 Release（调用方使用错误，
	// 非致命：通过告警回调上报，不做任何文件变更）。
	ErrNotHeld = errors.New("lockfile: lock not held")

	// ErrClosed 表示 Mutex 已关闭。
	ErrClosed = errors.New("lockfile: mutex is closed")
)
