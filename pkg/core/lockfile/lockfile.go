//go:build unix

package lockfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// LockFileName 锁文件的固定名称，由日志目录路径确定性派生。
const LockFileName = "log.lock"

// 锁状态标记，写入锁文件的人类可读内容。
const (
	markerLocked   = "Locked"
	markerUnlocked = "Unlocked"
)

// defaultPollInterval 非阻塞尝试之间的默认轮询间隔。
const defaultPollInterval = 10 * time.Millisecond

// Mutex 跨进程建议锁。
//
// 同一进程内的方法调用是并发安全的；排他性由操作系统的 flock(2)
// 保证，对共享同一锁文件路径的所有进程生效。
type Mutex struct {
	path string

	mu     sync.Mutex
	f      *os.File // 首次 Acquire 时打开，Close 前保持打开
	held   bool
	closed bool

	pollInterval time.Duration
	onWarn       func(string)

	// 可注入的 flock 系统调用，仅用于测试
	flockFn func(fd int, how int) error
}

// Option Mutex 配置选项函数。
type Option func(*Mutex)

// WithOnWarn 设置告警回调。
//
// 用于上报非致命的调用方误用（如未持锁时 Release）。默认为 nil（静默）。
// 回调不得再进入同一日志路径，避免递归。
func WithOnWarn(fn func(string)) Option {
	return func(m *Mutex) {
		m.onWarn = fn
	}
}

// WithPollInterval 设置 Acquire 的轮询间隔，零值或负值时使用默认 10ms。
func WithPollInterval(d time.Duration) Option {
	return func(m *Mutex) {
		if d > 0 {
			m.pollInterval = d
		}
	}
}

// New 为指定日志目录创建跨进程锁。
//
// 只构造对象，不触碰文件系统；锁文件在首次 Acquire 时创建。
// dir 不能为空。
func New(dir string, opts ...Option) (*Mutex, error) {
	if dir == "" {
		return nil, fmt.Errorf("directory is required: %w", ErrLockFile)
	}
	m := &Mutex{
		path:         filepath.Join(dir, LockFileName),
		pollInterval: defaultPollInterval,
		flockFn:      unix.Flock,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m, nil
}

// Path 返回锁文件路径。
func (m *Mutex) Path() string {
	return m.path
}

// Acquire 阻塞获取排他锁，直到成功或 ctx 取消。
//
// 锁文件无法以写模式打开时返回 [ErrLockFile]（如权限不足）。
// 成功后清空锁文件并写入 "Locked" 标记。
// ctx 取消时返回 ctx.Err()。Mutex 已关闭时返回 [ErrClosed]。
func (m *Mutex) Acquire(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if m.held {
		// 非可重入，与 sync.Mutex 一致；同一实例重复 Acquire 是调用方错误
		m.warn("acquire on already-held lock")
		return nil
	}

	if m.f == nil {
		f, err := os.OpenFile(m.path, os.O_CREATE|os.O_RDWR, 0644)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrLockFile, err)
		}
		m.f = f
	}

	for {
		err := m.flockFn(int(m.f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			break
		}
		if !errors.Is(err, unix.EWOULDBLOCK) && !errors.Is(err, unix.EAGAIN) {
			return fmt.Errorf("%w: flock: %w", ErrLockFile, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.pollInterval):
		}
	}

	m.held = true
	m.writeMarker(markerLocked)
	return nil
}

// Release 释放锁并写入 "Unlocked" 标记。
//
// 未持有锁时上报告警并返回 [ErrNotHeld]，不做任何文件变更——
// 这是调用方误用而非系统故障，不应中断调用方流程。
func (m *Mutex) Release() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.releaseLocked()
}

func (m *Mutex) releaseLocked() error {
	if !m.held {
		m.warn("release without held lock")
		return ErrNotHeld
	}

	// 标记必须在放锁前写入：放锁后文件归下一个持有者所有
	m.writeMarker(markerUnlocked)

	if err := m.flockFn(int(m.f.Fd()), unix.LOCK_UN); err != nil {
		return fmt.Errorf("%w: unlock: %w", ErrLockFile, err)
	}
	m.held = false
	return nil
}

// Close 关闭 Mutex，仍持有锁时先释放。幂等：重复调用返回 nil。
func (m *Mutex) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	var err error
	if m.held {
		err = m.releaseLocked()
	}
	if m.f != nil {
		if cerr := m.f.Close(); cerr != nil && err == nil {
			err = cerr
		}
		m.f = nil
	}
	return err
}

// writeMarker 清空锁文件并写入状态标记。
// 标记只用于诊断，写入失败通过告警回调上报，不影响锁语义。
func (m *Mutex) writeMarker(marker string) {
	if err := m.f.Truncate(0); err != nil {
		m.warn(fmt.Sprintf("truncate marker: %v", err))
		return
	}
	if _, err := m.f.WriteAt([]byte(marker), 0); err != nil {
		m.warn(fmt.Sprintf("write marker: %v", err))
	}
}

func (m *Mutex) warn(msg string) {
	if m.onWarn != nil {
		m.onWarn("lockfile: " + msg)
	}
}
