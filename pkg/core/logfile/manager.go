package logfile

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/omeyang/smartlog/internal/fsutil"
)

// 默认配置值。
const (
	// DefaultMaxFileSize 默认单个日志文件大小上限（字节）。
	DefaultMaxFileSize int64 = 100_000_000

	// DefaultMaxDays 默认日志保留天数。
	DefaultMaxDays = 7

	// DefaultFilePerm 默认日志文件权限。
	DefaultFilePerm os.FileMode = 0644

	// DefaultDirPerm 默认日志目录权限（符合 gosec G301 建议）。
	DefaultDirPerm os.FileMode = 0750
)

// dateLayout 文件名内嵌日期的固定格式。
const dateLayout = "2006-01-02"

// namePattern 匹配 log_<date>[-NNN].csv。计数器段可缺省，
// 不匹配的文件名在过期清理时一律忽略（绝不误删）。
var namePattern = regexp.MustCompile(`^log_(\d{4}-\d{2}-\d{2})(?:-(\d+))?\.csv$`)

// Manager 拥有一个逻辑日志目录，负责活动文件解析、追加句柄和过期清理。
//
// Manager 自身不做跨进程互斥；ResolveActive/Open/Append/DeleteExpired
// 应在调用方持有目录锁时执行。
type Manager struct {
	dir         string
	maxFileSize int64
	maxDays     int
	filePerm    os.FileMode
	dirPerm     os.FileMode

	mu     sync.Mutex
	active string
	f      *os.File
	closed bool

	// 可注入的系统调用，仅用于测试
	statFn func(string) (os.FileInfo, error)
}

// Option Manager 配置选项函数。
type Option func(*Manager)

// WithMaxFileSize 设置单个日志文件大小上限（字节），零值或负值时使用默认值。
func WithMaxFileSize(n int64) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxFileSize = n
		}
	}
}

// WithMaxDays 设置日志保留天数，零值或负值时使用默认值。
func WithMaxDays(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxDays = n
		}
	}
}

// WithFilePerm 设置日志文件创建权限，零值时使用默认 0644。
func WithFilePerm(perm os.FileMode) Option {
	return func(m *Manager) {
		if perm != 0 {
			m.filePerm = perm
		}
	}
}

// WithDirPerm 设置日志目录创建权限，零值时使用默认 0750。
func WithDirPerm(perm os.FileMode) Option {
	return func(m *Manager) {
		if perm != 0 {
			m.dirPerm = perm
		}
	}
}

// NewManager 创建日志目录管理器。
//
// 目录路径会经过格式净化并剥离尾部分隔符；只构造对象，不触碰文件系统。
func NewManager(dir string, opts ...Option) (*Manager, error) {
	normalized, err := fsutil.NormalizeDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmptyDir, err)
	}

	m := &Manager{
		dir:         normalized,
		maxFileSize: DefaultMaxFileSize,
		maxDays:     DefaultMaxDays,
		filePerm:    DefaultFilePerm,
		dirPerm:     DefaultDirPerm,
		statFn:      os.Stat,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m, nil
}

// Dir 返回规范化后的日志目录。
func (m *Manager) Dir() string {
	return m.dir
}

// EnsureDirectory 创建日志目录（含父目录），已存在时为空操作。
func (m *Manager) EnsureDirectory() error {
	if err := fsutil.EnsureDirWithPerm(m.dir, m.dirPerm); err != nil {
		return fmt.Errorf("%w: %w", ErrDirectory, err)
	}
	return nil
}

// ResolveActive 解析当前应写入的活动文件并记住它。
//
// 候选为 log_<now 日期>-<NNN>.csv，NNN 从 000 起：候选存在且大小超过
// 上限时递增，停在第一个不存在或未超限的候选。已存在但不可写的候选
// 返回 [ErrNotWritable]。
//
// 轮转判定只在这里发生，每个 Manager 生命周期一次。
func (m *Manager) ResolveActive(now time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	day := now.Format(dateLayout)
	for n := 0; ; n++ {
		name := fmt.Sprintf("log_%s-%03d.csv", day, n)
		path := filepath.Join(m.dir, name)

		info, err := m.statFn(path)
		if os.IsNotExist(err) {
			m.active = path
			return path, nil
		}
		if err != nil {
			return "", fmt.Errorf("%w: stat %s: %w", ErrOpen, name, err)
		}
		if info.Size() > m.maxFileSize {
			continue
		}
		if err := checkWritable(path); err != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrNotWritable, name, err)
		}
		m.active = path
		return path, nil
	}
}

// checkWritable 以追加写模式试开已存在的文件验证可写性。
func checkWritable(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return err
	}
	return f.Close()
}

// ActivePath 返回最近一次 ResolveActive 的结果，尚未解析时为空串。
func (m *Manager) ActivePath() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Open 以追加模式打开活动文件并持有句柄。
// 必须先调用 ResolveActive。
func (m *Manager) Open() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if m.active == "" {
		return fmt.Errorf("%w: active file not resolved", ErrOpen)
	}
	f, err := os.OpenFile(m.active, os.O_APPEND|os.O_CREATE|os.O_WRONLY, m.filePerm)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOpen, err)
	}
	m.f = f
	return nil
}

// Append 将若干 CSV 行追加写入活动文件句柄。
//
// 引号和转义遵循标准 CSV 规则（encoding/csv）。写入错误包装为 [ErrWrite]。
// 调用方负责在写入期间持有跨进程锁。
func (m *Manager) Append(rows [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || m.f == nil {
		return ErrClosed
	}

	w := csv.NewWriter(m.f)
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("%w: %w", ErrWrite, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

// Close 释放文件句柄。幂等：重复调用返回 nil。
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	if m.f == nil {
		return nil
	}
	err := m.f.Close()
	m.f = nil
	return err
}

// DeleteExpired 删除目录中日期严格早于 ref - MaxDays*24h 的日志文件。
//
// 日期取自文件名内嵌的 <YYYY-MM-DD>（按 UTC 零点解释），恰好等于边界
// 的文件保留。文件名不符合模式的条目一律忽略。应在构造期、持有跨进程
// 锁时调用一次。
func (m *Manager) DeleteExpired(ref time.Time) error {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDirectory, err)
	}

	cutoff := ref.Add(-time.Duration(m.maxDays) * 24 * time.Hour)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := namePattern.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		day, err := time.Parse(dateLayout, match[1])
		if err != nil {
			continue
		}
		if !day.Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(m.dir, entry.Name())); err != nil {
			return fmt.Errorf("%w: remove %s: %w", ErrWrite, entry.Name(), err)
		}
	}
	return nil
}
