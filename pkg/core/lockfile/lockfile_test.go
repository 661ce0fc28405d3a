//go:build unix

package lockfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMutex(t *testing.T, dir string, opts ...Option) *Mutex {
	t.Helper()
	m, err := New(dir, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

// =============================================================================
// 基本获取/释放与标记内容
// =============================================================================

func TestAcquireRelease(t *testing.T) {
	dir := t.TempDir()
	m := newTestMutex(t, dir)

	require.NoError(t, m.Acquire(context.Background()))

	data, err := os.ReadFile(filepath.Join(dir, LockFileName))
	require.NoError(t, err)
	assert.Equal(t, "Locked", string(data))

	require.NoError(t, m.Release())

	data, err = os.ReadFile(filepath.Join(dir, LockFileName))
	require.NoError(t, err)
	assert.Equal(t, "Unlocked", string(data))
}

// TestReleaseWithoutHold 未持锁释放：告警回调 + ErrNotHeld，不 panic
func TestReleaseWithoutHold(t *testing.T) {
	var warned string
	m := newTestMutex(t, t.TempDir(), WithOnWarn(func(msg string) { warned = msg }))

	err := m.Release()
	assert.ErrorIs(t, err, ErrNotHeld)
	assert.Contains(t, warned, "release without held lock")
}

// TestAcquireBadDirectory 锁文件无法打开时返回 ErrLockFile
func TestAcquireBadDirectory(t *testing.T) {
	m, err := New(filepath.Join(t.TempDir(), "no-such-subdir"))
	require.NoError(t, err)
	defer m.Close()

	err = m.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrLockFile)
}

func TestNewEmptyDir(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, ErrLockFile)
}

// =============================================================================
// 排他性与取消
// =============================================================================

// TestMutualExclusion 两个实例共享同一锁文件路径时互斥
func TestMutualExclusion(t *testing.T) {
	dir := t.TempDir()
	m1 := newTestMutex(t, dir, WithPollInterval(time.Millisecond))
	m2 := newTestMutex(t, dir, WithPollInterval(time.Millisecond))

	require.NoError(t, m1.Acquire(context.Background()))

	// m1 持有期间 m2 无法在短超时内取得
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := m2.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// m1 释放后 m2 立即取得
	require.NoError(t, m1.Release())
	require.NoError(t, m2.Acquire(context.Background()))
	require.NoError(t, m2.Release())
}

// TestAcquireContextCancel ctx 取消时 Acquire 返回且不泄漏 goroutine（TestMain 的 goleak 兜底）
func TestAcquireContextCancel(t *testing.T) {
	dir := t.TempDir()
	m1 := newTestMutex(t, dir, WithPollInterval(time.Millisecond))
	m2 := newTestMutex(t, dir, WithPollInterval(time.Millisecond))

	require.NoError(t, m1.Acquire(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m2.Acquire(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Acquire 未响应 ctx 取消")
	}
}

// =============================================================================
// Close 语义
// =============================================================================

func TestCloseIdempotent(t *testing.T) {
	m := newTestMutex(t, t.TempDir())
	require.NoError(t, m.Acquire(context.Background()))

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	err := m.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

// TestCloseReleasesHeldLock Close 会释放仍持有的锁并写入 Unlocked 标记
func TestCloseReleasesHeldLock(t *testing.T) {
	dir := t.TempDir()
	m := newTestMutex(t, dir)
	require.NoError(t, m.Acquire(context.Background()))
	require.NoError(t, m.Close())

	data, err := os.ReadFile(filepath.Join(dir, LockFileName))
	require.NoError(t, err)
	assert.Equal(t, "Unlocked", string(data))

	// 锁已放开：新实例可以立即取得
	m2 := newTestMutex(t, dir)
	require.NoError(t, m2.Acquire(context.Background()))
}
