package logfile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParseDay(t *testing.T, day string) time.Time {
	t.Helper()
	ts, err := time.Parse(dateLayout, day)
	require.NoError(t, err)
	return ts
}

func writeFile(t *testing.T, dir, name string, size int) {
	t.Helper()
	data := make([]byte, size)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0644))
}

// =============================================================================
// 活动文件解析与轮转计数器
// =============================================================================

// TestResolveActiveFresh 空目录解析到当天的 000 号文件
func TestResolveActiveFresh(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	require.NoError(t, err)

	now := mustParseDay(t, "2026-08-25")
	path, err := m.ResolveActive(now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "log_2026-08-25-000.csv"), path)
	assert.Equal(t, path, m.ActivePath())
}

// TestResolveActiveRotates 超限文件触发计数器递增
func TestResolveActiveRotates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "log_2026-08-25-000.csv", 200) // 超过上限
	writeFile(t, dir, "log_2026-08-25-001.csv", 50)  // 未超限

	m, err := NewManager(dir, WithMaxFileSize(100))
	require.NoError(t, err)

	path, err := m.ResolveActive(mustParseDay(t, "2026-08-25"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "log_2026-08-25-001.csv"), path)
}

// TestResolveActiveSkipsAllFull 连续超限时停在第一个不存在的候选
func TestResolveActiveSkipsAllFull(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "log_2026-08-25-000.csv", 200)
	writeFile(t, dir, "log_2026-08-25-001.csv", 300)

	m, err := NewManager(dir, WithMaxFileSize(100))
	require.NoError(t, err)

	path, err := m.ResolveActive(mustParseDay(t, "2026-08-25"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "log_2026-08-25-002.csv"), path)
}

// TestResolveActiveExactlyAtCap 大小恰好等于上限不触发轮转（严格大于才轮转）
func TestResolveActiveExactlyAtCap(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "log_2026-08-25-000.csv", 100)

	m, err := NewManager(dir, WithMaxFileSize(100))
	require.NoError(t, err)

	path, err := m.ResolveActive(mustParseDay(t, "2026-08-25"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "log_2026-08-25-000.csv"), path)
}

// TestResolveActiveNotWritable 已存在但不可写的候选返回 ErrNotWritable
func TestResolveActiveNotWritable(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("root 不受权限位约束")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "log_2026-08-25-000.csv")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0400))

	m, err := NewManager(dir, WithMaxFileSize(100))
	require.NoError(t, err)

	_, err = m.ResolveActive(mustParseDay(t, "2026-08-25"))
	assert.ErrorIs(t, err, ErrNotWritable)
}

// =============================================================================
// 目录与追加写
// =============================================================================

func TestEnsureDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	m, err := NewManager(dir)
	require.NoError(t, err)

	require.NoError(t, m.EnsureDirectory())
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// 已存在时幂等
	require.NoError(t, m.EnsureDirectory())
}

// TestNormalizesTrailingSeparator 目录路径尾部分隔符被剥离
func TestNormalizesTrailingSeparator(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir + string(filepath.Separator))
	require.NoError(t, err)
	assert.Equal(t, dir, m.Dir())
}

func TestNewManagerEmptyDir(t *testing.T) {
	_, err := NewManager("")
	assert.ErrorIs(t, err, ErrEmptyDir)
}

// TestAppendCSVQuoting 含分隔符与引号的字段按标准 CSV 规则转义
func TestAppendCSVQuoting(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	require.NoError(t, err)

	_, err = m.ResolveActive(mustParseDay(t, "2026-08-25"))
	require.NoError(t, err)
	require.NoError(t, m.Open())
	defer m.Close()

	require.NoError(t, m.Append([][]string{
		{"ts", "ERROR", `msg with "quotes", and comma`, "f(1)", "", ""},
	}))

	data, err := os.ReadFile(m.ActivePath())
	require.NoError(t, err)
	assert.Equal(t, "ts,ERROR,\"msg with \"\"quotes\"\", and comma\",f(1),,\n", string(data))
}

func TestAppendWithoutOpen(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)
	assert.ErrorIs(t, m.Append([][]string{{"x"}}), ErrClosed)
}

func TestOpenWithoutResolve(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)
	assert.ErrorIs(t, m.Open(), ErrOpen)
}

func TestCloseIdempotent(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)
	_, err = m.ResolveActive(time.Now())
	require.NoError(t, err)
	require.NoError(t, m.Open())

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.ErrorIs(t, m.Append(nil), ErrClosed)
}

// =============================================================================
// 过期清理
// =============================================================================

// TestDeleteExpired 严格早于边界的删除，等于边界的保留
func TestDeleteExpired(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "log_2026-08-10-000.csv", 1) // 过期
	writeFile(t, dir, "log_2026-08-18-000.csv", 1) // 恰在边界：保留
	writeFile(t, dir, "log_2026-08-19-002.csv", 1) // 未过期
	writeFile(t, dir, "log_2026-08-25.csv", 1)     // 无计数器段也匹配模式，未过期
	writeFile(t, dir, "notes.txt", 1)              // 不匹配模式：忽略
	writeFile(t, dir, "log_garbage.csv", 1)        // 日期不可解析：忽略

	m, err := NewManager(dir, WithMaxDays(7))
	require.NoError(t, err)

	// ref = 2026-08-25 零点，cutoff = 2026-08-18 零点
	require.NoError(t, m.DeleteExpired(mustParseDay(t, "2026-08-25")))

	assert.NoFileExists(t, filepath.Join(dir, "log_2026-08-10-000.csv"))
	assert.FileExists(t, filepath.Join(dir, "log_2026-08-18-000.csv"))
	assert.FileExists(t, filepath.Join(dir, "log_2026-08-19-002.csv"))
	assert.FileExists(t, filepath.Join(dir, "log_2026-08-25.csv"))
	assert.FileExists(t, filepath.Join(dir, "notes.txt"))
	assert.FileExists(t, filepath.Join(dir, "log_garbage.csv"))
}

// TestDeleteExpiredOldCounterFile 过期判断只看日期，与计数器无关
func TestDeleteExpiredOldCounterFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "log_2026-01-01-017.csv", 1)

	m, err := NewManager(dir, WithMaxDays(7))
	require.NoError(t, err)
	require.NoError(t, m.DeleteExpired(mustParseDay(t, "2026-08-25")))
	assert.NoFileExists(t, filepath.Join(dir, "log_2026-01-01-017.csv"))
}

func TestDeleteExpiredMissingDir(t *testing.T) {
	m, err := NewManager(filepath.Join(t.TempDir(), "gone"))
	require.NoError(t, err)
	assert.ErrorIs(t, m.DeleteExpired(time.Now()), ErrDirectory)
}
