package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDir(t *testing.T) {
	tests := []struct {
		name    string
		dir     string
		want    string
		wantErr error
	}{
		{name: "普通路径", dir: "/var/log/app", want: "/var/log/app"},
		{name: "尾部斜杠被剥离", dir: "/var/log/app/", want: "/var/log/app"},
		{name: "多个尾部分隔符", dir: "/var/log/app///", want: "/var/log/app"},
		{name: "反斜杠也被剥离", dir: `/var/log/app\`, want: "/var/log/app"},
		{name: "冗余段被 Clean", dir: "/var/log/./app", want: "/var/log/app"},
		{name: "根目录保留", dir: "/", want: "/"},
		{name: "全部由分隔符组成", dir: "///", want: "/"},
		{name: "相对路径", dir: "logs/app", want: "logs/app"},
		{name: "空路径", dir: "", wantErr: ErrEmptyPath},
		{name: "包含空字节", dir: "/var/log\x00/app", wantErr: ErrNullByte},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeDir(tt.dir)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEnsureDirWithPerm(t *testing.T) {
	t.Run("递归创建", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "a", "b", "c")
		require.NoError(t, EnsureDirWithPerm(dir, 0750))
		assert.DirExists(t, dir)
	})

	t.Run("已存在时为空操作", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, EnsureDirWithPerm(dir, 0750))
	})

	t.Run("缺少所有者执行位", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "noexec")
		err := EnsureDirWithPerm(dir, 0640)
		require.ErrorIs(t, err, ErrInvalidPerm)
		assert.NoDirExists(t, dir)
	})

	t.Run("空路径", func(t *testing.T) {
		require.ErrorIs(t, EnsureDirWithPerm("", 0750), ErrEmptyPath)
	})

	t.Run("位置被文件占据", func(t *testing.T) {
		occupied := filepath.Join(t.TempDir(), "occupied")
		require.NoError(t, os.WriteFile(occupied, []byte("x"), 0644))
		require.Error(t, EnsureDirWithPerm(occupied, 0750))
	})
}
