// Package fsutil 提供日志目录相关的路径校验和目录创建工具。
//
// 本包只服务于 smartlog 内部：NormalizeDir 负责目录路径的格式净化
// （空路径、空字节、尾部分隔符剥离），EnsureDirWithPerm 负责按配置
// 权限创建目录。不做沙箱隔离，调用方传入的目录视为可信配置。
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrEmptyPath 表示必需的目录参数为空。
	ErrEmptyPath = errors.New("fsutil: path is required")

	// ErrNullByte 表示路径中包含空字节（\x00），Linux 内核会在空字节处
	// 截断路径，导致 Go 代码与操作系统看到的路径不一致。
	ErrNullByte = errors.New("fsutil: path contains null byte")

	// ErrInvalidPerm 表示目录权限无效（缺少所有者执行位，目录无法遍历）。
	ErrInvalidPerm = errors.New("fsutil: invalid directory permission")
)

// NormalizeDir 校验并规范化日志目录路径。
//
// 功能：
//   - 拒绝空路径和包含空字节的路径
//   - 剥离尾部的 '/' 与 '\'（配置文件中手写路径常见的尾部分隔符）
//   - filepath.Clean 消除 "." 和冗余分隔符
//
// 剥离尾部分隔符后如果只剩根目录 "/"，保留根目录本身。
func NormalizeDir(dir string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("directory is required: %w", ErrEmptyPath)
	}
	if strings.ContainsRune(dir, 0) {
		return "", fmt.Errorf("directory contains null byte: %w", ErrNullByte)
	}

	trimmed := strings.TrimRight(dir, `/\`)
	if trimmed == "" {
		// 输入全部由分隔符组成，如 "/" 或 "///"
		trimmed = string(filepath.Separator)
	}
	return filepath.Clean(trimmed), nil
}

// EnsureDirWithPerm 确保目录存在，不存在时按指定权限递归创建。
//
// 权限必须包含所有者执行位（0100），否则目录无法进入和遍历。
// 目录已存在时不会修改其权限。
func EnsureDirWithPerm(dir string, perm os.FileMode) error {
	if dir == "" {
		return fmt.Errorf("directory is required: %w", ErrEmptyPath)
	}
	if perm&0100 == 0 {
		return fmt.Errorf("directory permission %04o missing owner execute bit: %w", perm, ErrInvalidPerm)
	}
	return os.MkdirAll(dir, perm)
}
