//go:build unix

// smartlogctl 是 smartlog 日志目录的维护工具。
//
// 用法:
//
//	smartlogctl <命令> [命令参数]
//
// 命令:
//
//	check <config>   解析并校验批量 logger 配置（.yaml/.yml/.json）
//	active <dir>     打印对该目录构造新 logger 将解析到的活动文件
//	sweep <dir>      在跨进程锁的保护下执行一次过期清理
//	help             显示帮助信息
//
// 退出码:
//
//	0: 命令执行成功
//	1: 命令执行失败（配置非法、I/O 错误等）
//	2: 参数错误（缺少必需参数、未知命令等）
//
// 示例:
//
//	smartlogctl check loggers.yaml          # 校验批量配置
//	smartlogctl active /var/log/app         # 查看活动文件
//	smartlogctl sweep --max-days 14 /var/log/app
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

// 版本信息（可通过 -ldflags 注入）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run())
}

// createApp 创建 CLI 应用。
func createApp() *cli.Command {
	return &cli.Command{
		Name:           "smartlogctl",
		Usage:          "smartlog 日志目录维护工具",
		Version:        fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		Commands:       createCommands(),
		DefaultCommand: "help",
		// 退出码映射统一在 run() 完成，禁止框架直接 os.Exit
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(os.Stderr, err)
			}
		},
	}
}

func run() int {
	app := createApp()

	if err := app.Run(context.Background(), os.Args); err != nil {
		var usageErr *usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(os.Stderr, "参数错误: %v\n", usageErr.msg)
			return 2
		}
		if _, ok := err.(cli.ExitCoder); ok {
			return 2
		}
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		return 1
	}
	return 0
}
