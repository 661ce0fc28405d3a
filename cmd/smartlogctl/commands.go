//go:build unix

package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/smartlog/pkg/core/lockfile"
	"github.com/omeyang/smartlog/pkg/core/logfile"
	"github.com/omeyang/smartlog/pkg/smartlog"
)

// usageError 参数错误，映射到退出码 2。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

// 创建所有子命令。
func createCommands() []*cli.Command {
	return []*cli.Command{
		createCheckCommand(),
		createActiveCommand(),
		createSweepCommand(),
	}
}

// createCheckCommand 创建 check 子命令（校验批量配置）。
func createCheckCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Aliases:   []string{"c"},
		Usage:     "解析并校验批量 logger 配置",
		ArgsUsage: "<config.(yaml|json)>",
		Action: func(_ context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return &usageError{msg: "缺少配置文件路径"}
			}
			return cmdCheck(path)
		},
	}
}

// createActiveCommand 创建 active 子命令（解析活动文件）。
func createActiveCommand() *cli.Command {
	return &cli.Command{
		Name:      "active",
		Aliases:   []string{"a"},
		Usage:     "打印对该目录构造新 logger 将解析到的活动文件",
		ArgsUsage: "<dir>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "max-size",
				Aliases: []string{"s"},
				Usage:   "单个日志文件大小上限（字节）",
				Value:   int(logfile.DefaultMaxFileSize),
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			dir := cmd.Args().First()
			if dir == "" {
				return &usageError{msg: "缺少日志目录"}
			}
			return cmdActive(dir, cmd.Int("max-size"))
		},
	}
}

// createSweepCommand 创建 sweep 子命令（过期清理）。
func createSweepCommand() *cli.Command {
	return &cli.Command{
		Name:      "sweep",
		Aliases:   []string{"w"},
		Usage:     "在跨进程锁的保护下执行一次过期清理",
		ArgsUsage: "<dir>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "max-days",
				Aliases: []string{"d"},
				Usage:   "日志保留天数",
				Value:   logfile.DefaultMaxDays,
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Aliases: []string{"t"},
				Usage:   "等待跨进程锁的超时时间",
				Value:   30 * time.Second,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir := cmd.Args().First()
			if dir == "" {
				return &usageError{msg: "缺少日志目录"}
			}
			return cmdSweep(ctx, dir, cmd.Int("max-days"), cmd.Duration("timeout"))
		},
	}
}

// cmdCheck 解析配置并打印每个 logger 的摘要。
// 解析阶段已覆盖键名、严重度与目录的全部校验。
func cmdCheck(path string) error {
	configs, err := smartlog.LoadConfigs(path)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cfg := configs[name]
		fmt.Printf("%s:\n", name)
		fmt.Printf("  directory:          %s\n", cfg.Directory)
		fmt.Printf("  severity threshold: %s\n", cfg.SeverityThreshold)
		fmt.Printf("  smart threshold:    %s\n", cfg.SmartThreshold)
		fmt.Printf("  max file size:      %d bytes\n", cfg.MaxFileSize)
		fmt.Printf("  max days:           %d\n", cfg.MaxDays)
		fmt.Printf("  file perm:          %04o\n", cfg.FilePerm)
	}
	fmt.Printf("ok: %d logger(s)\n", len(configs))
	return nil
}

// cmdActive 解析目录当前应写入的活动文件并打印路径。
// 只读操作：不创建目录也不触碰锁。
func cmdActive(dir string, maxSize int) error {
	mgr, err := logfile.NewManager(dir, logfile.WithMaxFileSize(int64(maxSize)))
	if err != nil {
		return err
	}
	path, err := mgr.ResolveActive(time.Now())
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

// cmdSweep 持锁执行一次过期清理。
func cmdSweep(ctx context.Context, dir string, maxDays int, timeout time.Duration) error {
	mgr, err := logfile.NewManager(dir, logfile.WithMaxDays(maxDays))
	if err != nil {
		return err
	}

	lock, err := lockfile.New(mgr.Dir())
	if err != nil {
		return err
	}
	defer lock.Close()

	lockCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := lock.Acquire(lockCtx); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}

	sweepErr := mgr.DeleteExpired(time.Now())
	if rerr := lock.Release(); rerr != nil && sweepErr == nil {
		sweepErr = rerr
	}
	if sweepErr != nil {
		return sweepErr
	}
	fmt.Printf("swept %s (max-days %d)\n", mgr.Dir(), maxDays)
	return nil
}
