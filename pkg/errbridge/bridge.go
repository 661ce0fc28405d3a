package errbridge

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"

	"github.com/omeyang/smartlog/pkg/core/severity"
	"github.com/omeyang/smartlog/pkg/smartlog"
)

// Kind 通知类别。
type Kind int

// 支持的通知类别。
const (
	// KindRuntimeError 运行时错误类通知。
	KindRuntimeError Kind = iota

	// KindPanic goroutine panic。
	KindPanic

	// KindFatal 进程级致命事件（致命信号、退出前检查）。
	KindFatal

	// KindWarning 警告类通知。
	KindWarning

	// KindNotice 提示类通知。
	KindNotice
)

// String 返回类别的展示名称。
func (k Kind) String() string {
	switch k {
	case KindRuntimeError:
		return "runtime-error"
	case KindPanic:
		return "panic"
	case KindFatal:
		return "fatal"
	case KindWarning:
		return "warning"
	case KindNotice:
		return "notice"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// severityFor 类别到严重度的固定映射表。
// 不认识的类别降级为 warning，diag 返回附加的诊断说明。
func severityFor(k Kind) (level severity.Level, diag string) {
	switch k {
	case KindFatal:
		return severity.Emergency, ""
	case KindPanic, KindRuntimeError:
		return severity.Alert, ""
	case KindWarning:
		return severity.Warning, ""
	case KindNotice:
		return severity.Notice, ""
	default:
		return severity.Warning, fmt.Sprintf("unrecognized notification kind %d", int(k))
	}
}

// maxStackSize panic 堆栈合成的缓冲区上限。
const maxStackSize = 64 * 1024

// Bridge 已安装到某个 Logger 上的错误桥。
//
// 方法是并发安全的（Logger 自身并发安全，Bridge 无自有可变状态）。
type Bridge struct {
	logger  *smartlog.Logger
	filter  func(Kind) bool
	echo    io.Writer
	repanic bool
}

// Option Bridge 配置选项函数。
type Option func(*Bridge)

// WithFilter 设置类别过滤器：返回 false 的类别被忽略。默认全部捕获。
func WithFilter(fn func(Kind) bool) Option {
	return func(b *Bridge) {
		b.filter = fn
	}
}

// WithEcho 设置消息镜像输出（通常为 os.Stderr）。默认不镜像。
func WithEcho(w io.Writer) Option {
	return func(b *Bridge) {
		b.echo = w
	}
}

// WithRepanic 使 Recover 在记录 panic 之后重新抛出。
// 默认吞掉 panic（goroutine 正常结束）。
func WithRepanic() Option {
	return func(b *Bridge) {
		b.repanic = true
	}
}

// Install 把错误桥安装到目标 Logger 上。
func Install(logger *smartlog.Logger, opts ...Option) (*Bridge, error) {
	if logger == nil {
		return nil, ErrNilLogger
	}
	b := &Bridge{logger: logger}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b, nil
}

// Notify 把一条通知转译为日志调用。
//
// 消息格式为 "type: message"；file/line 来自触发事件，由调用方提供，
// 未知时传空串与 0。被过滤器拒绝的类别是空操作。
func (b *Bridge) Notify(kind Kind, err error, file string, line int) error {
	if err == nil {
		return nil
	}
	if b.filter != nil && !b.filter(kind) {
		return nil
	}

	level, diag := severityFor(kind)
	msg := fmt.Sprintf("%T: %v", err, err)
	if diag != "" {
		msg = diag + ": " + msg
	}

	b.mirror(level, msg)
	return b.logger.Log(level, msg, smartlog.WithLocation(file, line))
}

// Recover 捕获当前 goroutine 的 panic 并记录为 KindPanic 通知。
//
// 必须直接 defer 调用。记录包含合成的堆栈文本（trace 列）和 panic
// 触发点的 file/line。未发生 panic 时为空操作。[WithRepanic] 使其在
// 记录后重新抛出，否则 panic 被吞掉、goroutine 正常结束。
func (b *Bridge) Recover() {
	r := recover()
	if r == nil {
		return
	}

	if b.filter == nil || b.filter(KindPanic) {
		msg := fmt.Sprintf("%T: %v", r, r)
		file, line := panicSite()
		b.mirror(severity.Alert, msg)
		_ = b.logger.Log(severity.Alert, msg,
			smartlog.WithLocation(file, line),
			smartlog.WithTrace(captureStack()),
		)
		_ = b.logger.Flush(context.Background())
	}

	if b.repanic {
		panic(r)
	}
}

// Go 启动一个安装了 Recover 的 goroutine 运行 fn。
func (b *Bridge) Go(fn func()) {
	go func() {
		defer b.Recover()
		fn()
	}()
}

// WatchSignals 阻塞等待进程致命信号。
//
// 收到信号时以 emergency 级记录信号名并立即 flush，返回收到的信号；
// ctx 取消时返回 ctx.Err()。调用方决定后续动作（退出、转发），桥接器
// 不调用 os.Exit。通常在专用 goroutine 中运行。
func (b *Bridge) WatchSignals(ctx context.Context, signals ...os.Signal) (os.Signal, error) {
	if len(signals) == 0 {
		return nil, ErrNoSignals
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, signals...)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		msg := "fatal signal: " + sig.String()
		b.mirror(severity.Emergency, msg)
		_ = b.logger.Emergency(msg)
		if err := b.logger.Flush(ctx); err != nil {
			return sig, err
		}
		return sig, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// mirror 把消息镜像到回显输出。回显失败不影响日志路径。
func (b *Bridge) mirror(level severity.Level, msg string) {
	if b.echo == nil {
		return
	}
	fmt.Fprintf(b.echo, "[%s] %s\n", level, msg)
}

// captureStack 合成当前 goroutine 的堆栈文本，截断保护到 64KB。
func captureStack() string {
	buf := make([]byte, 8*1024)
	for {
		n := runtime.Stack(buf, false)
		if n < len(buf) || len(buf) >= maxStackSize {
			return string(buf[:n])
		}
		buf = make([]byte, len(buf)*2)
	}
}

// panicSite 定位 panic 触发点的 file/line。
//
// Callers 的 skip 已经越过 Recover 自身的栈帧，之后只剩 runtime 的
// panic 派发帧挡在触发点前面；第一个非 runtime 帧就是 panic 触发点。
// 不按包名过滤——触发点完全可能位于任何包内。
func panicSite() (string, int) {
	var pcs [32]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if frame.File == "" {
			break
		}
		if !strings.HasPrefix(frame.Function, "runtime.") {
			return frame.File, frame.Line
		}
		if !more {
			break
		}
	}
	return "", 0
}
