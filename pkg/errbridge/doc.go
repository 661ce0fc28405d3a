// Package errbridge 把进程级的错误通知转译为对指定 Logger 的日志调用。
//
// 桥接器位于日志核心之外：核心对它一无所知，它只通过 Logger 的公开
// 方法工作。三类通知来源——运行时错误、goroutine panic、进程致命
// 信号——各自映射到固定的严重度：
//
//	KindFatal        → emergency
//	KindPanic        → alert
//	KindRuntimeError → alert
//	KindWarning      → warning
//	KindNotice       → notice
//	其他             → warning（附诊断说明）
//
// 来源位置（file/line）取自触发事件本身，不在核心内做栈回溯。
// panic 捕获时由桥接器合成堆栈文本并随记录写入 trace 列。
package errbridge
