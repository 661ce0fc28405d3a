// Package lockfile 提供基于 flock(2) 的跨进程建议锁。
//
// 每个日志目录对应一个固定名称的锁文件（[LockFileName]），锁文件与任何
// 日志文件都不同名。持有锁期间文件内容为 "Locked"，释放后为 "Unlocked"；
// 内容只是人类可读的状态标记，除存在性和锁状态外没有语义。
//
// 锁的排他性覆盖共享同一锁文件路径的所有进程与线程，用于串行化日志
// 文件的创建、轮转判定、追加写入和过期清理，保证两个写入方不会交错
// 写坏同一个活动文件。
//
// # 阻塞与取消
//
// [Mutex.Acquire] 是本库唯一的阻塞操作。实现上使用 LOCK_NB 非阻塞尝试
// 加 10ms 轮询，而不是阻塞式 LOCK_EX：阻塞在系统调用里的 goroutine 无法
// 被 context 取消，轮询以一个有界的延迟换来干净的取消语义。
//
// # 平台
//
// 仅支持提供 flock(2) 的平台（Linux、macOS、BSD）。
package lockfile
