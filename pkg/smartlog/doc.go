// Package smartlog 实现带"智能过滤"的同步文件日志核心。
//
// # 核心机制
//
// 每个 [Logger] 按严重度持有八个内存队列，Log 只入队、绝不触碰文件
// 系统；Flush 时按智能规则选取记录，在跨进程锁的保护下以 CSV 行追加
// 写入活动日志文件，随后无条件重建队列。
//
// 智能规则：一旦某条记录的严重度达到 SmartThreshold（数值上小于等于，
// 即至少同样严重），整个缓冲窗口升级为全量输出——包括升级事件之前
// 已入队的 debug 级面包屑；否则只输出严重度不超过 SeverityThreshold
// 的记录，其余在 Flush 时被永久丢弃。升级标志以 flush 窗口为作用域，
// Flush 时复位。
//
// 这正是队列按严重度拆分的原因：必须时刻缓冲所有严重度的记录，
// 而不是只保留通常可见的子集。
//
// # 顺序保证
//
// 单个 Logger 内，入队顺序决定序号，Flush 总是按序号升序输出，
// 与记录来自哪个严重度队列无关。不同 Logger 之间没有相对顺序保证。
//
// # 并发模型
//
// 同步设计：没有内部后台 goroutine，所有操作在调用方 goroutine 上
// 完成，唯一的阻塞点是跨进程锁的获取（可被 ctx 取消）。Logger 的
// 方法是并发安全的：序号递增与入队在同一把内部锁下原子完成。
//
// # 失败处理
//
// 构造失败是致命的（实例不可注册）；Flush 的写入错误在释放跨进程锁
// 之后上抛，该批次丢失、不重试——队列无论成败都已重建，避免反复
// 失败时的无界增长。除"未持锁释放"（告警回调上报）外，没有任何 I/O
// 失败被静默吞掉，也没有任何自动重试。
//
// # 禁用哨兵
//
// SeverityThreshold 为 severity.Off 的 Logger 是完全空操作：不创建
// 目录、锁文件和日志文件，不执行过期清理，没有任何文件系统副作用。
package smartlog
