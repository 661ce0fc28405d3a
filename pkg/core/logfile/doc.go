// Package logfile 管理一个逻辑日志目录：活动文件解析、按大小轮转、
// 追加句柄和按天数的过期清理。
//
// # 文件命名
//
// 活动文件命名为 log_<YYYY-MM-DD>-<NNN>.csv，NNN 为零填充三位的轮转
// 计数器，当天从 000 开始。解析规则：候选文件存在且超过大小上限时
// 计数器递增，停在第一个不存在或未超限的候选上。
//
// # 轮转时机
//
// 轮转判定只在 [Manager.ResolveActive] 时发生一次（即 logger 构造时），
// 不在每次 flush 时重复——目录扫描和 stat 的成本按实例生命周期摊销，
// 这是刻意的成本/安全取舍。
//
// # 过期清理
//
// [Manager.DeleteExpired] 按文件名内嵌日期判断：严格早于
// ref - MaxDays*24h 的文件被删除，恰好等于边界的保留；文件名不符合
// log_<date>[-NNN].csv 模式的一律忽略。清理应在跨进程锁的保护下调用，
// 本包自身不加锁。
package logfile
