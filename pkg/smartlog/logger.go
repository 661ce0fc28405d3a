package smartlog

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/omeyang/smartlog/internal/fsutil"
	"github.com/omeyang/smartlog/pkg/core/lockfile"
	"github.com/omeyang/smartlog/pkg/core/logfile"
	"github.com/omeyang/smartlog/pkg/core/record"
	"github.com/omeyang/smartlog/pkg/core/severity"
)

// Logger 一个具名日志实例。
//
// 生命周期 Uninitialized → Active → Closed：由 [New] 构造进入 Active，
// [Logger.Close] 执行最后一次 flush 并释放文件句柄后进入 Closed。
// 阈值为 severity.Off 的实例是退化的 Active：所有变更操作均为空操作。
//
// 方法是并发安全的；序号递增与入队在同一把内部锁下原子完成。
type Logger struct {
	name string
	cfg  Config
	off  bool

	mu      sync.Mutex
	closed  bool
	verbose bool
	seq     uint64
	queues  [severity.NumLevels][]record.Record

	// flushMu 串行化整个 flush（选批 + 写出）：跨进程锁非可重入，
	// 并发 flush 不能在对方的 Acquire/Release 之间穿插；选批也必须
	// 在此锁内完成，否则后取的批次可能先落盘，破坏序号升序
	flushMu sync.Mutex

	mgr  *logfile.Manager
	lock *lockfile.Mutex

	onError func(error)

	// 可注入的时钟与锁内写入前钩子，仅用于测试
	nowFn       func() time.Time
	beforeWrite func()
}

// LoggerOption Logger 配置选项函数。
type LoggerOption func(*Logger)

// WithOnError 设置内部错误回调。
//
// 用于接收 flush 写入失败等诊断通知，默认为 nil（静默，错误仍通过
// 返回值上抛）。回调不得再写入同一 Logger，避免递归。
func WithOnError(fn func(error)) LoggerOption {
	return func(l *Logger) {
		l.onError = fn
	}
}

// New 构造一个具名 Logger。
//
// 阈值为 severity.Off 时只校验并规范化目录路径，不触碰文件系统。
// 否则依次：创建目录 → 获取跨进程锁 → 解析并打开活动文件 → 过期
// 清理 → 放锁；锁内任一步失败都先放锁再上抛。任何构造失败都是
// 致命的（包装为 [ErrConstruction]），实例不得投入使用。
//
// ctx 只约束构造期间的锁等待。
func New(ctx context.Context, name string, cfg Config, opts ...LoggerOption) (*Logger, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, constructionErr(name, err)
	}

	dir, err := fsutil.NormalizeDir(cfg.Directory)
	if err != nil {
		return nil, constructionErr(name, err)
	}
	cfg.Directory = dir

	l := &Logger{
		name:  name,
		cfg:   cfg,
		off:   cfg.SeverityThreshold == severity.Off,
		nowFn: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}

	// Off：完全不触碰文件系统，直接成为退化 Active
	if l.off {
		return l, nil
	}

	mgr, err := logfile.NewManager(dir,
		logfile.WithMaxFileSize(cfg.MaxFileSize),
		logfile.WithMaxDays(cfg.MaxDays),
		logfile.WithFilePerm(cfg.FilePerm),
	)
	if err != nil {
		return nil, constructionErr(name, err)
	}
	l.mgr = mgr

	lock, err := lockfile.New(mgr.Dir(), lockfile.WithOnWarn(l.warn))
	if err != nil {
		return nil, constructionErr(name, err)
	}
	l.lock = lock

	if err := l.initFiles(ctx); err != nil {
		_ = l.mgr.Close()
		_ = l.lock.Close()
		return nil, constructionErr(name, err)
	}
	return l, nil
}

// initFiles 执行构造期的文件系统初始化。锁内失败先放锁再返回，绝不泄漏锁。
func (l *Logger) initFiles(ctx context.Context) error {
	if err := l.mgr.EnsureDirectory(); err != nil {
		return err
	}
	if err := l.lock.Acquire(ctx); err != nil {
		return err
	}

	now := l.nowFn()
	if _, err := l.mgr.ResolveActive(now); err != nil {
		_ = l.lock.Release()
		return err
	}
	if err := l.mgr.Open(); err != nil {
		_ = l.lock.Release()
		return err
	}
	if err := l.mgr.DeleteExpired(now); err != nil {
		_ = l.lock.Release()
		return err
	}
	return l.lock.Release()
}

// Name 返回 logger 名称。
func (l *Logger) Name() string {
	return l.name
}

// ActiveFile 返回当前活动日志文件路径；Off 实例返回空串。
func (l *Logger) ActiveFile() string {
	if l.off {
		return ""
	}
	return l.mgr.ActivePath()
}

// =============================================================================
// 记录入队
// =============================================================================

// recordParams 单次 Log 调用的可选参数。
type recordParams struct {
	data    any
	hasData bool
	file    string
	line    int
	context string
	trace   string
}

// RecordOption 单条记录的可选参数函数。
type RecordOption func(*recordParams)

// WithData 附加任意数据负载。
// 显式传入 nil 或空值也会被序列化进 data 列，与"未提供数据"可区分。
func WithData(v any) RecordOption {
	return func(p *recordParams) {
		p.data = v
		p.hasData = true
	}
}

// WithLocation 显式提供来源位置（调用点的 file/line，由调用边界解析）。
func WithLocation(file string, line int) RecordOption {
	return func(p *recordParams) {
		p.file = file
		p.line = line
	}
}

// WithContext 附加调用点上下文标签（如所在函数名），写出时前缀进消息列。
func WithContext(label string) RecordOption {
	return func(p *recordParams) {
		p.context = label
	}
}

// WithTrace 附加堆栈文本（通常由错误桥合成）。
func WithTrace(trace string) RecordOption {
	return func(p *recordParams) {
		p.trace = trace
	}
}

// Log 以指定严重度入队一条消息。
//
// Closed 或 Off 时为空操作。level 不在等级标尺内返回
// [severity.ErrInvalidLevel]。level 达到 SmartThreshold（数值小于等于）
// 时将当前缓冲窗口置为升级状态。只操作内存，绝不触碰文件系统和锁，
// 入队不会因 I/O 失败。
func (l *Logger) Log(level severity.Level, msg string, opts ...RecordOption) error {
	if !level.Valid() {
		return fmt.Errorf("smartlog: logger %q: level %d: %w", l.name, int(level), severity.ErrInvalidLevel)
	}

	var p recordParams
	for _, opt := range opts {
		if opt != nil {
			opt(&p)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed || l.off {
		return nil
	}

	if level <= l.cfg.SmartThreshold {
		l.verbose = true
	}

	l.seq++
	rec := record.Record{
		Seq:      l.seq,
		Time:     l.nowFn(),
		Level:    level,
		Context:  p.context,
		Message:  msg,
		Trace:    p.trace,
		HasData:  p.hasData,
		Location: record.FormatLocation(p.file, p.line),
	}
	if p.hasData {
		rec.Data = record.EncodeData(p.data)
	}
	l.queues[level] = append(l.queues[level], rec)
	return nil
}

// Emergency 以 emergency 级入队一条消息。
func (l *Logger) Emergency(msg string, opts ...RecordOption) error {
	return l.Log(severity.Emergency, msg, opts...)
}

// Alert 以 alert 级入队一条消息。
func (l *Logger) Alert(msg string, opts ...RecordOption) error {
	return l.Log(severity.Alert, msg, opts...)
}

// Critical 以 critical 级入队一条消息。
func (l *Logger) Critical(msg string, opts ...RecordOption) error {
	return l.Log(severity.Critical, msg, opts...)
}

// Error 以 error 级入队一条消息。
func (l *Logger) Error(msg string, opts ...RecordOption) error {
	return l.Log(severity.Error, msg, opts...)
}

// Warning 以 warning 级入队一条消息。
func (l *Logger) Warning(msg string, opts ...RecordOption) error {
	return l.Log(severity.Warning, msg, opts...)
}

// Notice 以 notice 级入队一条消息。
func (l *Logger) Notice(msg string, opts ...RecordOption) error {
	return l.Log(severity.Notice, msg, opts...)
}

// Informational 以 informational 级入队一条消息。
func (l *Logger) Informational(msg string, opts ...RecordOption) error {
	return l.Log(severity.Informational, msg, opts...)
}

// Debug 以 debug 级入队一条消息。
func (l *Logger) Debug(msg string, opts ...RecordOption) error {
	return l.Log(severity.Debug, msg, opts...)
}

// =============================================================================
// Flush 与关闭
// =============================================================================

// Flush 写出当前缓冲窗口并重建队列。
//
// 选取规则：窗口处于升级状态时输出全部八个队列，否则只输出严重度
// 不超过 SeverityThreshold 的记录，其余永久丢弃。选中记录按序号
// 升序合并后，在跨进程锁内整批追加写出；写入错误在放锁之后返回。
//
// 队列与升级标志无论写入成败都被重建——失败的批次丢失而非重试，
// 避免反复失败时队列无界增长。Off 与 Closed 实例为空操作。
//
// 并发 flush 串行执行：批次的选取在写串行锁内完成，后取的批次不可能
// 先于先取的批次落盘，文件内容跨 flush 保持序号升序。
func (l *Logger) Flush(ctx context.Context) error {
	l.flushMu.Lock()
	defer l.flushMu.Unlock()

	l.mu.Lock()
	if l.off || l.closed {
		l.mu.Unlock()
		return nil
	}
	batch := l.takeBatchLocked()
	l.mu.Unlock()

	return l.writeBatch(ctx, batch)
}

// takeBatchLocked 选取当前窗口要写出的记录并重建窗口。调用方必须持有 l.mu。
func (l *Logger) takeBatchLocked() []record.Record {
	var batch []record.Record
	for lv := 0; lv < severity.NumLevels; lv++ {
		if l.verbose || severity.Level(lv) <= l.cfg.SeverityThreshold {
			batch = append(batch, l.queues[lv]...)
		}
	}

	// 窗口无条件重建：未选中的记录就此丢弃
	l.queues = [severity.NumLevels][]record.Record{}
	l.verbose = false

	// 序号唯一，升序即恢复跨严重度的真实时间顺序
	sort.Slice(batch, func(i, j int) bool { return batch[i].Seq < batch[j].Seq })
	return batch
}

// writeBatch 在跨进程锁内将一批记录写入活动文件。调用方必须持有
// l.flushMu。锁在写入错误时同样被释放，错误在放锁之后返回。
func (l *Logger) writeBatch(ctx context.Context, batch []record.Record) error {
	if len(batch) == 0 {
		return nil
	}

	if err := l.lock.Acquire(ctx); err != nil {
		l.report(err)
		return fmt.Errorf("smartlog: logger %q: %w", l.name, err)
	}

	rows := make([][]string, len(batch))
	for i, rec := range batch {
		rows[i] = rec.Row(l.cfg.DateFormat)
	}

	if l.beforeWrite != nil {
		l.beforeWrite()
	}
	werr := l.mgr.Append(rows)

	if rerr := l.lock.Release(); rerr != nil && werr == nil {
		werr = rerr
	}
	if werr != nil {
		l.report(werr)
		return fmt.Errorf("smartlog: logger %q: %w", l.name, werr)
	}
	return nil
}

// Close 执行最后一次 flush，随后释放文件句柄与锁资源。
//
// 幂等：已关闭的实例再次 Close 是空操作，不产生任何写入。
// Off 实例直接进入 Closed，无文件系统副作用。
func (l *Logger) Close() error {
	l.flushMu.Lock()
	defer l.flushMu.Unlock()

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	if l.off {
		l.mu.Unlock()
		return nil
	}
	batch := l.takeBatchLocked()
	l.mu.Unlock()

	err := l.writeBatch(context.Background(), batch)
	if cerr := l.mgr.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if lerr := l.lock.Close(); lerr != nil && err == nil {
		err = lerr
	}
	return err
}

func (l *Logger) report(err error) {
	if l.onError != nil && err != nil {
		l.onError(err)
	}
}

func (l *Logger) warn(msg string) {
	if l.onError != nil {
		l.onError(fmt.Errorf("smartlog: logger %q: %s", l.name, msg))
	}
}

func constructionErr(name string, err error) error {
	return fmt.Errorf("%w: logger %q: %w", ErrConstruction, name, err)
}
