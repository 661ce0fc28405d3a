package smartlog

import (
	"context"
	"fmt"
	"sort"
)

// Registry 具名 Logger 的集合。
//
// 由应用入口显式持有并传递，不提供进程级单例——"按名取 logger" 的
// 便利保留，隐藏的全局可变状态不保留。创建后集合固定。
type Registry struct {
	loggers map[string]*Logger
}

// NewRegistry 按批量配置一次性构造全部 Logger。
//
// 全有或全无：任一构造失败即关闭已构造的实例并返回错误，
// 不存在部分可用的注册表。构造顺序按名称排序，保证确定性。
func NewRegistry(ctx context.Context, configs map[string]Config, opts ...LoggerOption) (*Registry, error) {
	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	sort.Strings(names)

	r := &Registry{loggers: make(map[string]*Logger, len(configs))}
	for _, name := range names {
		lg, err := New(ctx, name, configs[name], opts...)
		if err != nil {
			_ = r.Close()
			return nil, err
		}
		r.loggers[name] = lg
	}
	return r, nil
}

// Get 按名称查找 Logger。查找本身永不失败；名称不存在时返回 (nil, false)。
func (r *Registry) Get(name string) (*Logger, bool) {
	lg, ok := r.loggers[name]
	return lg, ok
}

// Names 返回已注册的 logger 名称（升序）。
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.loggers))
	for name := range r.loggers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close 关闭全部 Logger（各自执行最后一次 flush）。
// 总是尝试关闭所有实例，返回遇到的第一个错误。
func (r *Registry) Close() error {
	var first error
	for _, name := range r.namesSorted() {
		if err := r.loggers[name].Close(); err != nil && first == nil {
			first = fmt.Errorf("close logger %q: %w", name, err)
		}
	}
	return first
}

func (r *Registry) namesSorted() []string {
	return r.Names()
}
