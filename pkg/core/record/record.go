// Package record 定义一条待写日志（LogRecord）及其 CSV 行编码。
//
// Record 构造后不可变。序号在单个 logger 内严格递增，是跨严重度队列
// 合并时的稳定排序键（时间戳精度可能相同，序号不会）。
//
// # CSV 行格式
//
// 列顺序固定：timestamp, SEVERITY, message, location, trace, data。
// location 形如 "file(line)"；非空的调用点上下文标签以 "context: " 前缀
// 并入 message 列（CSV 格式没有独立的 context 列）。引号与转义交由
// encoding/csv 按标准规则处理。
//
// # 数据哨兵
//
// "未提供数据" 与 "显式提供了空值/nil" 是两回事：后者要序列化进 data
// 列（nil 写作 "null"，空串写作 ""），前者 data 列留空。Record 用
// HasData 标记区分两者。
package record

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/omeyang/smartlog/pkg/core/severity"
)

// Record 一条待写日志。构造后不可变。
type Record struct {
	// Seq 单 logger 内严格递增的序号，flush 合并排序的稳定键。
	Seq uint64

	// Time 入队时刻。
	Time time.Time

	// Level 严重度等级。
	Level severity.Level

	// Context 可选的调用点上下文标签（如所在函数名）。
	Context string

	// Message 消息正文。来源于错误时为 "type: message" 格式。
	Message string

	// Trace 可选的堆栈文本（错误桥合成）。
	Trace string

	// Data 序列化后的附加数据；仅当 HasData 为 true 时有意义。
	Data string

	// HasData 区分 "未提供数据" 与 "显式提供了空值"。
	HasData bool

	// Location 来源位置，形如 "file(line)"；未知时为空串。
	Location string
}

// FormatLocation 构造 "file(line)" 形式的来源位置。
func FormatLocation(file string, line int) string {
	if file == "" {
		return ""
	}
	return fmt.Sprintf("%s(%d)", file, line)
}

// EncodeData 将任意附加数据序列化为 data 列文本。
//
// 优先 JSON；不可序列化的值退化为 %+v 文本表示。nil 序列化为 "null"，
// 保证显式空值与未提供数据可区分。
func EncodeData(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(data)
}

// Row 将记录编码为固定列序的 CSV 行：
// timestamp, SEVERITY, message, location, trace, data。
//
// dateFormat 为 Go 时间布局；非空 Context 前缀进 message 列。
func (r Record) Row(dateFormat string) []string {
	msg := r.Message
	if r.Context != "" {
		msg = r.Context + ": " + msg
	}
	data := ""
	if r.HasData {
		data = r.Data
	}
	return []string{
		r.Time.Format(dateFormat),
		r.Level.String(),
		msg,
		r.Location,
		r.Trace,
		data,
	}
}
