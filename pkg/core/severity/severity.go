package severity

import (
	"fmt"
	"strings"
)

// Level 严重度等级。0 最严重，7 最冗长。
type Level int

// 等级常量，顺序与数值在进程生命周期内不可变。
const (
	Emergency Level = iota
	Alert
	Critical
	Error
	Warning
	Notice
	Informational
	Debug
)

// Off 禁用哨兵：以 Off 作为阈值的 logger 完全不产生任何文件系统副作用。
// Off 不属于等级标尺，Label 对其返回错误。
const Off Level = -1

// NumLevels 等级标尺的长度（不含 Off）。
const NumLevels = 8

// names 固定有序名称表，Parse 的扫描顺序即此表顺序。
var names = [NumLevels]string{
	"emergency",
	"alert",
	"critical",
	"error",
	"warning",
	"notice",
	"informational",
	"debug",
}

// offName 禁用哨兵的名称，在等级表全部不匹配后才参与前缀匹配。
const offName = "off"

// Parse 解析字符串为严重度等级。
//
// 输入会 TrimSpace 并转为小写，随后按表序扫描等级表，第一个以输入为
// 前缀的表项胜出；等级表全部不匹配时再尝试 "off" 的前缀（没有等级名
// 以 'o' 开头，因此无歧义）。无匹配返回 [ErrUnknownSeverity]。
func Parse(s string) (Level, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	if needle == "" {
		return 0, fmt.Errorf("empty input: %w", ErrUnknownSeverity)
	}
	for i, name := range names {
		if strings.HasPrefix(name, needle) {
			return Level(i), nil
		}
	}
	if strings.HasPrefix(offName, needle) {
		return Off, nil
	}
	return 0, fmt.Errorf("%q: %w", s, ErrUnknownSeverity)
}

// Valid 报告 l 是否在 0~7 等级标尺内。Off 不是合法等级。
func (l Level) Valid() bool {
	return l >= Emergency && l <= Debug
}

// Label 返回等级的固定小写名称。
// 超出标尺的输入（含 Off）返回 [ErrInvalidLevel]。
func (l Level) Label() (string, error) {
	if !l.Valid() {
		return "", fmt.Errorf("level %d: %w", int(l), ErrInvalidLevel)
	}
	return names[l], nil
}

// String 返回用于展示和 CSV 输出的大写名称。
// Off 返回 "OFF"，超出标尺的值返回 "LEVEL(<n>)"。
func (l Level) String() string {
	if l == Off {
		return "OFF"
	}
	if !l.Valid() {
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
	return strings.ToUpper(names[l])
}

// MarshalText 实现 encoding.TextMarshaler 接口，支持配置序列化。
func (l Level) MarshalText() ([]byte, error) {
	if l == Off {
		return []byte(offName), nil
	}
	label, err := l.Label()
	if err != nil {
		return nil, err
	}
	return []byte(label), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler 接口，
// 支持从配置文件直接反序列化严重度（前缀规则同 [Parse]）。
func (l *Level) UnmarshalText(data []byte) error {
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
