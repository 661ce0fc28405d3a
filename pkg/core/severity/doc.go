// Package severity 定义 smartlog 的八级严重度标尺。
//
// 标尺为 syslog 风格的固定有序表：emergency(0) 最严重，debug(7) 最冗长，
// 数值越小越严重。另有独立的禁用哨兵 [Off]，不属于等级标尺。
//
// # 前缀解析
//
// [Parse] 对输入做大小写不敏感的前缀匹配，按表序从低到高扫描，
// 第一个以输入为前缀的表项胜出：
//
//	severity.Parse("err")  // -> Error
//	severity.Parse("e")    // -> Emergency（表序靠前，刻意如此）
//	severity.Parse("c")    // -> Critical
//	severity.Parse("off")  // -> Off
//
// 扫描顺序的平局规则是冻结契约，任何重排都会改变已有配置文件的语义。
//
// # 配置序列化
//
// Level 实现 encoding.TextMarshaler/TextUnmarshaler，可在 YAML/JSON
// 配置中直接以字符串形式出现。
package severity
