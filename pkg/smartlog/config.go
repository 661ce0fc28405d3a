package smartlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	kjson "github.com/knadh/koanf/parsers/json"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/omeyang/smartlog/pkg/core/logfile"
	"github.com/omeyang/smartlog/pkg/core/severity"
)

// DefaultDateFormat 默认时间戳布局。
const DefaultDateFormat = "2006-01-02 15:04:05.000"

// Config 单个 Logger 的配置，构造后固定，不支持热更新。
//
// 注意：Config 的零值不可直接使用（severity.Level 的零值是 Emergency），
// 应从 [DefaultConfig] 出发修改，或经由批量配置加载。
type Config struct {
	// Directory 日志目录（必填）。尾部分隔符会被剥离。
	Directory string

	// SeverityThreshold 常规可见阈值：数值小于等于该值（至少同样严重）
	// 的记录在未升级时被写出。severity.Off 使整个实例成为空操作。
	SeverityThreshold severity.Level

	// SmartThreshold 智能升级阈值：出现数值小于等于该值的记录时，
	// 当前缓冲窗口升级为全量输出。severity.Off 表示永不升级。
	SmartThreshold severity.Level

	// MaxFileSize 单个日志文件大小上限（字节），零值取默认 100,000,000。
	MaxFileSize int64

	// MaxDays 日志保留天数，零值取默认 7。
	MaxDays int

	// DateFormat 时间戳的 Go 时间布局，零值取 [DefaultDateFormat]。
	DateFormat string

	// FilePerm 日志文件创建权限，零值取默认 0644。
	FilePerm os.FileMode
}

// DefaultConfig 返回指向 dir 的默认配置：
// 阈值 informational，升级阈值 notice，100MB 上限，保留 7 天。
func DefaultConfig(dir string) Config {
	return Config{
		Directory:         dir,
		SeverityThreshold: severity.Informational,
		SmartThreshold:    severity.Notice,
		MaxFileSize:       logfile.DefaultMaxFileSize,
		MaxDays:           logfile.DefaultMaxDays,
		DateFormat:        DefaultDateFormat,
		FilePerm:          logfile.DefaultFilePerm,
	}
}

// withDefaults 填充数值与布局的零值默认；严重度阈值按字面使用。
func (c Config) withDefaults() Config {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = logfile.DefaultMaxFileSize
	}
	if c.MaxDays <= 0 {
		c.MaxDays = logfile.DefaultMaxDays
	}
	if c.DateFormat == "" {
		c.DateFormat = DefaultDateFormat
	}
	if c.FilePerm == 0 {
		c.FilePerm = logfile.DefaultFilePerm
	}
	return c
}

// validate 校验阈值合法性，目录校验交由 logfile/fsutil。
func (c Config) validate() error {
	if !c.SeverityThreshold.Valid() && c.SeverityThreshold != severity.Off {
		return fmt.Errorf("%w: severity threshold %d", ErrInvalidConfig, int(c.SeverityThreshold))
	}
	if !c.SmartThreshold.Valid() && c.SmartThreshold != severity.Off {
		return fmt.Errorf("%w: smart threshold %d", ErrInvalidConfig, int(c.SmartThreshold))
	}
	return nil
}

// =============================================================================
// 批量配置加载（koanf）
// =============================================================================

// Format 批量配置的序列化格式。
type Format string

// 支持的配置格式。
const (
	// FormatYAML YAML 格式。
	FormatYAML Format = "yaml"

	// FormatJSON JSON 格式。
	FormatJSON Format = "json"
)

// 批量配置中允许的键。出现其他键是配置错误（快速失败而非静默忽略）。
const (
	keyDirectory         = "directory"
	keySeverityThreshold = "severity_threshold"
	keySmartThreshold    = "smart_threshold"
	keyMaxFileSize       = "max_file_size"
	keyMaxDays           = "max_days"
	keyDateFormat        = "date_format"
	keyFilePerm          = "file_perm"
)

// LoadConfigs 从配置文件加载批量 logger 配置。
// 根据扩展名自动检测格式（.yaml/.yml 或 .json）。
func LoadConfigs(path string) (map[string]Config, error) {
	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return ParseConfigs(data, format)
}

// ParseConfigs 解析批量 logger 配置。
//
// 输入为 logger 名称到配置映射的映射，每个条目至少包含 directory，
// 其余键为可选覆盖（severity_threshold、smart_threshold、max_file_size、
// max_days、date_format、file_perm）。严重度以字符串书写，前缀规则同
// [severity.Parse]；file_perm 建议写作八进制字符串（如 "0644"），
// 数值形式按十进制字面值使用。不认识的键返回 [ErrUnknownKey]。
func ParseConfigs(data []byte, format Format) (map[string]Config, error) {
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = kyaml.Parser()
	case FormatJSON:
		parser = kjson.Parser()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}

	raw := k.Raw()
	configs := make(map[string]Config, len(raw))

	// 名称排序保证错误信息的确定性
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		entry, ok := raw[name].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: logger %q: entry must be a mapping", ErrInvalidConfig, name)
		}
		cfg, err := parseEntry(name, entry)
		if err != nil {
			return nil, err
		}
		configs[name] = cfg
	}
	return configs, nil
}

// parseEntry 将单个 logger 的配置映射转换为 Config。
func parseEntry(name string, entry map[string]any) (Config, error) {
	cfg := DefaultConfig("")

	for key, value := range entry {
		switch key {
		case keyDirectory:
			s, ok := value.(string)
			if !ok {
				return cfg, typeErr(name, key, "string")
			}
			cfg.Directory = s
		case keySeverityThreshold:
			lv, err := parseSeverityValue(name, key, value)
			if err != nil {
				return cfg, err
			}
			cfg.SeverityThreshold = lv
		case keySmartThreshold:
			lv, err := parseSeverityValue(name, key, value)
			if err != nil {
				return cfg, err
			}
			cfg.SmartThreshold = lv
		case keyMaxFileSize:
			n, ok := toInt64(value)
			if !ok {
				return cfg, typeErr(name, key, "integer")
			}
			cfg.MaxFileSize = n
		case keyMaxDays:
			n, ok := toInt64(value)
			if !ok {
				return cfg, typeErr(name, key, "integer")
			}
			cfg.MaxDays = int(n)
		case keyDateFormat:
			s, ok := value.(string)
			if !ok {
				return cfg, typeErr(name, key, "string")
			}
			cfg.DateFormat = s
		case keyFilePerm:
			perm, err := parsePermValue(name, value)
			if err != nil {
				return cfg, err
			}
			cfg.FilePerm = perm
		default:
			return cfg, fmt.Errorf("%w: logger %q: %q", ErrUnknownKey, name, key)
		}
	}

	if cfg.Directory == "" {
		return cfg, fmt.Errorf("%w: logger %q: directory is required", ErrInvalidConfig, name)
	}
	return cfg, nil
}

// parseSeverityValue 严重度键接受字符串（前缀匹配）。
func parseSeverityValue(name, key string, value any) (severity.Level, error) {
	s, ok := value.(string)
	if !ok {
		return 0, typeErr(name, key, "string")
	}
	lv, err := severity.Parse(s)
	if err != nil {
		return 0, fmt.Errorf("%w: logger %q: %s: %w", ErrInvalidConfig, name, key, err)
	}
	return lv, nil
}

// parsePermValue file_perm 接受八进制字符串（"0644"）或十进制数值。
func parsePermValue(name string, value any) (os.FileMode, error) {
	switch v := value.(type) {
	case string:
		n, err := strconv.ParseUint(strings.TrimPrefix(v, "0o"), 8, 32)
		if err != nil {
			return 0, fmt.Errorf("%w: logger %q: file_perm %q: %w", ErrInvalidConfig, name, v, err)
		}
		return os.FileMode(n), nil
	default:
		n, ok := toInt64(value)
		if !ok {
			return 0, typeErr(name, keyFilePerm, "octal string or integer")
		}
		return os.FileMode(n), nil
	}
}

// toInt64 兼容 YAML（int）与 JSON（float64）解析出的数值表示。
func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

func typeErr(name, key, want string) error {
	return fmt.Errorf("%w: logger %q: %s must be %s", ErrInvalidConfig, name, key, want)
}

// detectFormat 根据文件扩展名检测配置格式。
func detectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %q", ErrUnsupportedFormat, ext)
	}
}
