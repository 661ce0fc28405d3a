package smartlog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/smartlog/pkg/core/severity"
)

func TestParseConfigs_YAML(t *testing.T) {
	data := []byte(`
app:
  directory: /var/log/app
  severity_threshold: warn
  smart_threshold: err
  max_file_size: 1048576
  max_days: 14
  file_perm: "0600"
audit:
  directory: /var/log/audit
`)
	configs, err := ParseConfigs(data, FormatYAML)
	require.NoError(t, err)
	require.Len(t, configs, 2)

	app := configs["app"]
	assert.Equal(t, "/var/log/app", app.Directory)
	assert.Equal(t, severity.Warning, app.SeverityThreshold, "严重度按前缀解析")
	assert.Equal(t, severity.Error, app.SmartThreshold)
	assert.Equal(t, int64(1048576), app.MaxFileSize)
	assert.Equal(t, 14, app.MaxDays)
	assert.Equal(t, os.FileMode(0600), app.FilePerm, "八进制字符串形式的 file_perm")

	// 未覆盖的键取默认值
	audit := configs["audit"]
	assert.Equal(t, severity.Informational, audit.SeverityThreshold)
	assert.Equal(t, severity.Notice, audit.SmartThreshold)
	assert.Equal(t, DefaultDateFormat, audit.DateFormat)
}

func TestParseConfigs_JSON(t *testing.T) {
	data := []byte(`{
  "worker": {
    "directory": "/var/log/worker",
    "severity_threshold": "debug",
    "smart_threshold": "off",
    "file_perm": 420
  }
}`)
	configs, err := ParseConfigs(data, FormatJSON)
	require.NoError(t, err)

	w := configs["worker"]
	assert.Equal(t, severity.Debug, w.SeverityThreshold)
	assert.Equal(t, severity.Off, w.SmartThreshold, `"off" 解析为禁用哨兵`)
	assert.Equal(t, os.FileMode(0644), w.FilePerm, "数值形式按十进制字面值使用")
}

func TestParseConfigs_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{
			name:    "不认识的键",
			data:    "app:\n  directory: /tmp/x\n  max_size: 1\n",
			wantErr: ErrUnknownKey,
		},
		{
			name:    "缺少 directory",
			data:    "app:\n  max_days: 3\n",
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "严重度无法解析",
			data:    "app:\n  directory: /tmp/x\n  severity_threshold: verbose\n",
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "条目不是映射",
			data:    "app: just-a-string\n",
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "file_perm 非法",
			data:    "app:\n  directory: /tmp/x\n  file_perm: \"rw-r--r--\"\n",
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "max_days 类型不对",
			data:    "app:\n  directory: /tmp/x\n  max_days: soon\n",
			wantErr: ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfigs([]byte(tt.data), FormatYAML)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseConfigs_UnsupportedFormat(t *testing.T) {
	_, err := ParseConfigs([]byte("x"), Format("toml"))
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadConfigs(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "loggers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app:\n  directory: /tmp/app\n"), 0644))

	configs, err := LoadConfigs(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/app", configs["app"].Directory)

	t.Run("扩展名无法识别", func(t *testing.T) {
		_, err := LoadConfigs(filepath.Join(dir, "loggers.ini"))
		require.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("文件不存在", func(t *testing.T) {
		_, err := LoadConfigs(filepath.Join(dir, "missing.yaml"))
		require.ErrorIs(t, err, ErrParseFailed)
	})
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{Directory: "/tmp/x"}.withDefaults()

	assert.Equal(t, int64(100_000_000), cfg.MaxFileSize)
	assert.Equal(t, 7, cfg.MaxDays)
	assert.Equal(t, DefaultDateFormat, cfg.DateFormat)
	assert.Equal(t, os.FileMode(0644), cfg.FilePerm)

	// 阈值按字面使用：零值就是 emergency，不被默认值覆盖
	assert.Equal(t, severity.Emergency, cfg.SeverityThreshold)
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig("/tmp/x")
	require.NoError(t, cfg.validate())

	cfg.SeverityThreshold = severity.Off
	cfg.SmartThreshold = severity.Off
	require.NoError(t, cfg.validate(), "Off 是合法阈值")

	cfg.SmartThreshold = severity.Level(-2)
	require.ErrorIs(t, cfg.validate(), ErrInvalidConfig)
}
