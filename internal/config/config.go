package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// 部署画像
const (
	ProfileStandard    = "standard"
	ProfileConstrained = "constrained"
)

// AppConfig 应用配置
type AppConfig struct {
	Server  ServerConfig  `toml:"server"`
	Data    DataConfig    `toml:"data"`
	Convert ConvertConfig `toml:"convert"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir string `toml:"data_dir"`
}

// ConvertConfig 转换配置
type ConvertConfig struct {
	Profile                 string `toml:"profile"`                    // standard | constrained
	LegacyMaxBytes          int64  `toml:"legacy_max_bytes"`           // 受限画像下传统格式大小上限
	LegacyCodePage          string `toml:"legacy_code_page"`           // 传统工作簿码页提示
	PrimaryTimeoutSeconds   int    `toml:"primary_timeout_seconds"`   // 0 取画像默认值
	SecondaryTimeoutSeconds int    `toml:"secondary_timeout_seconds"` // 同上
	TertiaryTimeoutSeconds  int    `toml:"tertiary_timeout_seconds"`  // 同上
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    20271,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir: "data",
		},
		Convert: ConvertConfig{
			Profile:        ProfileStandard,
			LegacyMaxBytes: 0,
		},
	}
}

// IsConstrained 是否受限（serverless）部署画像
func (c *ConvertConfig) IsConstrained() bool {
	return c.Profile == ProfileConstrained
}

// EffectiveLegacyMaxBytes 传统格式大小上限
//
// 受限画像默认 3MB：传统格式解析慢，大文件在短超时内读不完，
// 不如前置拒绝并提示另存为新版格式。
func (c *ConvertConfig) EffectiveLegacyMaxBytes() int64 {
	if !c.IsConstrained() {
		return 0
	}
	if c.LegacyMaxBytes > 0 {
		return c.LegacyMaxBytes
	}
	return 3 * 1024 * 1024
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// LoadConfig 从 config.toml 加载配置
// 配置文件位于可执行文件同目录下
func LoadConfig() (*AppConfig, error) {
	config := DefaultConfig()

	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}

	configPath := filepath.Join(exeDir, "config.toml")

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// 配置文件不存在，使用默认配置
			return applyEnvOverrides(config), nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, err
	}

	return applyEnvOverrides(config), nil
}

// applyEnvOverrides 环境变量覆盖（用于 E2E / 容器部署）
func applyEnvOverrides(config *AppConfig) *AppConfig {
	if v := os.Getenv("ORDERBRIDGE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.Port = port
		}
	}
	if v := os.Getenv("ORDERBRIDGE_PROFILE"); v != "" {
		config.Convert.Profile = v
	}
	if v := os.Getenv("ORDERBRIDGE_DATA_DIR"); v != "" {
		config.Data.DataDir = v
	}
	return config
}

// SaveConfig 保存配置到 config.toml
func SaveConfig(config *AppConfig) error {
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}

	configPath := filepath.Join(exeDir, "config.toml")

	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

// EnsureDataDir 确保数据目录存在
// 数据目录位于可执行文件同目录下
func EnsureDataDir(config *AppConfig) (string, error) {
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}

	dataDir := filepath.Join(exeDir, config.Data.DataDir)

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	// 创建子目录
	subdirs := []string{"uploads", "exports"}
	for _, subdir := range subdirs {
		path := filepath.Join(dataDir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", err
		}
	}

	return dataDir, nil
}
