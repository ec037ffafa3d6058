// Package config 管理设备连接与匹配参数的本地配置
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// 命令构造方式
const (
	CommandFormArgs  = "args"  // 按 shell 分词规则拆分为参数列表直接执行 adb
	CommandFormShell = "shell" // 整条命令交给本机 shell 解释
)

// OCR 后端
const (
	OCRBackendNative    = "native"    // go-ocr ONNX 引擎
	OCRBackendPython    = "python"    // Python PaddleOCR 子进程
	OCRBackendTesseract = "tesseract" // gosseract，需 -tags tesseract 构建
)

// Config 运行配置
type Config struct {
	// ADBPath adb 可执行文件路径
	ADBPath string `json:"adb_path"`
	// Host 模拟器地址
	Host string `json:"host"`
	// Port 模拟器 adb 端口
	Port int `json:"port"`
	// CommandForm 命令构造方式 (args/shell)
	CommandForm string `json:"command_form"`
	// RemoteTempPath 设备端截图暂存路径
	RemoteTempPath string `json:"remote_temp_path"`
	// TimestampedRemote 为 true 时每次截图使用带时间戳的暂存路径
	TimestampedRemote bool `json:"timestamped_remote"`

	// TemplateManifest 模板清单 (YAML)
	TemplateManifest string `json:"template_manifest,omitempty"`
	// Threshold 默认匹配阈值
	Threshold float64 `json:"threshold"`
	// PollIntervalMs 等待元素时的轮询间隔
	PollIntervalMs int `json:"poll_interval_ms"`
	// WaitTimeoutMs 等待元素的超时时间
	WaitTimeoutMs int `json:"wait_timeout_ms"`

	// OCRBackend OCR 后端 (native/python)
	OCRBackend string `json:"ocr_backend"`
	// OCRModelDir OCR 模型目录，为空时使用插件目录
	OCRModelDir string `json:"ocr_model_dir,omitempty"`
	// OCRLanguages Tesseract 语言包，为空时使用 chi_sim+eng
	OCRLanguages []string `json:"ocr_languages,omitempty"`

	// HistoryDB 用例执行记录 (SQLite)，为空时不记录
	HistoryDB string `json:"history_db,omitempty"`

	// LogLevel 日志级别
	LogLevel string `json:"log_level"`
	// LogFile 日志文件路径，为空时仅输出到控制台
	LogFile string `json:"log_file,omitempty"`
}

// Default 默认配置
func Default() *Config {
	return &Config{
		ADBPath:        "adb",
		Host:           "127.0.0.1",
		Port:           16384,
		CommandForm:    CommandFormArgs,
		RemoteTempPath: "/sdcard/screencap_temp.png",
		Threshold:      0.8,
		PollIntervalMs: 1000,
		WaitTimeoutMs:  10000,
		OCRBackend:     OCRBackendNative,
		LogLevel:       "INFO",
	}
}

// Serial 返回 host:port 形式的设备序列号
func (c *Config) Serial() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// PollInterval 轮询间隔
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// WaitTimeout 等待超时
func (c *Config) WaitTimeout() time.Duration {
	return time.Duration(c.WaitTimeoutMs) * time.Millisecond
}

// Validate 校验配置取值
func (c *Config) Validate() error {
	if c.ADBPath == "" {
		return fmt.Errorf("adb_path 不能为空")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port 超出范围: %d", c.Port)
	}
	if c.CommandForm != CommandFormArgs && c.CommandForm != CommandFormShell {
		return fmt.Errorf("不支持的 command_form: %s", c.CommandForm)
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("threshold 必须在 [0,1] 范围内: %.3f", c.Threshold)
	}
	switch c.OCRBackend {
	case OCRBackendNative, OCRBackendPython, OCRBackendTesseract:
	default:
		return fmt.Errorf("不支持的 ocr_backend: %s", c.OCRBackend)
	}
	return nil
}

// Manager 配置管理器
type Manager struct {
	configDir  string
	configFile string
	mu         sync.RWMutex
}

// NewManager 创建位于 ~/.droidauto 的配置管理器
func NewManager() *Manager {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return NewManagerWithDir(filepath.Join(homeDir, ".droidauto"))
}

// NewManagerWithDir 使用指定目录创建配置管理器
func NewManagerWithDir(configDir string) *Manager {
	return &Manager{
		configDir:  configDir,
		configFile: filepath.Join(configDir, "config.json"),
	}
}

// Load 加载配置，文件不存在时返回默认配置
// 文件中缺失的字段保留默认值
func (m *Manager) Load() (*Config, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cfg, err := loadJSON(m.configFile)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Default(), err
	}
	return cfg, nil
}

func loadJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}
	return cfg, nil
}

// Save 保存配置
func (m *Manager) Save(cfg *Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(m.configDir, 0755); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	if err := os.WriteFile(m.configFile, data, 0600); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}
	return nil
}

// Clear 清除配置文件
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := os.Remove(m.configFile)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Exists 检查配置文件是否存在
func (m *Manager) Exists() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, err := os.Stat(m.configFile)
	return err == nil
}

// ConfigDir 配置目录
func (m *Manager) ConfigDir() string {
	return m.configDir
}

// ConfigFile 配置文件路径
func (m *Manager) ConfigFile() string {
	return m.configFile
}

var defaultManager = NewManager()

// DefaultManager 获取默认配置管理器
func DefaultManager() *Manager {
	return defaultManager
}

// Load 使用默认管理器加载配置
func Load() (*Config, error) {
	return defaultManager.Load()
}

// Save 使用默认管理器保存配置
func Save(cfg *Config) error {
	return defaultManager.Save(cfg)
}
