package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix 环境变量前缀
const EnvPrefix = "DROIDAUTO_"

// DefaultEnvFile 工作目录下的默认环境文件
const DefaultEnvFile = ".env"

// LoadDotEnv 加载环境文件到进程环境，已存在的变量不被覆盖
// 文件不存在时静默跳过
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{DefaultEnvFile}
	}
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("加载环境文件 %s 失败: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv 用 DROIDAUTO_* 环境变量覆盖配置
func (c *Config) ApplyEnv() error {
	return c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(EnvPrefix + key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("ADB"); ok {
		c.ADBPath = v
	}
	if v, ok := get("HOST"); ok {
		c.Host = v
	}
	if v, ok := get("PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sPORT 无效: %s", EnvPrefix, v)
		}
		c.Port = port
	}
	if v, ok := get("COMMAND_FORM"); ok {
		c.CommandForm = v
	}
	if v, ok := get("TEMPLATES"); ok {
		c.TemplateManifest = v
	}
	if v, ok := get("THRESHOLD"); ok {
		threshold, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sTHRESHOLD 无效: %s", EnvPrefix, v)
		}
		c.Threshold = threshold
	}
	if v, ok := get("OCR_BACKEND"); ok {
		c.OCRBackend = v
	}
	if v, ok := get("OCR_MODEL_DIR"); ok {
		c.OCRModelDir = v
	}
	if v, ok := get("OCR_LANGUAGES"); ok {
		c.OCRLanguages = splitList(v)
	}
	if v, ok := get("HISTORY_DB"); ok {
		c.HistoryDB = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := get("LOG_FILE"); ok {
		c.LogFile = v
	}
	return nil
}

// splitList 拆分逗号或加号分隔的列表
func splitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '+'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
