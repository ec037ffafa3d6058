package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

// LoadINI 从 INI 文件读取配置，缺失的键保留默认值
//
//	[adb]
//	path = adb
//	host = 127.0.0.1
//	port = 16384
//
//	[match]
//	threshold = 0.8
//
//	[ocr]
//	backend = native
func LoadINI(path string) (*Config, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("读取 INI 配置失败: %w", err)
	}

	cfg := Default()
	adbSec := file.Section("adb")
	cfg.ADBPath = adbSec.Key("path").MustString(cfg.ADBPath)
	cfg.Host = adbSec.Key("host").MustString(cfg.Host)
	cfg.Port = adbSec.Key("port").MustInt(cfg.Port)
	cfg.CommandForm = adbSec.Key("command_form").MustString(cfg.CommandForm)
	cfg.RemoteTempPath = adbSec.Key("remote_temp_path").MustString(cfg.RemoteTempPath)
	cfg.TimestampedRemote = adbSec.Key("timestamped_remote").MustBool(cfg.TimestampedRemote)

	match := file.Section("match")
	cfg.TemplateManifest = match.Key("templates").MustString(cfg.TemplateManifest)
	cfg.Threshold = match.Key("threshold").MustFloat64(cfg.Threshold)
	cfg.PollIntervalMs = match.Key("poll_interval_ms").MustInt(cfg.PollIntervalMs)
	cfg.WaitTimeoutMs = match.Key("wait_timeout_ms").MustInt(cfg.WaitTimeoutMs)

	ocrSec := file.Section("ocr")
	cfg.OCRBackend = ocrSec.Key("backend").MustString(cfg.OCRBackend)
	cfg.OCRModelDir = ocrSec.Key("model_dir").MustString(cfg.OCRModelDir)
	if langs := ocrSec.Key("languages").String(); langs != "" {
		cfg.OCRLanguages = splitList(langs)
	}

	general := file.Section(ini.DefaultSection)
	cfg.HistoryDB = general.Key("history_db").MustString(cfg.HistoryDB)
	cfg.LogLevel = general.Key("log_level").MustString(cfg.LogLevel)
	cfg.LogFile = general.Key("log_file").MustString(cfg.LogFile)
	return cfg, nil
}

// SaveINI 以 INI 格式导出配置
func SaveINI(cfg *Config, path string) error {
	file := ini.Empty()

	general := file.Section(ini.DefaultSection)
	general.Key("log_level").SetValue(cfg.LogLevel)
	if cfg.LogFile != "" {
		general.Key("log_file").SetValue(cfg.LogFile)
	}
	if cfg.HistoryDB != "" {
		general.Key("history_db").SetValue(cfg.HistoryDB)
	}

	adbSec := file.Section("adb")
	adbSec.Key("path").SetValue(cfg.ADBPath)
	adbSec.Key("host").SetValue(cfg.Host)
	adbSec.Key("port").SetValue(fmt.Sprint(cfg.Port))
	adbSec.Key("command_form").SetValue(cfg.CommandForm)
	adbSec.Key("remote_temp_path").SetValue(cfg.RemoteTempPath)
	adbSec.Key("timestamped_remote").SetValue(fmt.Sprint(cfg.TimestampedRemote))

	match := file.Section("match")
	if cfg.TemplateManifest != "" {
		match.Key("templates").SetValue(cfg.TemplateManifest)
	}
	match.Key("threshold").SetValue(fmt.Sprint(cfg.Threshold))
	match.Key("poll_interval_ms").SetValue(fmt.Sprint(cfg.PollIntervalMs))
	match.Key("wait_timeout_ms").SetValue(fmt.Sprint(cfg.WaitTimeoutMs))

	ocrSec := file.Section("ocr")
	ocrSec.Key("backend").SetValue(cfg.OCRBackend)
	if cfg.OCRModelDir != "" {
		ocrSec.Key("model_dir").SetValue(cfg.OCRModelDir)
	}
	if len(cfg.OCRLanguages) > 0 {
		ocrSec.Key("languages").SetValue(strings.Join(cfg.OCRLanguages, ","))
	}

	if err := file.SaveTo(path); err != nil {
		return fmt.Errorf("写入 INI 配置失败: %w", err)
	}
	return nil
}

// LoadFile 按扩展名读取 .ini 或 JSON 配置文件
func LoadFile(path string) (*Config, error) {
	if strings.EqualFold(filepath.Ext(path), ".ini") {
		return LoadINI(path)
	}
	return loadJSON(path)
}
