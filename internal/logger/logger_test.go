package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   DEBUG,
		"INFO":    INFO,
		"warning": WARN,
		" Error ": ERROR,
		"unknown": INFO,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, 期望 %v", in, got, want)
		}
	}
}

func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.SetLevel(WARN)

	l.Info("不应输出")
	l.Warn("应输出 %d", 1)

	out := buf.String()
	if strings.Contains(out, "不应输出") {
		t.Errorf("INFO 日志不应在 WARN 级别输出: %s", out)
	}
	if !strings.Contains(out, "WARN  | 应输出 1") {
		t.Errorf("WARN 日志缺失: %s", out)
	}
}

func TestLogEvent(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	l.LogEvent(CategoryADB, true, 12.5, "tap 10 20")
	l.LogEvent(CategoryCV, false, 3, "未找到")

	out := buf.String()
	if !strings.Contains(out, "ADB  | OK |   12.5ms | tap 10 20") {
		t.Errorf("成功事件格式错误: %s", out)
	}
	if !strings.Contains(out, "ERROR | CV   | NG |") {
		t.Errorf("失败事件应为 ERROR 级别: %s", out)
	}
}

func TestSetFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	l := New(nil)

	if err := l.SetFile(path); err != nil {
		t.Fatalf("打开日志文件失败: %v", err)
	}
	l.Info("写入文件")
	if err := l.Close(); err != nil {
		t.Fatalf("关闭日志文件失败: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取日志文件失败: %v", err)
	}
	if !strings.Contains(string(data), "写入文件") {
		t.Errorf("日志文件内容缺失: %s", data)
	}
}
