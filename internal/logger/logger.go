// Package logger 提供统一的日志工具
//
// 所有组件通过包级函数输出日志，事件类日志统一使用 LogEvent，
// 分类约定: ADB (设备桥接), CV (图像匹配), OCR (文字识别), FIND (元素定位), STEP (用例步骤)。
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// Level 日志级别
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

// 事件分类
const (
	CategoryADB  = "ADB"
	CategoryCV   = "CV"
	CategoryOCR  = "OCR"
	CategoryFind = "FIND"
	CategoryStep = "STEP"
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel 解析日志级别字符串，无法识别时返回 INFO
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Logger 日志记录器
type Logger struct {
	mu      sync.Mutex
	level   Level
	console io.Writer
	fileOut *os.File
	logger  *log.Logger
	now     func() time.Time
}

var defaultLogger = New(os.Stdout)

// New 创建输出到 console 的 Logger，console 为 nil 时不输出到控制台
func New(console io.Writer) *Logger {
	l := &Logger{
		level:   INFO,
		console: console,
		logger:  log.New(io.Discard, "", 0),
		now:     time.Now,
	}
	l.updateOutput()
	return l
}

// Default 获取默认 logger
func Default() *Logger {
	return defaultLogger
}

// SetLevel 设置日志级别
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// SetFile 追加输出到日志文件，path 为空时关闭文件输出
func (l *Logger) SetFile(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fileOut != nil {
		l.fileOut.Close()
		l.fileOut = nil
	}

	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			l.updateOutput()
			return fmt.Errorf("无法打开日志文件: %w", err)
		}
		l.fileOut = f
	}

	l.updateOutput()
	return nil
}

func (l *Logger) updateOutput() {
	var writers []io.Writer
	if l.console != nil {
		writers = append(writers, l.console)
	}
	if l.fileOut != nil {
		writers = append(writers, l.fileOut)
	}

	switch len(writers) {
	case 0:
		l.logger.SetOutput(io.Discard)
	case 1:
		l.logger.SetOutput(writers[0])
	default:
		l.logger.SetOutput(io.MultiWriter(writers...))
	}
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	msg := fmt.Sprintf(format, args...)
	l.logger.Printf("%s | %-5s | %s", l.now().Format("15:04:05.000"), level.String(), msg)
}

// Debug 输出 DEBUG 级别日志
func (l *Logger) Debug(format string, args ...interface{}) { l.log(DEBUG, format, args...) }

// Info 输出 INFO 级别日志
func (l *Logger) Info(format string, args ...interface{}) { l.log(INFO, format, args...) }

// Warn 输出 WARN 级别日志
func (l *Logger) Warn(format string, args ...interface{}) { l.log(WARN, format, args...) }

// Error 输出 ERROR 级别日志
func (l *Logger) Error(format string, args ...interface{}) { l.log(ERROR, format, args...) }

// LogEvent 记录带分类的事件日志，失败事件以 ERROR 级别输出
func (l *Logger) LogEvent(category string, ok bool, elapsedMs float64, detail string) {
	if ok {
		l.Info("%-4s | OK | %6.1fms | %s", category, elapsedMs, detail)
		return
	}
	l.Error("%-4s | NG | %6.1fms | %s", category, elapsedMs, detail)
}

// Close 关闭日志文件
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fileOut == nil {
		return nil
	}
	err := l.fileOut.Close()
	l.fileOut = nil
	l.updateOutput()
	return err
}

// Since 返回自 start 起经过的毫秒数，配合 LogEvent 使用
func Since(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}

// 包级别便捷函数
func SetLevel(level Level)                     { defaultLogger.SetLevel(level) }
func SetFile(path string) error                { return defaultLogger.SetFile(path) }
func Debug(format string, args ...interface{}) { defaultLogger.Debug(format, args...) }
func Info(format string, args ...interface{})  { defaultLogger.Info(format, args...) }
func Warn(format string, args ...interface{})  { defaultLogger.Warn(format, args...) }
func Error(format string, args ...interface{}) { defaultLogger.Error(format, args...) }
func LogEvent(category string, ok bool, elapsedMs float64, detail string) {
	defaultLogger.LogEvent(category, ok, elapsedMs, detail)
}
