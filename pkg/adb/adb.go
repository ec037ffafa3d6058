// Package adb 通过 adb 可执行文件与模拟器交互
//
// Bridge 同一时刻最多持有一个设备会话 (host:port 序列号)，
// 所有设备命令都会路由到该序列号；未连接时由 adb 选择默认设备。
package adb

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/alessio/shellescape"
	"github.com/google/shlex"

	"github.com/zoeyai/droidauto/internal/logger"
	"github.com/zoeyai/droidauto/pkg/config"
)

// 默认值
const (
	DefaultADBPath        = "adb"
	DefaultRemoteTempPath = "/sdcard/screencap_temp.png"
)

// Bridge 设备桥接
type Bridge struct {
	adbPath     string
	form        string
	remoteTemp  string
	timestamped bool
	runner      Runner
	// quote 拼接 shell 形式命令行时转义单个参数
	quote func(string) string

	mu     sync.RWMutex
	serial string

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// Option Bridge 配置选项
type Option func(*Bridge)

// WithADBPath 设置 adb 路径
func WithADBPath(path string) Option {
	return func(b *Bridge) {
		if path != "" {
			b.adbPath = path
		}
	}
}

// WithCommandForm 设置命令构造方式 (config.CommandFormArgs / config.CommandFormShell)
func WithCommandForm(form string) Option {
	return func(b *Bridge) {
		if form != "" {
			b.form = form
		}
	}
}

// WithRemoteTempPath 设置设备端截图暂存路径
func WithRemoteTempPath(path string) Option {
	return func(b *Bridge) {
		if path != "" {
			b.remoteTemp = path
		}
	}
}

// WithTimestampedRemote 每次截图使用带时间戳的暂存路径
func WithTimestampedRemote(enabled bool) Option {
	return func(b *Bridge) {
		b.timestamped = enabled
	}
}

// WithRunner 替换命令执行器
func WithRunner(r Runner) Option {
	return func(b *Bridge) {
		if r != nil {
			b.runner = r
		}
	}
}

// New 创建 Bridge
func New(opts ...Option) *Bridge {
	b := &Bridge{
		adbPath:    DefaultADBPath,
		form:       config.CommandFormArgs,
		remoteTemp: DefaultRemoteTempPath,
		runner:     ExecRunner{},
		quote:      defaultQuoter(),
		now:        time.Now,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewFromConfig 按配置创建 Bridge，额外选项覆盖配置
func NewFromConfig(cfg *config.Config, opts ...Option) *Bridge {
	base := []Option{
		WithADBPath(cfg.ADBPath),
		WithCommandForm(cfg.CommandForm),
		WithRemoteTempPath(cfg.RemoteTempPath),
		WithTimestampedRemote(cfg.TimestampedRemote),
	}
	return New(append(base, opts...)...)
}

// Serial 当前会话序列号，未连接时为空
func (b *Bridge) Serial() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.serial
}

// Connected 是否存在活动会话
func (b *Bridge) Connected() bool {
	return b.Serial() != ""
}

// Connect 连接 host:port，连接前总是先断开已有会话
// 输出中包含 "connected" 视为成功；失败时不保留序列号
func (b *Bridge) Connect(ctx context.Context, host string, port int) error {
	if err := b.Disconnect(ctx); err != nil {
		logger.Warn("断开旧连接失败: %v", err)
	}

	target := fmt.Sprintf("%s:%d", host, port)
	out, err := b.run(ctx, false, "connect", target)
	if err != nil {
		logger.Error("连接 %s 失败: %v", target, err)
		return fmt.Errorf("%w: %s: %w", ErrConnectFailed, target, err)
	}
	if !strings.Contains(out, "connected") {
		logger.Error("连接 %s 失败: %s", target, out)
		return fmt.Errorf("%w: %s: %s", ErrConnectFailed, target, out)
	}

	b.mu.Lock()
	b.serial = target
	b.mu.Unlock()

	logger.Info("已连接设备: %s", target)
	return nil
}

// Disconnect 断开当前会话，未连接时直接返回
func (b *Bridge) Disconnect(ctx context.Context) error {
	b.mu.Lock()
	serial := b.serial
	b.serial = ""
	b.mu.Unlock()

	if serial == "" {
		return nil
	}

	if _, err := b.run(ctx, false, "disconnect", serial); err != nil {
		return err
	}
	logger.Info("已断开设备: %s", serial)
	return nil
}

// ExecuteCommand 执行一条 adb 命令字符串，返回去除首尾空白的标准输出
// 命令按 shell 规则拆分，引号内的空白不拆开；withDevice 为 true 且存在会话时追加 -s 序列号
func (b *Bridge) ExecuteCommand(ctx context.Context, command string, withDevice bool) (string, error) {
	args, err := shlex.Split(command)
	if err != nil {
		return "", fmt.Errorf("解析命令失败: %s: %w", command, err)
	}
	if len(args) == 0 {
		return "", fmt.Errorf("命令为空")
	}
	return b.run(ctx, withDevice, args...)
}

// ExecuteArgs 以参数列表执行 adb 命令
func (b *Bridge) ExecuteArgs(ctx context.Context, withDevice bool, args ...string) (string, error) {
	return b.run(ctx, withDevice, args...)
}

// shell 在设备上执行 adb shell
func (b *Bridge) shell(ctx context.Context, args ...string) (string, error) {
	return b.run(ctx, true, append([]string{"shell"}, args...)...)
}

func (b *Bridge) run(ctx context.Context, withDevice bool, args ...string) (string, error) {
	full := make([]string, 0, len(args)+2)
	if serial := b.Serial(); withDevice && serial != "" {
		full = append(full, "-s", serial)
	}
	full = append(full, args...)

	start := time.Now()
	var stdout, stderr string
	var err error
	if b.form == config.CommandFormShell {
		stdout, stderr, err = b.runner.RunLine(ctx, buildLine(b.quote, b.adbPath, full))
	} else {
		stdout, stderr, err = b.runner.Run(ctx, b.adbPath, full...)
	}
	elapsed := logger.Since(start)
	detail := strings.Join(full, " ")

	if err != nil {
		logger.LogEvent(logger.CategoryADB, false, elapsed, detail)
		return strings.TrimSpace(stdout), &CommandError{Args: full, Output: stdout + stderr, Err: err}
	}
	logger.LogEvent(logger.CategoryADB, true, elapsed, detail)
	return strings.TrimSpace(stdout), nil
}

// buildLine 拼接交给本机 shell 的命令行，每个参数单独转义
func buildLine(quote func(string) string, name string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, quote(name))
	for _, a := range args {
		parts = append(parts, quote(a))
	}
	return strings.Join(parts, " ")
}

// quoterFor 按本机 shell 选择参数转义方式: Windows 为 cmd.exe，其他为 POSIX sh
func quoterFor(goos string) func(string) string {
	if goos == "windows" {
		return quoteCmdArg
	}
	return shellescape.Quote
}

func defaultQuoter() func(string) string {
	return quoterFor(runtime.GOOS)
}

// quoteCmdArg 含空白或 cmd.exe 元字符的参数用双引号包裹，内部双引号转义为 \"
func quoteCmdArg(s string) string {
	if s == "" {
		return `""`
	}
	if !strings.ContainsAny(s, " \t&|<>^()\"'") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
