package adb

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// 常用按键码
const (
	KeyHome       = 3
	KeyBack       = 4
	KeyVolumeUp   = 24
	KeyVolumeDown = 25
	KeyPower      = 26
	KeyEnter      = 66
	KeyDelete     = 67
	KeyMenu       = 82
	KeyAppSwitch  = 187
)

// keyNames 常用按键别名
var keyNames = map[string]int{
	"home":    KeyHome,
	"back":    KeyBack,
	"volup":   KeyVolumeUp,
	"voldown": KeyVolumeDown,
	"power":   KeyPower,
	"enter":   KeyEnter,
	"delete":  KeyDelete,
	"menu":    KeyMenu,
	"recent":  KeyAppSwitch,
}

// ParseKey 解析数字键码或按键别名 (home/back/menu ...)
func ParseKey(s string) (int, error) {
	if code, ok := keyNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return code, nil
	}
	code, err := strconv.Atoi(s)
	if err != nil || code < 0 {
		return 0, fmt.Errorf("未知按键: %s", s)
	}
	return code, nil
}

// 默认手势时长 (毫秒)
const (
	DefaultSwipeDuration     = 300
	DefaultLongPressDuration = 1000
)

// Tap 点击 (x, y)；durationMs > 0 时以原地滑动模拟按住
func (b *Bridge) Tap(ctx context.Context, x, y, durationMs int) error {
	var err error
	if durationMs > 0 {
		_, err = b.shell(ctx, "input", "swipe", itoa(x), itoa(y), itoa(x), itoa(y), itoa(durationMs))
	} else {
		_, err = b.shell(ctx, "input", "tap", itoa(x), itoa(y))
	}
	if err != nil {
		return fmt.Errorf("点击 (%d, %d) 失败: %w", x, y, err)
	}
	return nil
}

// Swipe 从 (x1, y1) 滑动到 (x2, y2)，durationMs <= 0 时使用默认时长
func (b *Bridge) Swipe(ctx context.Context, x1, y1, x2, y2, durationMs int) error {
	if durationMs <= 0 {
		durationMs = DefaultSwipeDuration
	}
	if _, err := b.shell(ctx, "input", "swipe", itoa(x1), itoa(y1), itoa(x2), itoa(y2), itoa(durationMs)); err != nil {
		return fmt.Errorf("滑动失败: %w", err)
	}
	return nil
}

// LongPress 长按 (x, y)，durationMs <= 0 时使用默认时长
func (b *Bridge) LongPress(ctx context.Context, x, y, durationMs int) error {
	if durationMs <= 0 {
		durationMs = DefaultLongPressDuration
	}
	return b.Tap(ctx, x, y, durationMs)
}

// KeyEvent 发送按键事件
func (b *Bridge) KeyEvent(ctx context.Context, keyCode int) error {
	if _, err := b.shell(ctx, "input", "keyevent", itoa(keyCode)); err != nil {
		return fmt.Errorf("按键 %d 失败: %w", keyCode, err)
	}
	return nil
}

// Text 输入文本
func (b *Bridge) Text(ctx context.Context, text string) error {
	if _, err := b.shell(ctx, "input", "text", EscapeText(text)); err != nil {
		return fmt.Errorf("文本输入失败: %w", err)
	}
	return nil
}

// EscapeText 转义 input text 的参数: 空格替换为 %s，单引号转义后整体用单引号包裹
func EscapeText(text string) string {
	escaped := strings.ReplaceAll(text, " ", "%s")
	escaped = strings.ReplaceAll(escaped, "'", `'\''`)
	return "'" + escaped + "'"
}

func itoa(v int) string {
	return strconv.Itoa(v)
}
