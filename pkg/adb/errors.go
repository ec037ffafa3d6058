package adb

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotConnected 当前没有活动的设备会话
	ErrNotConnected = errors.New("设备未连接")
	// ErrConnectFailed adb connect 未返回 connected
	ErrConnectFailed = errors.New("连接设备失败")
)

// CommandError adb 命令执行失败
type CommandError struct {
	Args   []string
	Output string
	Err    error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("adb %s 执行失败", strings.Join(e.Args, " "))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += " (" + out + ")"
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
