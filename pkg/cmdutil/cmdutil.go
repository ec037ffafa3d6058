// Package cmdutil 封装外部命令的构造与执行
package cmdutil

import (
	"bytes"
	"context"
	"os/exec"
	"runtime"
)

// Command 创建隐藏控制台窗口的命令
func Command(ctx context.Context, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	HideWindow(cmd)
	return cmd
}

// ShellCommand 创建由本机 shell 解释整行命令的命令
func ShellCommand(ctx context.Context, line string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return Command(ctx, "cmd", "/C", line)
	}
	return Command(ctx, "sh", "-c", line)
}

// Output 执行命令，分别返回标准输出与标准错误
func Output(cmd *exec.Cmd) (stdout, stderr string, err error) {
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err = cmd.Run()
	return outBuf.String(), errBuf.String(), err
}
