package adb

import (
	"context"

	"github.com/zoeyai/droidauto/pkg/cmdutil"
)

// Runner 执行外部命令
// Run 直接以参数列表执行，RunLine 将整行交给本机 shell 解释
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)
	RunLine(ctx context.Context, line string) (stdout, stderr string, err error)
}

// ExecRunner 基于 os/exec 的默认实现
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	return cmdutil.Output(cmdutil.Command(ctx, name, args...))
}

func (ExecRunner) RunLine(ctx context.Context, line string) (string, string, error) {
	return cmdutil.Output(cmdutil.ShellCommand(ctx, line))
}
