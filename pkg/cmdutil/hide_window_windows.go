package cmdutil

import (
	"os/exec"
	"syscall"
)

// HideWindow 避免每次调用 adb 都弹出控制台窗口
func HideWindow(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow: true,
	}
}
