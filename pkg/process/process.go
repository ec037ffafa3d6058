// Package process 查找本机运行中的模拟器与 adb 服务进程
package process

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// ProcessInfo 进程信息
type ProcessInfo struct {
	PID      int    `json:"pid"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	Emulator string `json:"emulator,omitempty"`
}

// emulatorSignatures 进程名关键字 -> 模拟器名称，按顺序匹配
var emulatorSignatures = []struct {
	keyword  string
	emulator string
}{
	{"mumuvmmheadless", "MuMu"},
	{"mumuplayer", "MuMu"},
	{"nemuheadless", "MuMu"},
	{"dnplayer", "LDPlayer"},
	{"ldvboxheadless", "LDPlayer"},
	{"noxvmhandle", "Nox"},
	{"nox", "Nox"},
	{"hd-player", "BlueStacks"},
	{"bluestacks", "BlueStacks"},
	{"memuheadless", "MEmu"},
	{"qemu-system", "Android Emulator"},
}

// ProcessLister 枚举进程，便于替换
type ProcessLister func() ([]ProcessInfo, error)

// GetProcesses 获取所有进程
func GetProcesses() ([]ProcessInfo, error) {
	pids, err := process.Pids()
	if err != nil {
		return nil, fmt.Errorf("获取进程列表失败: %w", err)
	}

	var processes []ProcessInfo
	for _, pid := range pids {
		proc, err := process.NewProcess(pid)
		if err != nil {
			continue
		}

		name, err := proc.Name()
		if err != nil {
			continue
		}
		exe, _ := proc.Exe()

		processes = append(processes, ProcessInfo{
			PID:  int(pid),
			Name: name,
			Path: exe,
		})
	}

	return processes, nil
}

// FindProcess 按名称查找进程 (不区分大小写，支持部分匹配)
func FindProcess(name string) ([]ProcessInfo, error) {
	return findProcess(GetProcesses, name)
}

func findProcess(list ProcessLister, name string) ([]ProcessInfo, error) {
	all, err := list()
	if err != nil {
		return nil, err
	}

	name = strings.ToLower(name)
	var matches []ProcessInfo
	for _, p := range all {
		if strings.Contains(strings.ToLower(p.Name), name) {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

// FindEmulators 查找运行中的模拟器进程
func FindEmulators() ([]ProcessInfo, error) {
	return findEmulators(GetProcesses)
}

func findEmulators(list ProcessLister) ([]ProcessInfo, error) {
	all, err := list()
	if err != nil {
		return nil, err
	}

	var emulators []ProcessInfo
	for _, p := range all {
		if name := emulatorName(p.Name); name != "" {
			p.Emulator = name
			emulators = append(emulators, p)
		}
	}
	return emulators, nil
}

func emulatorName(processName string) string {
	lower := strings.ToLower(processName)
	for _, sig := range emulatorSignatures {
		if strings.Contains(lower, sig.keyword) {
			return sig.emulator
		}
	}
	return ""
}

// ADBServerRunning 是否存在 adb 服务进程
func ADBServerRunning() (bool, error) {
	return adbServerRunning(GetProcesses)
}

func adbServerRunning(list ProcessLister) (bool, error) {
	all, err := list()
	if err != nil {
		return false, err
	}
	for _, p := range all {
		base := strings.ToLower(strings.TrimSuffix(filepath.Base(p.Name), filepath.Ext(p.Name)))
		if base == "adb" {
			return true, nil
		}
	}
	return false, nil
}

// IsProcessRunning 检查进程是否正在运行
func IsProcessRunning(pid int) bool {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return false
	}
	running, err := proc.IsRunning()
	if err != nil {
		return false
	}
	return running
}

// KillProcess 终止进程
func KillProcess(pid int) error {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return fmt.Errorf("进程不存在: PID=%d", pid)
	}
	if err := proc.Kill(); err != nil {
		return fmt.Errorf("终止进程 %d 失败: %w", pid, err)
	}
	return nil
}

// KillADBServer 终止所有 adb 服务进程，返回终止的数量
func KillADBServer() (int, error) {
	all, err := GetProcesses()
	if err != nil {
		return 0, err
	}
	killed := 0
	for _, p := range all {
		base := strings.ToLower(strings.TrimSuffix(filepath.Base(p.Name), filepath.Ext(p.Name)))
		if base != "adb" {
			continue
		}
		if err := KillProcess(p.PID); err != nil {
			return killed, err
		}
		killed++
	}
	return killed, nil
}
