package adb

import (
	"context"
	"fmt"
	"strings"
)

// Device adb devices 列出的设备
type Device struct {
	Serial string `json:"serial"`
	State  string `json:"state"`
}

// DeviceInfo 设备基本信息
type DeviceInfo struct {
	Serial         string `json:"serial"`
	Model          string `json:"model"`
	Manufacturer   string `json:"manufacturer"`
	AndroidVersion string `json:"android_version"`
	SDKVersion     string `json:"sdk_version"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
}

// CheckADBAvailable 检查 adb 是否可用
func (b *Bridge) CheckADBAvailable(ctx context.Context) error {
	out, err := b.run(ctx, false, "version")
	if err != nil {
		return fmt.Errorf("adb 不可用: %w", err)
	}
	if !strings.Contains(out, "Android Debug Bridge") {
		return fmt.Errorf("adb 不可用: %s", out)
	}
	return nil
}

// ListDevices 列出已连接的设备
func (b *Bridge) ListDevices(ctx context.Context) ([]Device, error) {
	out, err := b.run(ctx, false, "devices")
	if err != nil {
		return nil, fmt.Errorf("列出设备失败: %w", err)
	}
	return parseDevices(out), nil
}

// parseDevices 解析 adb devices 输出，跳过标题行与守护进程提示
func parseDevices(out string) []Device {
	var devices []Device
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "*") || strings.HasPrefix(line, "List of devices") {
			continue
		}
		fields := strings.Fields(line)
		d := Device{Serial: fields[0]}
		if len(fields) > 1 {
			d.State = fields[1]
		}
		devices = append(devices, d)
	}
	return devices
}

// InstallApp 安装 (覆盖) APK
func (b *Bridge) InstallApp(ctx context.Context, apkPath string) error {
	out, err := b.run(ctx, true, "install", "-r", apkPath)
	if err != nil {
		return fmt.Errorf("安装应用失败: %w", err)
	}
	if !strings.Contains(out, "Success") {
		return fmt.Errorf("安装应用失败: %s", out)
	}
	return nil
}

// UninstallApp 卸载应用
func (b *Bridge) UninstallApp(ctx context.Context, packageName string) error {
	out, err := b.run(ctx, true, "uninstall", packageName)
	if err != nil {
		return fmt.Errorf("卸载应用失败: %w", err)
	}
	if !strings.Contains(out, "Success") {
		return fmt.Errorf("卸载应用失败: %s", out)
	}
	return nil
}

// StartActivity 启动 Activity
func (b *Bridge) StartActivity(ctx context.Context, packageName, activity string) error {
	if _, err := b.shell(ctx, "am", "start", "-n", packageName+"/"+activity); err != nil {
		return fmt.Errorf("启动 Activity 失败: %w", err)
	}
	return nil
}

// StopApp 强制停止应用
func (b *Bridge) StopApp(ctx context.Context, packageName string) error {
	if _, err := b.shell(ctx, "am", "force-stop", packageName); err != nil {
		return fmt.Errorf("停止应用失败: %w", err)
	}
	return nil
}

// CurrentActivity 当前焦点窗口，形如 com.example/.MainActivity；无焦点窗口时返回空串
func (b *Bridge) CurrentActivity(ctx context.Context) (string, error) {
	out, err := b.shell(ctx, "dumpsys", "window")
	if err != nil {
		return "", fmt.Errorf("获取当前 Activity 失败: %w", err)
	}
	return parseCurrentFocus(out), nil
}

func parseCurrentFocus(out string) string {
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "mCurrentFocus") {
			continue
		}
		fields := strings.Fields(line)
		last := strings.TrimRight(fields[len(fields)-1], "}")
		if strings.Contains(last, "mCurrentFocus=null") {
			return ""
		}
		return last
	}
	return ""
}

// PushFile 推送本地文件到设备
func (b *Bridge) PushFile(ctx context.Context, localPath, devicePath string) error {
	out, err := b.run(ctx, true, "push", localPath, devicePath)
	if err != nil {
		return fmt.Errorf("推送文件失败: %w", err)
	}
	if !strings.Contains(out, "pushed") {
		return fmt.Errorf("推送文件失败: %s", out)
	}
	return nil
}

// PullFile 从设备拉取文件
func (b *Bridge) PullFile(ctx context.Context, devicePath, localPath string) error {
	out, err := b.run(ctx, true, "pull", devicePath, localPath)
	if err != nil {
		return fmt.Errorf("拉取文件失败: %w", err)
	}
	if !strings.Contains(out, "pulled") {
		return fmt.Errorf("拉取文件失败: %s", out)
	}
	return nil
}

// DeviceInfo 读取设备型号、系统版本与分辨率，需要已连接
func (b *Bridge) DeviceInfo(ctx context.Context) (*DeviceInfo, error) {
	serial := b.Serial()
	if serial == "" {
		return nil, ErrNotConnected
	}

	info := &DeviceInfo{Serial: serial}
	props := []struct {
		name string
		dst  *string
	}{
		{"ro.product.model", &info.Model},
		{"ro.product.manufacturer", &info.Manufacturer},
		{"ro.build.version.release", &info.AndroidVersion},
		{"ro.build.version.sdk", &info.SDKVersion},
	}
	for _, p := range props {
		out, err := b.shell(ctx, "getprop", p.name)
		if err != nil {
			return nil, fmt.Errorf("读取 %s 失败: %w", p.name, err)
		}
		*p.dst = out
	}

	w, h, err := b.Resolution(ctx)
	if err != nil {
		return nil, err
	}
	info.Width, info.Height = w, h
	return info, nil
}
