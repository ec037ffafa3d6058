package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/zoeyai/droidauto/pkg/adb"
)

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

// parseInts 解析 n 个整数参数
func parseInts(args []string, n int) ([]int, error) {
	if len(args) != n {
		return nil, fmt.Errorf("需要 %d 个参数, 实际 %d 个", n, len(args))
	}
	values := make([]int, n)
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("无效的整数: %s", a)
		}
		values[i] = v
	}
	return values, nil
}

func runDevices(ctx context.Context, app *App, _ []string) error {
	devices, err := app.bridge.ListDevices(ctx)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Println("[INFO] 没有已连接的设备")
		return nil
	}
	for _, d := range devices {
		fmt.Printf("%-24s %s\n", d.Serial, d.State)
	}
	return nil
}

func runConnect(ctx context.Context, app *App, _ []string) error {
	device, err := app.Device(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("[INFO] 已连接: %s\n", device.Serial())
	return printDeviceInfo(ctx, device)
}

func runInfo(ctx context.Context, app *App, _ []string) error {
	device, err := app.Device(ctx)
	if err != nil {
		return err
	}
	if err := printDeviceInfo(ctx, device); err != nil {
		return err
	}

	on, err := device.IsScreenOn(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("屏幕点亮: %v\n", on)

	activity, err := device.CurrentActivity(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("当前界面: %s\n", activity)
	return nil
}

func printDeviceInfo(ctx context.Context, device *adb.Bridge) error {
	info, err := device.DeviceInfo(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("设备:     %s %s\n", info.Manufacturer, info.Model)
	fmt.Printf("Android:  %s (SDK %s)\n", info.AndroidVersion, info.SDKVersion)
	fmt.Printf("分辨率:   %dx%d\n", info.Width, info.Height)
	return nil
}

func runScreenshot(ctx context.Context, app *App, args []string) error {
	fs := newFlagSet("screenshot")
	output := fs.String("o", "screenshot.png", "输出路径")
	if err := fs.Parse(args); err != nil {
		return err
	}

	device, err := app.Device(ctx)
	if err != nil {
		return err
	}
	mat, err := device.Screenshot(ctx, *output)
	if err != nil {
		return err
	}
	defer mat.Close()
	fmt.Printf("[INFO] 截图已保存: %s (%dx%d)\n", *output, mat.Cols(), mat.Rows())
	return nil
}

func runTap(ctx context.Context, app *App, args []string) error {
	fs := newFlagSet("tap")
	duration := fs.Int("d", 0, "按住时长 (毫秒)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	v, err := parseInts(fs.Args(), 2)
	if err != nil {
		return err
	}

	device, err := app.Device(ctx)
	if err != nil {
		return err
	}
	return device.Tap(ctx, v[0], v[1], *duration)
}

func runSwipe(ctx context.Context, app *App, args []string) error {
	fs := newFlagSet("swipe")
	duration := fs.Int("d", adb.DefaultSwipeDuration, "滑动时长 (毫秒)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	v, err := parseInts(fs.Args(), 4)
	if err != nil {
		return err
	}

	device, err := app.Device(ctx)
	if err != nil {
		return err
	}
	return device.Swipe(ctx, v[0], v[1], v[2], v[3], *duration)
}

func runKey(ctx context.Context, app *App, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("用法: key <keycode|home|back|...>")
	}
	code, err := adb.ParseKey(args[0])
	if err != nil {
		return err
	}
	device, err := app.Device(ctx)
	if err != nil {
		return err
	}
	return device.KeyEvent(ctx, code)
}

func runText(ctx context.Context, app *App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("用法: text <text>")
	}
	device, err := app.Device(ctx)
	if err != nil {
		return err
	}
	return device.Text(ctx, strings.Join(args, " "))
}
