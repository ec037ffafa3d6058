package adb

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"gocv.io/x/gocv"

	"github.com/zoeyai/droidauto/internal/logger"
	"github.com/zoeyai/droidauto/pkg/vision/cv"
)

// Screenshot 截取屏幕
// 设备端截图到暂存路径后拉取到本地临时文件，删除设备端副本并解码；
// savePath 非空时另存一份。本地临时文件总会被删除，返回的 Mat 由调用方关闭
func (b *Bridge) Screenshot(ctx context.Context, savePath string) (gocv.Mat, error) {
	start := time.Now()
	remote := b.remotePath()

	if _, err := b.shell(ctx, "screencap", "-p", remote); err != nil {
		return gocv.Mat{}, b.screenshotFailed(start, fmt.Errorf("设备截图失败: %w", err))
	}

	tmp, err := os.CreateTemp("", "droidauto_screencap_*.png")
	if err != nil {
		return gocv.Mat{}, b.screenshotFailed(start, fmt.Errorf("创建临时文件失败: %w", err))
	}
	local := tmp.Name()
	tmp.Close()
	defer os.Remove(local)

	_, pullErr := b.run(ctx, true, "pull", remote, local)
	if _, err := b.shell(ctx, "rm", remote); err != nil {
		logger.Warn("删除设备端截图失败: %v", err)
	}
	if pullErr != nil {
		return gocv.Mat{}, b.screenshotFailed(start, fmt.Errorf("拉取截图失败: %w", pullErr))
	}

	img, err := cv.ReadImage(local)
	if err != nil {
		return gocv.Mat{}, b.screenshotFailed(start, fmt.Errorf("截图读取失败: %w", err))
	}

	if savePath != "" {
		if err := cv.WriteImage(savePath, img); err != nil {
			img.Close()
			return gocv.Mat{}, b.screenshotFailed(start, err)
		}
	}

	logger.LogEvent(logger.CategoryADB, true, logger.Since(start),
		fmt.Sprintf("截图 %dx%d", img.Cols(), img.Rows()))
	return img, nil
}

func (b *Bridge) screenshotFailed(start time.Time, err error) error {
	logger.LogEvent(logger.CategoryADB, false, logger.Since(start), err.Error())
	return err
}

// remotePath 设备端暂存路径，开启时间戳时与暂存路径同目录
func (b *Bridge) remotePath() string {
	if !b.timestamped {
		return b.remoteTemp
	}
	return path.Join(path.Dir(b.remoteTemp), fmt.Sprintf("screencap_%d.png", b.now().Unix()))
}

// Resolution 查询屏幕分辨率，优先 Physical size
func (b *Bridge) Resolution(ctx context.Context) (width, height int, err error) {
	out, err := b.shell(ctx, "wm", "size")
	if err != nil {
		return 0, 0, fmt.Errorf("获取分辨率失败: %w", err)
	}
	w, h, ok := parseSize(out)
	if !ok {
		return 0, 0, fmt.Errorf("无法解析分辨率: %s", out)
	}
	return w, h, nil
}

func parseSize(out string) (int, int, bool) {
	for _, prefix := range []string{"Physical size: %dx%d", "Override size: %dx%d"} {
		for _, line := range strings.Split(out, "\n") {
			var w, h int
			if _, err := fmt.Sscanf(strings.TrimSpace(line), prefix, &w, &h); err == nil {
				return w, h, true
			}
		}
	}
	return 0, 0, false
}

// IsScreenOn 屏幕是否点亮
func (b *Bridge) IsScreenOn(ctx context.Context) (bool, error) {
	out, err := b.shell(ctx, "dumpsys", "power")
	if err != nil {
		return false, fmt.Errorf("检查屏幕状态失败: %w", err)
	}
	return strings.Contains(out, "mHoldingDisplaySuspendBlocker=true"), nil
}

// WakeUp 电源键点亮屏幕后发送菜单键解锁
func (b *Bridge) WakeUp(ctx context.Context) error {
	if err := b.KeyEvent(ctx, KeyPower); err != nil {
		return fmt.Errorf("唤醒设备失败: %w", err)
	}
	if err := b.sleep(ctx, 500*time.Millisecond); err != nil {
		return err
	}
	if err := b.KeyEvent(ctx, KeyMenu); err != nil {
		return fmt.Errorf("唤醒设备失败: %w", err)
	}
	return nil
}
