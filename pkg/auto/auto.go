// Package auto 组合设备桥接、元素定位与 OCR，完成 截图 -> 定位 -> 点击 的流程
package auto

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gocv.io/x/gocv"

	"github.com/zoeyai/droidauto/internal/logger"
	"github.com/zoeyai/droidauto/pkg/locator"
	"github.com/zoeyai/droidauto/pkg/vision/ocr"
)

var (
	// ErrNotFound 超时前未找到目标
	ErrNotFound = errors.New("未找到目标")
	// ErrNoRecognizer 未配置 OCR
	ErrNoRecognizer = errors.New("未配置 OCR 识别器")
)

// Device 截图与点击，*adb.Bridge 实现了该接口
type Device interface {
	Screenshot(ctx context.Context, savePath string) (gocv.Mat, error)
	Tap(ctx context.Context, x, y, durationMs int) error
}

// Automator 自动化操作入口
type Automator struct {
	device     Device
	locator    *locator.Locator
	recognizer *ocr.TextRecognizer
}

// New 创建 Automator，loc 为空时创建空定位器，recognizer 可为空
func New(device Device, loc *locator.Locator, recognizer *ocr.TextRecognizer) *Automator {
	if loc == nil {
		loc = locator.New()
	}
	return &Automator{device: device, locator: loc, recognizer: recognizer}
}

// Locator 元素定位器
func (a *Automator) Locator() *locator.Locator {
	return a.locator
}

// Screenshot 截取一张屏幕，返回的 Mat 由调用方关闭
func (a *Automator) Screenshot(ctx context.Context) (gocv.Mat, error) {
	return a.device.Screenshot(ctx, "")
}

func (a *Automator) screenshotInput(ctx context.Context) (interface{}, error) {
	return a.device.Screenshot(ctx, "")
}

// tapAt 按选项点击，包含偏移、按住时长与双击
func (a *Automator) tapAt(ctx context.Context, p Point, o *Options) error {
	x, y := p.X+o.ClickOffset.X, p.Y+o.ClickOffset.Y
	times := 1
	if o.DoubleTap {
		times = 2
	}
	for i := 0; i < times; i++ {
		if err := a.device.Tap(ctx, x, y, o.Duration); err != nil {
			return err
		}
	}
	logger.Debug("点击 (%d, %d) x%d", x, y, times)
	return nil
}

// poll 重复执行 fn 直到返回 true 或超时
// fn 出错时记录日志并继续轮询，超时错误附带最后一次的错误
// Timeout 为 0 时只执行一次，出错直接返回
func poll(ctx context.Context, o *Options, what string, fn func() (bool, error)) error {
	deadline := time.Now().Add(o.Timeout)
	var lastErr error
	for {
		done, err := fn()
		if err == nil && done {
			return nil
		}
		if err != nil {
			if o.Timeout <= 0 {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("等待 %s: %v", what, err)
		}
		lastErr = err

		if o.Timeout <= 0 || !time.Now().Before(deadline) {
			if lastErr != nil {
				return fmt.Errorf("%w: %s (%v)", ErrNotFound, what, lastErr)
			}
			return fmt.Errorf("%w: %s", ErrNotFound, what)
		}

		timer := time.NewTimer(o.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
