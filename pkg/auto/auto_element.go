package auto

import (
	"context"
	"fmt"

	"github.com/zoeyai/droidauto/pkg/vision/cv"
)

// FindElement 截图并查找已登记的元素，未找到返回 (nil, nil)
func (a *Automator) FindElement(ctx context.Context, name string, opts ...Option) (*cv.MatchResult, error) {
	o := applyOptions(opts...)
	screen, err := a.device.Screenshot(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("截图失败: %w", err)
	}
	defer screen.Close()
	return a.locator.FindElement(screen, name, a.threshold(opts), o.Region)
}

// TapElement 截图一次，找到元素则点击
func (a *Automator) TapElement(ctx context.Context, name string, opts ...Option) error {
	result, err := a.FindElement(ctx, name, opts...)
	if err != nil {
		return err
	}
	if result == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return a.tapMatch(ctx, result, applyOptions(opts...))
}

// WaitAndTapElement 等待元素出现后点击
func (a *Automator) WaitAndTapElement(ctx context.Context, name string, opts ...Option) error {
	o := applyOptions(opts...)
	result, err := a.locator.WaitForElement(ctx, a.screenshotInput, name, o.Timeout, o.PollInterval, a.threshold(opts))
	if err != nil {
		return err
	}
	return a.tapMatch(ctx, result, o)
}

// threshold 未显式设置阈值时返回 0，交由模板或定位器的默认值决定
func (a *Automator) threshold(opts []Option) float64 {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o.Threshold
}
