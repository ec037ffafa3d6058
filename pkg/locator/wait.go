package locator

import (
	"context"
	"fmt"
	"time"

	"github.com/zoeyai/droidauto/internal/logger"
	"github.com/zoeyai/droidauto/pkg/vision/cv"
)

// ScreenshotFunc 每次轮询时获取一张新截图
type ScreenshotFunc func(ctx context.Context) (interface{}, error)

// WaitForElement 按固定间隔截图查找元素，直到找到或超时
// 截图或匹配出错时记录日志并继续轮询；超时返回 ErrWaitTimeout
func (l *Locator) WaitForElement(ctx context.Context, screenshot ScreenshotFunc, name string, timeout, interval time.Duration, threshold float64) (*cv.MatchResult, error) {
	if _, err := l.lookup(name); err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	var lastErr error
	for attempt := 1; ; attempt++ {
		result, err := l.attempt(ctx, screenshot, name, threshold)
		if result != nil {
			logger.Info("等待元素 %s 成功: 第 %d 次尝试, 耗时 %.0fms", name, attempt, logger.Since(start))
			return result, nil
		}
		if err != nil {
			lastErr = err
			logger.Warn("等待元素 %s: %v", name, err)
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, l.waitFailed(ctx, name, timeout, lastErr)
		case <-timer.C:
		}
	}
}

func (l *Locator) attempt(ctx context.Context, screenshot ScreenshotFunc, name string, threshold float64) (*cv.MatchResult, error) {
	screen, err := screenshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("截图失败: %w", err)
	}
	defer closeInput(screen)
	return l.FindElement(screen, name, threshold, nil)
}

func (l *Locator) waitFailed(ctx context.Context, name string, timeout time.Duration, lastErr error) error {
	if ctx.Err() != context.DeadlineExceeded {
		return ctx.Err()
	}
	logger.LogEvent(logger.CategoryFind, false, float64(timeout.Milliseconds()), fmt.Sprintf("%s: 等待超时", name))
	if lastErr != nil {
		return fmt.Errorf("%w: %s (%v)", ErrWaitTimeout, name, lastErr)
	}
	return fmt.Errorf("%w: %s", ErrWaitTimeout, name)
}
