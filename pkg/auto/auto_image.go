package auto

import (
	"context"
	"fmt"

	"github.com/zoeyai/droidauto/internal/logger"
	"github.com/zoeyai/droidauto/pkg/vision/cv"
)

// FindImageOnScreen 截取一张屏幕并查找模板图片，未找到返回 (nil, nil)
// threshold <= 0 时使用默认阈值
func (a *Automator) FindImageOnScreen(ctx context.Context, templatePath string, threshold float64) (*cv.MatchResult, error) {
	if threshold <= 0 {
		threshold = cv.DefaultThreshold
	}
	return a.findImage(ctx, templatePath, &Options{Threshold: threshold})
}

func (a *Automator) findImage(ctx context.Context, templatePath string, o *Options) (*cv.MatchResult, error) {
	screen, err := a.device.Screenshot(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("截图失败: %w", err)
	}
	defer screen.Close()

	opts := []cv.Option{cv.WithThreshold(o.Threshold)}
	if o.Region != nil {
		return cv.FindTemplateInRegion(screen, templatePath, *o.Region, opts...)
	}
	return cv.FindTemplate(screen, templatePath, opts...)
}

// WaitForImage 轮询截图直到模板出现或超时
func (a *Automator) WaitForImage(ctx context.Context, templatePath string, opts ...Option) (*cv.MatchResult, error) {
	return a.waitForImage(ctx, templatePath, applyOptions(opts...))
}

func (a *Automator) waitForImage(ctx context.Context, templatePath string, o *Options) (*cv.MatchResult, error) {
	var found *cv.MatchResult
	err := poll(ctx, o, templatePath, func() (bool, error) {
		result, err := a.findImage(ctx, templatePath, o)
		if err != nil {
			return false, err
		}
		found = result
		return result != nil, nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// ImageExists 检查模板当前是否在屏幕上
func (a *Automator) ImageExists(ctx context.Context, templatePath string, opts ...Option) bool {
	o := applyOptions(opts...)
	o.Timeout = 0
	result, err := a.findImage(ctx, templatePath, o)
	if err != nil {
		logger.Warn("检查图片失败: %v", err)
		return false
	}
	return result != nil
}

// TapImage 等待模板出现后点击其中心，设置了网格时点击匹配区域内的对应格子
func (a *Automator) TapImage(ctx context.Context, templatePath string, opts ...Option) error {
	o := applyOptions(opts...)
	result, err := a.waitForImage(ctx, templatePath, o)
	if err != nil {
		return err
	}
	return a.tapMatch(ctx, result, o)
}

// tapMatch 点击匹配结果
func (a *Automator) tapMatch(ctx context.Context, result *cv.MatchResult, o *Options) error {
	target, err := CalculateGridCenterFromString(MatchRegion(result), o.Grid)
	if err != nil {
		return fmt.Errorf("计算网格位置失败: %w", err)
	}
	if o.Grid == "" {
		target = Point{X: result.Result.X, Y: result.Result.Y}
	}
	return a.tapAt(ctx, target, o)
}

// MatchRegion 匹配结果对应的矩形区域
func MatchRegion(result *cv.MatchResult) cv.Region {
	r := result.Rectangle
	return cv.Region{
		X:      r.TopLeft.X,
		Y:      r.TopLeft.Y,
		Width:  r.BottomRight.X - r.TopLeft.X,
		Height: r.BottomRight.Y - r.TopLeft.Y,
	}
}
