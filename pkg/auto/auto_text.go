package auto

import (
	"context"
	"fmt"

	"github.com/zoeyai/droidauto/pkg/vision/ocr"
)

// FindText 截图识别并返回第一条包含 text 的记录，未找到返回 (nil, nil)
// 设置了 Region 时只接受中心点落在区域内的文字
func (a *Automator) FindText(ctx context.Context, text string, opts ...Option) (*ocr.Record, error) {
	return a.findText(ctx, text, applyOptions(opts...))
}

func (a *Automator) findText(ctx context.Context, text string, o *Options) (*ocr.Record, error) {
	if a.recognizer == nil {
		return nil, ErrNoRecognizer
	}
	screen, err := a.device.Screenshot(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("截图失败: %w", err)
	}
	defer screen.Close()

	if r := o.Region; r != nil {
		return a.recognizer.FindTextInRange(ctx, screen, text, r.X, r.Y, r.X+r.Width, r.Y+r.Height)
	}
	return a.recognizer.FindText(ctx, screen, text)
}

// WaitForText 轮询直到文字出现或超时
func (a *Automator) WaitForText(ctx context.Context, text string, opts ...Option) (*ocr.Record, error) {
	return a.waitForText(ctx, text, applyOptions(opts...))
}

func (a *Automator) waitForText(ctx context.Context, text string, o *Options) (*ocr.Record, error) {
	if a.recognizer == nil {
		return nil, ErrNoRecognizer
	}
	var found *ocr.Record
	err := poll(ctx, o, text, func() (bool, error) {
		rec, err := a.findText(ctx, text, o)
		if err != nil {
			return false, err
		}
		found = rec
		return rec != nil, nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// TapText 等待文字出现后点击其中心
func (a *Automator) TapText(ctx context.Context, text string, opts ...Option) error {
	o := applyOptions(opts...)
	rec, err := a.waitForText(ctx, text, o)
	if err != nil {
		return err
	}
	return a.tapAt(ctx, Point{X: rec.Center.X, Y: rec.Center.Y}, o)
}

// GetScreenText 识别当前屏幕上的所有文字
func (a *Automator) GetScreenText(ctx context.Context) (string, error) {
	if a.recognizer == nil {
		return "", ErrNoRecognizer
	}
	screen, err := a.device.Screenshot(ctx, "")
	if err != nil {
		return "", fmt.Errorf("截图失败: %w", err)
	}
	defer screen.Close()
	return a.recognizer.GetAllText(ctx, screen)
}
