//go:build !tesseract

package ocr

import (
	"context"
	"fmt"
	"image"
)

// TesseractEngine 未启用 tesseract 构建标签时的占位实现
type TesseractEngine struct{}

// NewTesseractEngine 始终返回错误，需使用 -tags tesseract 重新构建
func NewTesseractEngine(languages ...string) (*TesseractEngine, error) {
	return nil, fmt.Errorf("未启用 Tesseract 支持, 请使用 -tags tesseract 构建")
}

// Predict 未启用时不可用
func (e *TesseractEngine) Predict(ctx context.Context, img image.Image) ([]RawPage, error) {
	return nil, fmt.Errorf("未启用 Tesseract 支持")
}

// Close 无操作
func (e *TesseractEngine) Close() error { return nil }
