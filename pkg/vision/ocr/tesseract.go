//go:build tesseract

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/zoeyai/droidauto/internal/logger"
)

// TesseractEngine 基于 gosseract 的进程内引擎，需要本机安装 libtesseract
type TesseractEngine struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// NewTesseractEngine 创建 Tesseract 引擎，languages 为空时使用 TesseractLanguages
func NewTesseractEngine(languages ...string) (*TesseractEngine, error) {
	if len(languages) == 0 {
		languages = TesseractLanguages
	}
	client := gosseract.NewClient()
	if err := client.SetLanguage(languages...); err != nil {
		client.Close()
		return nil, fmt.Errorf("设置 Tesseract 语言失败: %w", err)
	}
	logger.Info("Tesseract 引擎初始化成功: %v", languages)
	return &TesseractEngine{client: client}, nil
}

// Predict 按文本行识别单张图片
func (e *TesseractEngine) Predict(ctx context.Context, img image.Image) ([]RawPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("编码图像失败: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client == nil {
		return nil, fmt.Errorf("Tesseract 引擎已关闭")
	}
	if err := e.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("设置图像失败: %w", err)
	}
	found, err := e.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, err
	}

	boxes := make([]textBox, 0, len(found))
	for _, b := range found {
		boxes = append(boxes, textBox{Rect: b.Box, Text: b.Word, Confidence: b.Confidence})
	}
	return []RawPage{boxesToPage(boxes)}, nil
}

// Close 释放引擎
func (e *TesseractEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client == nil {
		return nil
	}
	err := e.client.Close()
	e.client = nil
	return err
}
