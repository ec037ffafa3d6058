package ocr

import (
	"context"
	"fmt"
	"image"
	"strings"
	"sync"
	"time"

	"github.com/zoeyai/droidauto/internal/logger"
)

// Engine OCR 引擎，识别单张图片并返回原始页面
type Engine interface {
	Predict(ctx context.Context, img image.Image) ([]RawPage, error)
	Close() error
}

// TextRecognizer 在 Engine 之上提供识别与文字查找
type TextRecognizer struct {
	engine Engine
	mu     sync.Mutex
}

// NewTextRecognizer 创建识别器
func NewTextRecognizer(engine Engine) *TextRecognizer {
	return &TextRecognizer{engine: engine}
}

// Recognize 识别图像中的所有文字
func (r *TextRecognizer) Recognize(ctx context.Context, input interface{}) (*Result, error) {
	img, err := loadImage(input)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.engine == nil {
		return nil, fmt.Errorf("OCR 引擎已关闭")
	}

	startTime := time.Now()
	pages, err := r.engine.Predict(ctx, img)
	if err != nil {
		logger.LogEvent(logger.CategoryOCR, false, logger.Since(startTime), "识别失败")
		return nil, fmt.Errorf("OCR 识别失败: %w", err)
	}

	result := NewResult(pages...)
	logger.LogEvent(logger.CategoryOCR, true, logger.Since(startTime),
		fmt.Sprintf("识别到 %d 个文本", len(result.Records())))
	return result, nil
}

// FindText 返回第一条包含 text 的记录，未找到时返回 (nil, nil)
func (r *TextRecognizer) FindText(ctx context.Context, input interface{}, text string) (*Record, error) {
	if text == "" {
		return nil, nil
	}
	result, err := r.Recognize(ctx, input)
	if err != nil {
		return nil, err
	}
	return firstRecord(result.TryGetTextCoord(text), text), nil
}

// FindTextInRange 同 FindText，但要求中心点落在 (x1,y1)-(x2,y2) 内
func (r *TextRecognizer) FindTextInRange(ctx context.Context, input interface{}, text string, x1, y1, x2, y2 int) (*Record, error) {
	if text == "" {
		return nil, nil
	}
	result, err := r.Recognize(ctx, input)
	if err != nil {
		return nil, err
	}
	return firstRecord(result.TryGetTextCoordInRange(text, x1, y1, x2, y2), text), nil
}

func firstRecord(records []Record, text string) *Record {
	if len(records) == 0 {
		logger.Debug("未找到文字: %s", text)
		return nil
	}
	rec := records[0]
	logger.Debug("找到文字: %s (%d, %d)", rec.Text, rec.Center.X, rec.Center.Y)
	return &rec
}

// GetAllText 识别并以空格拼接所有文字
func (r *TextRecognizer) GetAllText(ctx context.Context, input interface{}) (string, error) {
	result, err := r.Recognize(ctx, input)
	if err != nil {
		return "", err
	}

	var texts []string
	for _, t := range result.Texts() {
		if t != "" {
			texts = append(texts, t)
		}
	}
	return strings.Join(texts, " "), nil
}

// Close 释放引擎
func (r *TextRecognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.engine == nil {
		return nil
	}
	err := r.engine.Close()
	r.engine = nil
	return err
}
