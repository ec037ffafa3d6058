package ocr

import (
	"context"
	"fmt"
	"image"
	"os"

	goocr "github.com/getcharzp/go-ocr"

	"github.com/zoeyai/droidauto/internal/logger"
)

// NativeEngine 基于 go-ocr (PaddleOCR ONNX) 的进程内引擎
type NativeEngine struct {
	engine goocr.Engine
}

// NewNativeEngine 创建原生引擎，模型文件缺失时返回错误
func NewNativeEngine(cfg Config) (*NativeEngine, error) {
	for _, f := range cfg.Files() {
		if _, err := os.Stat(f); err != nil {
			return nil, fmt.Errorf("OCR 模型文件缺失: %s", f)
		}
	}

	engine, err := goocr.NewPaddleOcrEngine(goocr.Config{
		OnnxRuntimeLibPath: cfg.OnnxRuntimeLibPath,
		DetModelPath:       cfg.DetModelPath,
		RecModelPath:       cfg.RecModelPath,
		DictPath:           cfg.DictPath,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 OCR 引擎失败: %w", err)
	}

	logger.Info("OCR 引擎初始化成功")
	return &NativeEngine{engine: engine}, nil
}

// Predict 识别单张图片
func (e *NativeEngine) Predict(ctx context.Context, img image.Image) ([]RawPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	results, err := e.engine.RunOCR(img)
	if err != nil {
		return nil, err
	}

	page := RawPage{
		RecTexts:  make([]string, 0, len(results)),
		RecPolys:  make([][][2]float64, 0, len(results)),
		RecScores: make([]float64, 0, len(results)),
	}
	for _, res := range results {
		page.RecTexts = append(page.RecTexts, res.Text)
		page.RecPolys = append(page.RecPolys, boxToPoly(res.Box))
		page.RecScores = append(page.RecScores, float64(res.Score))
	}
	return []RawPage{page}, nil
}

// boxToPoly 将 {x1, y1, x2, y2} 转为左上、右上、右下、左下顺序的多边形
func boxToPoly(box [4]int) [][2]float64 {
	x1, y1, x2, y2 := float64(box[0]), float64(box[1]), float64(box[2]), float64(box[3])
	return [][2]float64{{x1, y1}, {x2, y1}, {x2, y2}, {x1, y2}}
}

// Close 释放引擎
func (e *NativeEngine) Close() error {
	if e.engine != nil {
		e.engine.Destroy()
		e.engine = nil
	}
	return nil
}
