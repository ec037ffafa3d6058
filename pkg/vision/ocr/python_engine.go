package ocr

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/zoeyai/droidauto/pkg/python"
)

// PythonEngine 通过 Python PaddleOCR 子进程识别
type PythonEngine struct {
	pythonPath string
}

// NewPythonEngine 创建 Python 后端，pythonPath 为空时自动检测
func NewPythonEngine(pythonPath string) (*PythonEngine, error) {
	if pythonPath == "" {
		info := python.DetectPython()
		if !info.Available {
			return nil, fmt.Errorf("未检测到 Python 3 环境")
		}
		pythonPath = info.Path
	}
	return &PythonEngine{pythonPath: pythonPath}, nil
}

// Predict 将图片写入临时 PNG 后交给子进程识别
func (e *PythonEngine) Predict(ctx context.Context, img image.Image) ([]RawPage, error) {
	tmp, err := os.CreateTemp("", "droidauto_ocr_*.png")
	if err != nil {
		return nil, fmt.Errorf("创建临时文件失败: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("写入临时图片失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}

	data, err := python.RunPaddleOCR(ctx, e.pythonPath, tmp.Name())
	if err != nil {
		return nil, err
	}
	result, err := ParseResultJSON(data)
	if err != nil {
		return nil, err
	}
	return result.Pages(), nil
}

// Close 子进程按次启动，无需释放
func (e *PythonEngine) Close() error {
	return nil
}
