package ocr

import (
	"path/filepath"
	"runtime"
)

// Point 二维坐标点
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Rect 文字区域 (x_start, y_start, x_end, y_end)
type Rect struct {
	XStart float64 `json:"x_start"`
	YStart float64 `json:"y_start"`
	XEnd   float64 `json:"x_end"`
	YEnd   float64 `json:"y_end"`
}

// Record 一条识别记录
type Record struct {
	Text   string `json:"text"`
	Rect   Rect   `json:"rect"`
	Center Point  `json:"center"`
}

// RawPage 单张图片的原始识别结果
// RecTexts 与 RecPolys 一一对应，每个多边形至少包含首尾两个点
type RawPage struct {
	RecTexts  []string       `json:"rec_texts"`
	RecPolys  [][][2]float64 `json:"rec_polys"`
	RecScores []float64      `json:"rec_scores,omitempty"`
}

// Config 原生 OCR 引擎配置
type Config struct {
	// OnnxRuntimeLibPath ONNX Runtime 动态库路径
	OnnxRuntimeLibPath string
	// DetModelPath 检测模型路径
	DetModelPath string
	// RecModelPath 识别模型路径
	RecModelPath string
	// DictPath 字典文件路径
	DictPath string
}

// ConfigFromDir 按模型目录布局生成配置
//
//	<dir>/lib/onnxruntime_*.{so,dylib,dll}
//	<dir>/paddle_weights/{det.onnx,rec.onnx,dict.txt}
func ConfigFromDir(dir string) Config {
	weights := filepath.Join(dir, "paddle_weights")
	return Config{
		OnnxRuntimeLibPath: filepath.Join(dir, "lib", OnnxRuntimeLibName()),
		DetModelPath:       filepath.Join(weights, "det.onnx"),
		RecModelPath:       filepath.Join(weights, "rec.onnx"),
		DictPath:           filepath.Join(weights, "dict.txt"),
	}
}

// Files 配置涉及的全部文件
func (c Config) Files() []string {
	return []string{c.OnnxRuntimeLibPath, c.DetModelPath, c.RecModelPath, c.DictPath}
}

// OnnxRuntimeLibName 当前平台的 ONNX Runtime 库文件名
func OnnxRuntimeLibName() string {
	switch runtime.GOOS {
	case "windows":
		return "onnxruntime.dll"
	case "darwin":
		if runtime.GOARCH == "arm64" {
			return "onnxruntime_arm64.dylib"
		}
		return "onnxruntime_amd64.dylib"
	default:
		if runtime.GOARCH == "arm64" {
			return "onnxruntime_arm64.so"
		}
		return "onnxruntime_amd64.so"
	}
}
