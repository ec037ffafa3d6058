// Package ocr 提供文字识别及识别结果的坐标查询
//
// 基本用法:
//
//	engine, err := ocr.NewNativeEngine(ocr.ConfigFromDir(modelDir))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	recognizer := ocr.NewTextRecognizer(engine)
//	defer recognizer.Close()
//
//	result, err := recognizer.Recognize(ctx, "screen.png")
//	for _, rec := range result.TryGetTextCoord("登录") {
//	    fmt.Printf("%s: (%d, %d)\n", rec.Text, rec.Center.X, rec.Center.Y)
//	}
package ocr

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/zoeyai/droidauto/internal/logger"
	"github.com/zoeyai/droidauto/pkg/vision/cv"
)

// loadImage 加载图像，支持文件路径、image.Image 与 gocv.Mat
func loadImage(input interface{}) (image.Image, error) {
	switch v := input.(type) {
	case string:
		img, err := cv.DecodeImageFile(v)
		if err != nil {
			logger.Error("解码图像失败: %s, %v", v, err)
			return nil, err
		}
		return img, nil
	case image.Image:
		return v, nil
	case gocv.Mat:
		return cv.MatToImage(v)
	case *gocv.Mat:
		if v == nil {
			return nil, fmt.Errorf("图像输入为空")
		}
		return cv.MatToImage(*v)
	default:
		return nil, fmt.Errorf("不支持的图像输入类型: %T", input)
	}
}
