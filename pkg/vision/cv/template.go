package cv

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/zoeyai/droidauto/internal/logger"
)

// 诊断图绘制颜色
var (
	colorMatchBox    = color.RGBA{0, 255, 0, 0}
	colorMatchCenter = color.RGBA{255, 0, 0, 0}
)

// loadPair 加载截图与模板，返回值由调用方关闭
func loadPair(screen, template interface{}) (gocv.Mat, gocv.Mat, error) {
	screenMat, err := LoadImageInput(screen)
	if err != nil {
		return gocv.Mat{}, gocv.Mat{}, fmt.Errorf("加载源图像失败: %w", err)
	}
	templateMat, err := LoadImageInput(template)
	if err != nil {
		screenMat.Close()
		return gocv.Mat{}, gocv.Mat{}, fmt.Errorf("加载模板图像失败: %w", err)
	}
	return screenMat, templateMat, nil
}

// FindTemplate 在截图中查找模板的最佳位置
// screen/template 支持文件路径、image.Image 或 gocv.Mat；
// 最佳置信度低于阈值时返回 (nil, nil)
func FindTemplate(screen, template interface{}, opts ...Option) (*MatchResult, error) {
	o := ApplyOptions(opts...)

	screenMat, templateMat, err := loadPair(screen, template)
	if err != nil {
		logger.Error("图像匹配出错: %v", err)
		return nil, err
	}
	defer screenMat.Close()
	defer templateMat.Close()

	result, err := NewTemplateMatching(templateMat, screenMat, o).FindBestResult()
	logMatch("find", result, err)
	return result, err
}

// FindAllTemplates 查找所有置信度 >= 阈值的位置，按置信度降序
func FindAllTemplates(screen, template interface{}, opts ...Option) ([]*MatchResult, error) {
	o := ApplyOptions(opts...)

	screenMat, templateMat, err := loadPair(screen, template)
	if err != nil {
		logger.Error("多目标匹配出错: %v", err)
		return nil, err
	}
	defer screenMat.Close()
	defer templateMat.Close()

	results, err := NewTemplateMatching(templateMat, screenMat, o).FindAllResults()
	if err != nil {
		logger.Error("多目标匹配出错: %v", err)
		return nil, err
	}
	logger.Debug("多目标匹配: %d 个结果 (阈值 %.3f)", len(results), o.Threshold)
	return results, nil
}

// FindTemplateWithScale 多尺度匹配
// 在 [scaleMin, scaleMax] 内取 scaleSteps 个比例，返回置信度最高且达到阈值的结果，
// MatchResult.Scale 为命中的比例
func FindTemplateWithScale(screen, template interface{}, scaleMin, scaleMax float64, scaleSteps int, opts ...Option) (*MatchResult, error) {
	o := ApplyOptions(opts...)

	screenMat, templateMat, err := loadPair(screen, template)
	if err != nil {
		logger.Error("多尺度匹配出错: %v", err)
		return nil, err
	}
	defer screenMat.Close()
	defer templateMat.Close()

	result, err := NewMultiScaleTemplateMatching(templateMat, screenMat, o, scaleMin, scaleMax, scaleSteps).FindBestResult()
	logMatch("scale", result, err)
	return result, err
}

// FindTemplateInRegion 仅在 region 内匹配，结果坐标换算回整张截图
func FindTemplateInRegion(screen, template interface{}, region Region, opts ...Option) (*MatchResult, error) {
	o := ApplyOptions(opts...)

	screenMat, templateMat, err := loadPair(screen, template)
	if err != nil {
		logger.Error("区域匹配出错: %v", err)
		return nil, err
	}
	defer screenMat.Close()
	defer templateMat.Close()

	roi, rect, err := CropRegion(screenMat, region)
	if err != nil {
		logger.Error("区域匹配出错: %v (%+v)", err, region)
		return nil, err
	}
	defer roi.Close()

	result, err := NewTemplateMatching(templateMat, roi, o).FindBestResult()
	if result != nil {
		result.translate(rect.Min.X, rect.Min.Y)
	}
	logMatch("region", result, err)
	return result, err
}

// SaveMatchedResult 输出诊断图: 匹配框、中心点与置信度标签
func SaveMatchedResult(screen, template interface{}, outputPath string, match *MatchResult) error {
	if match == nil {
		return fmt.Errorf("匹配结果为空")
	}

	screenMat, templateMat, err := loadPair(screen, template)
	if err != nil {
		logger.Error("保存匹配结果出错: %v", err)
		return err
	}
	defer screenMat.Close()
	defer templateMat.Close()

	rect := match.Rectangle.ToImageRect()
	if rect.Empty() {
		w, h := templateMat.Cols(), templateMat.Rows()
		rect = image.Rect(match.Result.X-w/2, match.Result.Y-h/2, match.Result.X+w/2, match.Result.Y+h/2)
	}
	center := image.Pt(match.Result.X, match.Result.Y)

	gocv.Rectangle(&screenMat, rect, colorMatchBox, 2)
	gocv.Circle(&screenMat, center, 5, colorMatchCenter, -1)
	gocv.PutText(&screenMat, fmt.Sprintf("Conf: %.3f", match.Confidence),
		image.Pt(rect.Min.X, rect.Min.Y-10), gocv.FontHersheySimplex, 0.6, colorMatchBox, 2)

	if err := WriteImage(outputPath, screenMat); err != nil {
		logger.Error("保存匹配结果出错: %v", err)
		return err
	}
	return nil
}

func logMatch(kind string, result *MatchResult, err error) {
	switch {
	case err != nil:
		logger.LogEvent(logger.CategoryCV, false, 0, fmt.Sprintf("%s 匹配出错: %v", kind, err))
	case result == nil:
		logger.Debug("%s 匹配: 未达到阈值", kind)
	default:
		logger.LogEvent(logger.CategoryCV, true, result.Time,
			fmt.Sprintf("%s (%d, %d) conf=%.3f scale=%.2f", kind, result.Result.X, result.Result.Y, result.Confidence, result.Scale))
	}
}
