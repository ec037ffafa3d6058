package cv

import (
	"errors"
	"image"
	"sort"
	"time"

	"gocv.io/x/gocv"

	"github.com/zoeyai/droidauto/internal/logger"
)

// ErrEmptyRegion 搜索区域与截图没有交集
var ErrEmptyRegion = errors.New("搜索区域为空")

// TemplateMatching 模板匹配器
type TemplateMatching struct {
	imSearch gocv.Mat
	imSource gocv.Mat
	opts     Options
}

// NewTemplateMatching 创建模板匹配器，search 为模板，source 为截图
func NewTemplateMatching(search, source gocv.Mat, opts Options) *TemplateMatching {
	if opts.Method == "" {
		opts.Method = DefaultMethod
	}
	return &TemplateMatching{
		imSearch: search,
		imSource: source,
		opts:     opts,
	}
}

// FindBestResult 查找全局最优匹配，置信度低于阈值或模板大于截图时返回 nil
func (t *TemplateMatching) FindBestResult() (*MatchResult, error) {
	startTime := time.Now()

	result, err := t.getTemplateResultMatrix()
	if skipOversize(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer result.Close()

	loc, confidence := t.opts.Method.bestLocation(result)
	if confidence < t.opts.Threshold {
		return nil, nil
	}

	res := t.buildResult(loc, confidence)
	res.Time = float64(time.Since(startTime).Milliseconds())
	return res, nil
}

// FindAllResults 收集相关性曲面上所有达到阈值的位置
// 不做非极大值抑制，真实目标附近的重叠位置都会保留；结果按置信度降序
func (t *TemplateMatching) FindAllResults() ([]*MatchResult, error) {
	startTime := time.Now()

	result, err := t.getTemplateResultMatrix()
	if skipOversize(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer result.Close()

	var results []*MatchResult
	for y := 0; y < result.Rows(); y++ {
		for x := 0; x < result.Cols(); x++ {
			confidence := t.opts.Method.Confidence(result.GetFloatAt(y, x))
			if confidence >= t.opts.Threshold {
				results = append(results, t.buildResult(image.Pt(x, y), confidence))
			}
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})

	elapsed := float64(time.Since(startTime).Milliseconds())
	for _, r := range results {
		r.Time = elapsed
	}
	return results, nil
}

// getTemplateResultMatrix 计算相关性曲面，尺寸为 (W-w+1) x (H-h+1)
func (t *TemplateMatching) getTemplateResultMatrix() (gocv.Mat, error) {
	if err := checkSourceLargerThanSearch(t.imSource, t.imSearch); err != nil {
		return gocv.Mat{}, err
	}

	source, search := t.imSource, t.imSearch
	if t.opts.Gray || source.Channels() != search.Channels() {
		srcGray := ToGray(source)
		searchGray := ToGray(search)
		defer srcGray.Close()
		defer searchGray.Close()
		source, search = srcGray, searchGray
	}

	mask := gocv.NewMat()
	defer mask.Close()

	result := gocv.NewMat()
	gocv.MatchTemplate(source, search, &result, t.opts.Method.mode(), mask)
	if result.Empty() {
		result.Close()
		return gocv.Mat{}, errors.New("模板匹配失败")
	}
	return result, nil
}

// buildResult 由左上角位置构造匹配结果
func (t *TemplateMatching) buildResult(leftTop image.Point, confidence float64) *MatchResult {
	h, w := t.imSearch.Rows(), t.imSearch.Cols()
	return &MatchResult{
		Result:     Point{X: leftTop.X + w/2, Y: leftTop.Y + h/2},
		Rectangle:  newRectangle(leftTop.X, leftTop.Y, w, h),
		Confidence: confidence,
		Scale:      1,
	}
}

// newRectangle 四个角点: 左上 -> 左下 -> 右下 -> 右上
func newRectangle(x, y, w, h int) Rectangle {
	return Rectangle{
		TopLeft:     Point{X: x, Y: y},
		BottomLeft:  Point{X: x, Y: y + h},
		BottomRight: Point{X: x + w, Y: y + h},
		TopRight:    Point{X: x + w, Y: y},
	}
}

// checkSourceLargerThanSearch 检查截图是否不小于模板
func checkSourceLargerThanSearch(source, search gocv.Mat) error {
	if source.Empty() || search.Empty() {
		return errors.New("图像为空")
	}
	if source.Rows() < search.Rows() || source.Cols() < search.Cols() {
		return &ImageSizeError{
			SourceSize: [2]int{source.Cols(), source.Rows()},
			SearchSize: [2]int{search.Cols(), search.Rows()},
		}
	}
	return nil
}

// skipOversize 模板大于截图或搜索区域时视为未找到
func skipOversize(err error) bool {
	var sizeErr *ImageSizeError
	if !errors.As(err, &sizeErr) {
		return false
	}
	logger.Debug("模板 %dx%d 大于截图 %dx%d，视为未找到",
		sizeErr.SearchSize[0], sizeErr.SearchSize[1], sizeErr.SourceSize[0], sizeErr.SourceSize[1])
	return true
}

// ImageSizeError 模板尺寸大于截图
type ImageSizeError struct {
	SourceSize [2]int
	SearchSize [2]int
}

func (e *ImageSizeError) Error() string {
	return "搜索图像尺寸大于源图像"
}
