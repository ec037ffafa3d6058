package cv

import (
	"time"

	"gocv.io/x/gocv"
)

// MultiScaleTemplateMatching 多尺度模板匹配
// 在 [scaleMin, scaleMax] 内线性取 scaleSteps 个缩放比例，逐个缩放模板后匹配，
// 保留达到阈值且置信度最高的比例
type MultiScaleTemplateMatching struct {
	imSearch   gocv.Mat
	imSource   gocv.Mat
	opts       Options
	scaleMin   float64
	scaleMax   float64
	scaleSteps int
}

// NewMultiScaleTemplateMatching 创建多尺度模板匹配器
func NewMultiScaleTemplateMatching(search, source gocv.Mat, opts Options, scaleMin, scaleMax float64, scaleSteps int) *MultiScaleTemplateMatching {
	return &MultiScaleTemplateMatching{
		imSearch:   search,
		imSource:   source,
		opts:       opts,
		scaleMin:   scaleMin,
		scaleMax:   scaleMax,
		scaleSteps: scaleSteps,
	}
}

// FindBestResult 查找各缩放比例中的最佳结果，均未达到阈值时返回 nil
func (m *MultiScaleTemplateMatching) FindBestResult() (*MatchResult, error) {
	startTime := time.Now()

	var best *MatchResult
	for _, scale := range Linspace(m.scaleMin, m.scaleMax, m.scaleSteps) {
		result, err := m.matchAtScale(scale)
		if err != nil {
			return nil, err
		}
		if result == nil {
			continue
		}
		if best == nil || result.Confidence > best.Confidence {
			best = result
		}
	}

	if best != nil {
		best.Time = float64(time.Since(startTime).Milliseconds())
	}
	return best, nil
}

// matchAtScale 在单个缩放比例下匹配，缩放后模板大于截图时跳过
func (m *MultiScaleTemplateMatching) matchAtScale(scale float64) (*MatchResult, error) {
	scaledW := int(float64(m.imSearch.Cols()) * scale)
	scaledH := int(float64(m.imSearch.Rows()) * scale)
	if scaledW < 1 || scaledH < 1 {
		return nil, nil
	}
	if scaledW > m.imSource.Cols() || scaledH > m.imSource.Rows() {
		return nil, nil
	}

	search := m.imSearch
	if scaledW != m.imSearch.Cols() || scaledH != m.imSearch.Rows() {
		search = ResizeImage(m.imSearch, scaledW, scaledH)
		defer search.Close()
	}

	result, err := NewTemplateMatching(search, m.imSource, m.opts).FindBestResult()
	if err != nil || result == nil {
		return nil, err
	}
	result.Scale = scale
	return result, nil
}

// Linspace 返回 [start, stop] 内 n 个等间距取值，n == 1 时只取 start
func Linspace(start, stop float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{start}
	}
	values := make([]float64, n)
	step := (stop - start) / float64(n-1)
	for i := range values {
		values[i] = start + step*float64(i)
	}
	values[n-1] = stop
	return values
}
