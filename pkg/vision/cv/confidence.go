package cv

import (
	"fmt"
	"image"
	"strings"

	"gocv.io/x/gocv"
)

// MatchMethod 相关性度量方法
type MatchMethod string

const (
	MethodSqdiff       MatchMethod = "sqdiff"
	MethodSqdiffNormed MatchMethod = "sqdiff_normed"
	MethodCcorr        MatchMethod = "ccorr"
	MethodCcorrNormed  MatchMethod = "ccorr_normed"
	MethodCcoeff       MatchMethod = "ccoeff"
	MethodCcoeffNormed MatchMethod = "ccoeff_normed"
)

// DefaultMethod 默认度量方法（归一化相关系数）
const DefaultMethod = MethodCcoeffNormed

var methodModes = map[MatchMethod]gocv.TemplateMatchMode{
	MethodSqdiff:       gocv.TmSqdiff,
	MethodSqdiffNormed: gocv.TmSqdiffNormed,
	MethodCcorr:        gocv.TmCcorr,
	MethodCcorrNormed:  gocv.TmCcorrNormed,
	MethodCcoeff:       gocv.TmCcoeff,
	MethodCcoeffNormed: gocv.TmCcoeffNormed,
}

// ParseMatchMethod 解析度量方法名称
func ParseMatchMethod(s string) (MatchMethod, error) {
	m := MatchMethod(strings.ToLower(strings.TrimSpace(s)))
	if m == "" {
		return DefaultMethod, nil
	}
	if _, ok := methodModes[m]; !ok {
		return "", fmt.Errorf("不支持的匹配方法: %s", s)
	}
	return m, nil
}

// IsDistance 距离类方法的最优点是最小值
func (m MatchMethod) IsDistance() bool {
	return m == MethodSqdiff || m == MethodSqdiffNormed
}

func (m MatchMethod) mode() gocv.TemplateMatchMode {
	if mode, ok := methodModes[m]; ok {
		return mode
	}
	return gocv.TmCcoeffNormed
}

// Confidence 将相关性曲面上的取值转换为置信度
func (m MatchMethod) Confidence(value float32) float64 {
	if m.IsDistance() {
		return 1 - float64(value)
	}
	return float64(value)
}

// bestLocation 根据方法类型选择全局最优点及其置信度
func (m MatchMethod) bestLocation(result gocv.Mat) (image.Point, float64) {
	minVal, maxVal, minLoc, maxLoc := gocv.MinMaxLoc(result)
	if m.IsDistance() {
		return minLoc, m.Confidence(minVal)
	}
	return maxLoc, m.Confidence(maxVal)
}
