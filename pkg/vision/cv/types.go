package cv

import (
	"image"
)

// Point 表示二维坐标点
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Rectangle 表示矩形区域（四个角点）
type Rectangle struct {
	TopLeft     Point `json:"top_left"`
	BottomLeft  Point `json:"bottom_left"`
	BottomRight Point `json:"bottom_right"`
	TopRight    Point `json:"top_right"`
}

// Width 矩形宽度
func (r Rectangle) Width() int {
	return r.TopRight.X - r.TopLeft.X
}

// Height 矩形高度
func (r Rectangle) Height() int {
	return r.BottomLeft.Y - r.TopLeft.Y
}

// ToImageRect 转换为 image.Rectangle
func (r Rectangle) ToImageRect() image.Rectangle {
	return image.Rect(r.TopLeft.X, r.TopLeft.Y, r.BottomRight.X, r.BottomRight.Y)
}

// translate 平移矩形
func (r Rectangle) translate(dx, dy int) Rectangle {
	return Rectangle{
		TopLeft:     Point{X: r.TopLeft.X + dx, Y: r.TopLeft.Y + dy},
		BottomLeft:  Point{X: r.BottomLeft.X + dx, Y: r.BottomLeft.Y + dy},
		BottomRight: Point{X: r.BottomRight.X + dx, Y: r.BottomRight.Y + dy},
		TopRight:    Point{X: r.TopRight.X + dx, Y: r.TopRight.Y + dy},
	}
}

// Region 搜索区域，左上角坐标加宽高（截图绝对坐标）
type Region struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// ToImageRect 转换为 image.Rectangle
func (r Region) ToImageRect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// MatchResult 图像匹配结果
type MatchResult struct {
	// Result 匹配到的中心点坐标
	Result Point `json:"result"`
	// Rectangle 匹配区域的四个角点
	Rectangle Rectangle `json:"rectangle"`
	// Confidence 匹配置信度，距离类方法为 1 - 距离
	Confidence float64 `json:"confidence"`
	// Scale 命中时模板的缩放比例，非多尺度匹配为 1
	Scale float64 `json:"scale"`
	// Time 匹配耗时（毫秒）
	Time float64 `json:"time,omitempty"`
}

// translate 将结果平移到上层坐标系
func (m *MatchResult) translate(dx, dy int) {
	m.Result = Point{X: m.Result.X + dx, Y: m.Result.Y + dy}
	m.Rectangle = m.Rectangle.translate(dx, dy)
}
