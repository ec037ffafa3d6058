// Package debug 在截图上绘制匹配框与 OCR 结果，输出诊断图
package debug

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/golang/freetype"
	"gocv.io/x/gocv"
	"golang.org/x/image/font"

	"github.com/zoeyai/droidauto/internal/logger"
	"github.com/zoeyai/droidauto/pkg/vision/cv"
	"github.com/zoeyai/droidauto/pkg/vision/ocr"
)

// 默认绘制参数
const (
	DefaultThickness = 2
	DefaultFontSize  = 14
)

// DefaultColor 默认框颜色
var DefaultColor = color.RGBA{R: 0, G: 255, B: 0, A: 255}

// Box 待绘制的矩形框，Label 为空时只画框
type Box struct {
	X1, Y1, X2, Y2 int
	Label          string
}

// BoxFromMatch 由匹配结果构造矩形框
func BoxFromMatch(m *cv.MatchResult, label string) Box {
	r := m.Rectangle
	return Box{X1: r.TopLeft.X, Y1: r.TopLeft.Y, X2: r.BottomRight.X, Y2: r.BottomRight.Y, Label: label}
}

// BoxFromRecord 由 OCR 记录构造矩形框，标签为识别出的文字
func BoxFromRecord(rec ocr.Record) Box {
	return Box{
		X1:    int(rec.Rect.XStart),
		Y1:    int(rec.Rect.YStart),
		X2:    int(rec.Rect.XEnd),
		Y2:    int(rec.Rect.YEnd),
		Label: rec.Text,
	}
}

// Options 绘制选项
type Options struct {
	Color     color.RGBA
	Thickness int
	// FontPath TTF 字体路径，为空时使用内置字体（不含中文字形）
	FontPath string
	FontSize float64
}

// Option 配置选项函数类型
type Option func(*Options)

// WithColor 设置框与文字颜色
func WithColor(c color.RGBA) Option {
	return func(o *Options) { o.Color = c }
}

// WithThickness 设置线宽
func WithThickness(t int) Option {
	return func(o *Options) {
		if t > 0 {
			o.Thickness = t
		}
	}
}

// WithFont 设置标签字体
func WithFont(path string, size float64) Option {
	return func(o *Options) {
		o.FontPath = path
		if size > 0 {
			o.FontSize = size
		}
	}
}

// DrawBoundingBoxes 在图片上绘制矩形框并保存到 outputPath
// thickness <= 0 时使用默认线宽
func DrawBoundingBoxes(imagePath string, boxes []Box, outputPath string, col color.RGBA, thickness int) error {
	return DrawLabeledBoxes(imagePath, boxes, outputPath, WithColor(col), WithThickness(thickness))
}

// DrawLabeledBoxes 绘制矩形框，并在框的左上方写出标签
func DrawLabeledBoxes(imagePath string, boxes []Box, outputPath string, opts ...Option) error {
	o := &Options{Color: DefaultColor, Thickness: DefaultThickness, FontSize: DefaultFontSize}
	for _, opt := range opts {
		opt(o)
	}

	mat, err := cv.ReadImage(imagePath)
	if err != nil {
		return err
	}
	defer mat.Close()

	for _, b := range boxes {
		gocv.Rectangle(&mat, image.Rect(b.X1, b.Y1, b.X2, b.Y2), o.Color, o.Thickness)
	}

	if hasLabels(boxes) {
		labeled, err := drawLabels(mat, boxes, o)
		if err != nil {
			return err
		}
		defer labeled.Close()
		mat.Close()
		mat = labeled
	}

	if err := cv.WriteImage(outputPath, mat); err != nil {
		return err
	}
	logger.Debug("诊断图已保存: %s (%d 个框)", outputPath, len(boxes))
	return nil
}

func hasLabels(boxes []Box) bool {
	for _, b := range boxes {
		if b.Label != "" {
			return true
		}
	}
	return false
}

// drawLabels 转为 RGBA 后用 TrueType 字体绘制标签
func drawLabels(mat gocv.Mat, boxes []Box, o *Options) (gocv.Mat, error) {
	f, err := LoadFont(o.FontPath)
	if err != nil {
		return gocv.Mat{}, err
	}

	img, err := cv.MatToImage(mat)
	if err != nil {
		return gocv.Mat{}, err
	}
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)

	c := freetype.NewContext()
	c.SetDPI(72)
	c.SetFont(f)
	c.SetFontSize(o.FontSize)
	c.SetClip(rgba.Bounds())
	c.SetDst(rgba)
	c.SetSrc(image.NewUniform(o.Color))
	c.SetHinting(font.HintingFull)

	for _, b := range boxes {
		if b.Label == "" {
			continue
		}
		// 基线放在框上方，顶部放不下时写在框内
		y := b.Y1 - o.Thickness - 2
		if y < int(o.FontSize) {
			y = b.Y1 + int(o.FontSize)
		}
		if _, err := c.DrawString(b.Label, freetype.Pt(b.X1, y)); err != nil {
			return gocv.Mat{}, fmt.Errorf("绘制标签失败: %w", err)
		}
	}
	return cv.ImageToMat(rgba)
}
