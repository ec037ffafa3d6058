package ocr

import (
	"image"
	"strings"
)

// TesseractLanguages Tesseract 默认语言 (简体中文 + 英文)
var TesseractLanguages = []string{"chi_sim", "eng"}

// textBox Tesseract 输出的单行文字框
type textBox struct {
	Rect       image.Rectangle
	Text       string
	Confidence float64 // 0-100
}

// boxesToPage 转换为原始页面，空白文字被跳过，置信度归一化到 [0,1]
func boxesToPage(boxes []textBox) RawPage {
	page := RawPage{
		RecTexts:  make([]string, 0, len(boxes)),
		RecPolys:  make([][][2]float64, 0, len(boxes)),
		RecScores: make([]float64, 0, len(boxes)),
	}
	for _, b := range boxes {
		text := strings.TrimSpace(b.Text)
		if text == "" || b.Rect.Empty() {
			continue
		}
		page.RecTexts = append(page.RecTexts, text)
		page.RecPolys = append(page.RecPolys,
			boxToPoly([4]int{b.Rect.Min.X, b.Rect.Min.Y, b.Rect.Max.X, b.Rect.Max.Y}))
		page.RecScores = append(page.RecScores, b.Confidence/100)
	}
	return page
}
