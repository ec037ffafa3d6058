package ocr

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"
)

// Result 原始识别结果的适配器
// 不缓存，每次访问都从原始页面重新计算
type Result struct {
	pages []RawPage
}

// NewResult 包装原始识别结果
func NewResult(pages ...RawPage) *Result {
	return &Result{pages: pages}
}

// ParseResultJSON 解析 rec_texts/rec_polys 形式的 JSON，支持页面数组或单个页面
func ParseResultJSON(data []byte) (*Result, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		var page RawPage
		if err := json.Unmarshal([]byte(trimmed), &page); err != nil {
			return nil, fmt.Errorf("解析 OCR 结果失败: %w", err)
		}
		return NewResult(page), nil
	}

	var pages []RawPage
	if err := json.Unmarshal([]byte(trimmed), &pages); err != nil {
		return nil, fmt.Errorf("解析 OCR 结果失败: %w", err)
	}
	return NewResult(pages...), nil
}

// Pages 原始页面
func (r *Result) Pages() []RawPage {
	return r.pages
}

// Records 展开所有页面的识别记录
func (r *Result) Records() []Record {
	var records []Record
	for _, page := range r.pages {
		n := min(len(page.RecTexts), len(page.RecPolys))
		for i := 0; i < n; i++ {
			poly := page.RecPolys[i]
			if len(poly) == 0 {
				continue
			}
			records = append(records, newRecord(page.RecTexts[i], poly[0], poly[len(poly)-1]))
		}
	}
	return records
}

// newRecord 由多边形首尾两点构造记录
// 宽度不取自多边形，而是按 字符宽 = 高度 / 字符数 估算
func newRecord(text string, first, last [2]float64) Record {
	yStart := math.Min(first[1], last[1])
	yEnd := math.Max(first[1], last[1])
	xStart := math.Min(first[0], last[0])

	xEnd := xStart
	if n := utf8.RuneCountInString(text); n > 0 {
		perChar := math.Abs(yEnd-yStart) / float64(n)
		xEnd = xStart + perChar*float64(n)
	}

	return Record{
		Text: text,
		Rect: Rect{XStart: xStart, YStart: yStart, XEnd: xEnd, YEnd: yEnd},
		Center: Point{
			X: int((xStart + xEnd) / 2),
			Y: int((yStart + yEnd) / 2),
		},
	}
}

// Texts 所有识别到的文字
func (r *Result) Texts() []string {
	return lo.Map(r.Records(), func(rec Record, _ int) string {
		return rec.Text
	})
}

// TryGetTextCoord 返回文字包含 text 的所有记录
func (r *Result) TryGetTextCoord(text string) []Record {
	return lo.Filter(r.Records(), func(rec Record, _ int) bool {
		return strings.Contains(rec.Text, text)
	})
}

// TryGetTextCoordInRange 返回文字包含 text 且中心点落在矩形内 (含边界) 的记录
// 两个角点顺序任意
func (r *Result) TryGetTextCoordInRange(text string, x1, y1, x2, y2 int) []Record {
	minX, maxX := min(x1, x2), max(x1, x2)
	minY, maxY := min(y1, y2), max(y1, y2)
	return lo.Filter(r.TryGetTextCoord(text), func(rec Record, _ int) bool {
		c := rec.Center
		return c.X >= minX && c.X <= maxX && c.Y >= minY && c.Y <= maxY
	})
}
