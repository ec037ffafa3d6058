package auto

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zoeyai/droidauto/pkg/vision/cv"
)

// GridPosition 网格位置，Row/Col 从 1 开始
type GridPosition struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
	Row  int `json:"row"`
	Col  int `json:"col"`
}

// ParseGridPosition 解析网格位置字符串
// 格式: rows.cols.row.col，如 "2.2.1.1" 表示 2x2 网格的第1行第1列
func ParseGridPosition(s string) (*GridPosition, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return nil, fmt.Errorf("无效的网格位置格式: %q (期望格式: rows.cols.row.col)", s)
	}

	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("无效的网格位置: %q", s)
		}
		v[i] = n
	}

	g := &GridPosition{Rows: v[0], Cols: v[1], Row: v[2], Col: v[3]}
	if g.Rows < 1 || g.Cols < 1 || g.Row < 1 || g.Col < 1 {
		return nil, fmt.Errorf("网格位置必须大于 0: %q", s)
	}
	if g.Row > g.Rows || g.Col > g.Cols {
		return nil, fmt.Errorf("目标位置超出范围: %q", s)
	}
	return g, nil
}

// String 格式化为 rows.cols.row.col
func (g GridPosition) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", g.Rows, g.Cols, g.Row, g.Col)
}

// CalculateGridCenter 计算网格单元格的中心点，grid 为空时返回区域中心
func CalculateGridCenter(rect cv.Region, grid *GridPosition) Point {
	if grid == nil {
		return Point{X: rect.X + rect.Width/2, Y: rect.Y + rect.Height/2}
	}
	cellW := float64(rect.Width) / float64(grid.Cols)
	cellH := float64(rect.Height) / float64(grid.Rows)
	return Point{
		X: int(float64(rect.X) + (float64(grid.Col)-0.5)*cellW),
		Y: int(float64(rect.Y) + (float64(grid.Row)-0.5)*cellH),
	}
}

// CalculateGridCenterFromString gridStr 为空时返回区域中心
func CalculateGridCenterFromString(rect cv.Region, gridStr string) (Point, error) {
	if gridStr == "" {
		return CalculateGridCenter(rect, nil), nil
	}
	grid, err := ParseGridPosition(gridStr)
	if err != nil {
		return Point{}, err
	}
	return CalculateGridCenter(rect, grid), nil
}

// GetGridCellRect 获取网格中指定格子的矩形区域
func GetGridCellRect(rect cv.Region, grid GridPosition) cv.Region {
	cellW := float64(rect.Width) / float64(grid.Cols)
	cellH := float64(rect.Height) / float64(grid.Rows)
	return cv.Region{
		X:      int(float64(rect.X) + float64(grid.Col-1)*cellW),
		Y:      int(float64(rect.Y) + float64(grid.Row-1)*cellH),
		Width:  int(cellW),
		Height: int(cellH),
	}
}

// GridIterator 按行优先遍历网格中所有格子的中心点
type GridIterator struct {
	rect    cv.Region
	rows    int
	cols    int
	current int
}

// NewGridIterator 创建网格迭代器
func NewGridIterator(rect cv.Region, rows, cols int) *GridIterator {
	return &GridIterator{rect: rect, rows: rows, cols: cols}
}

// Next 返回下一个格子中心，遍历完毕返回 nil
func (g *GridIterator) Next() *Point {
	if g.rows < 1 || g.cols < 1 || g.current >= g.rows*g.cols {
		return nil
	}
	grid := &GridPosition{Rows: g.rows, Cols: g.cols, Row: g.current/g.cols + 1, Col: g.current%g.cols + 1}
	g.current++
	p := CalculateGridCenter(g.rect, grid)
	return &p
}

// Reset 重新开始遍历
func (g *GridIterator) Reset() {
	g.current = 0
}
