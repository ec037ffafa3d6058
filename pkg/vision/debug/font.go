package debug

import (
	"fmt"
	"os"
	"sync"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	defaultFont     *truetype.Font
	defaultFontErr  error
	defaultFontOnce sync.Once
)

// LoadFont 加载 TTF 字体，path 为空时返回内置的 Go Regular
// 中文标签需要传入包含 CJK 字形的字体
func LoadFont(path string) (*truetype.Font, error) {
	if path == "" {
		defaultFontOnce.Do(func() {
			defaultFont, defaultFontErr = freetype.ParseFont(goregular.TTF)
		})
		return defaultFont, defaultFontErr
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取字体失败: %w", err)
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("解析字体失败: %s: %w", path, err)
	}
	return f, nil
}
