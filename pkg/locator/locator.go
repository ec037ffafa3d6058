// Package locator 按元素名称查找界面元素
//
// 元素名称映射到模板图片路径，只能通过显式加载新增，不会被移除。
package locator

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/zoeyai/droidauto/internal/logger"
	"github.com/zoeyai/droidauto/pkg/vision/cv"
)

var (
	// ErrTemplateNotFound 元素名称未加载
	ErrTemplateNotFound = errors.New("模板未加载")
	// ErrWaitTimeout 等待元素超时
	ErrWaitTimeout = errors.New("等待元素超时")
)

// Template 已加载的元素模板
type Template struct {
	Name string
	Path string
	// Threshold 为 0 时使用定位器默认阈值
	Threshold float64
	// Region 非空时只在该区域内匹配
	Region *cv.Region
}

type (
	findFunc    func(screen, template interface{}, opts ...cv.Option) (*cv.MatchResult, error)
	findAllFunc func(screen, template interface{}, opts ...cv.Option) ([]*cv.MatchResult, error)
	regionFunc  func(screen, template interface{}, region cv.Region, opts ...cv.Option) (*cv.MatchResult, error)
)

// Locator 元素定位器
type Locator struct {
	mu        sync.RWMutex
	templates map[string]Template
	threshold float64
	matchOpts []cv.Option

	findTemplate   findFunc
	findAll        findAllFunc
	findInRegion   regionFunc
	verifyTemplate func(path string) error
}

// Option 定位器选项
type Option func(*Locator)

// WithDefaultThreshold 设置默认匹配阈值
func WithDefaultThreshold(threshold float64) Option {
	return func(l *Locator) {
		if threshold > 0 {
			l.threshold = threshold
		}
	}
}

// WithMatchOptions 附加匹配选项 (度量方法、灰度等)
func WithMatchOptions(opts ...cv.Option) Option {
	return func(l *Locator) {
		l.matchOpts = append(l.matchOpts, opts...)
	}
}

// New 创建定位器
func New(opts ...Option) *Locator {
	l := &Locator{
		templates:      make(map[string]Template),
		threshold:      cv.DefaultThreshold,
		findTemplate:   cv.FindTemplate,
		findAll:        cv.FindAllTemplates,
		findInRegion:   cv.FindTemplateInRegion,
		verifyTemplate: verifyImage,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// verifyImage 确认模板图片可读
func verifyImage(path string) error {
	img, err := cv.ReadImage(path)
	if err != nil {
		return err
	}
	return img.Close()
}

// LoadTemplate 加载模板，图片不可读时返回错误且不登记
func (l *Locator) LoadTemplate(name, path string) error {
	return l.Register(Template{Name: name, Path: path})
}

// Register 登记模板，同名模板被覆盖
func (l *Locator) Register(t Template) error {
	if t.Name == "" {
		return fmt.Errorf("模板名称不能为空")
	}
	if err := l.verifyTemplate(t.Path); err != nil {
		logger.Error("加载模板 %s 失败: %v", t.Name, err)
		return fmt.Errorf("加载模板 %s 失败: %w", t.Name, err)
	}

	l.mu.Lock()
	l.templates[t.Name] = t
	l.mu.Unlock()

	logger.Debug("已加载模板: %s -> %s", t.Name, t.Path)
	return nil
}

// Template 查询模板
func (l *Locator) Template(name string) (Template, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.templates[name]
	return t, ok
}

// Names 已加载的模板名称，按字母序
func (l *Locator) Names() []string {
	l.mu.RLock()
	names := make([]string, 0, len(l.templates))
	for name := range l.templates {
		names = append(names, name)
	}
	l.mu.RUnlock()

	sort.Strings(names)
	return names
}

func (l *Locator) lookup(name string) (Template, error) {
	t, ok := l.Template(name)
	if !ok {
		logger.LogEvent(logger.CategoryFind, false, 0, fmt.Sprintf("%s: 模板未加载", name))
		return Template{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	return t, nil
}

// options threshold > 0 时覆盖模板阈值
func (l *Locator) options(t Template, threshold float64) []cv.Option {
	if threshold <= 0 {
		threshold = t.Threshold
	}
	if threshold <= 0 {
		threshold = l.threshold
	}
	opts := append([]cv.Option{}, l.matchOpts...)
	return append(opts, cv.WithThreshold(threshold))
}

// FindElement 在截图中查找元素
// region 非空时只在该区域查找，否则使用模板登记的区域；未找到返回 (nil, nil)
func (l *Locator) FindElement(screen interface{}, name string, threshold float64, region *cv.Region) (*cv.MatchResult, error) {
	t, err := l.lookup(name)
	if err != nil {
		return nil, err
	}
	if region == nil {
		region = t.Region
	}

	start := time.Now()
	opts := l.options(t, threshold)
	var result *cv.MatchResult
	if region != nil {
		result, err = l.findInRegion(screen, t.Path, *region, opts...)
	} else {
		result, err = l.findTemplate(screen, t.Path, opts...)
	}

	switch {
	case err != nil:
		logger.LogEvent(logger.CategoryFind, false, logger.Since(start), fmt.Sprintf("%s: %v", name, err))
		return nil, fmt.Errorf("查找元素 %s 失败: %w", name, err)
	case result == nil:
		logger.LogEvent(logger.CategoryFind, false, logger.Since(start), fmt.Sprintf("%s: 未找到", name))
	default:
		logger.LogEvent(logger.CategoryFind, true, logger.Since(start),
			fmt.Sprintf("%s: (%d, %d) conf=%.3f", name, result.Result.X, result.Result.Y, result.Confidence))
	}
	return result, nil
}

// FindMultipleElements 查找元素的所有出现位置，按置信度降序
func (l *Locator) FindMultipleElements(screen interface{}, name string, threshold float64) ([]*cv.MatchResult, error) {
	t, err := l.lookup(name)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	results, err := l.findAll(screen, t.Path, l.options(t, threshold)...)
	if err != nil {
		logger.LogEvent(logger.CategoryFind, false, logger.Since(start), fmt.Sprintf("%s: %v", name, err))
		return nil, fmt.Errorf("查找元素 %s 失败: %w", name, err)
	}
	logger.LogEvent(logger.CategoryFind, len(results) > 0, logger.Since(start),
		fmt.Sprintf("%s: %d 个结果", name, len(results)))
	return results, nil
}

// closeInput 释放截图函数返回的可关闭图像 (gocv.Mat)
func closeInput(v interface{}) {
	switch img := v.(type) {
	case gocv.Mat:
		img.Close()
	case io.Closer:
		img.Close()
	}
}
