package auto

import (
	"time"

	"github.com/zoeyai/droidauto/pkg/vision/cv"
)

// DefaultPollInterval 默认轮询间隔
const DefaultPollInterval = time.Second

// Option 配置选项函数类型
type Option func(*Options)

// Options 自动化操作配置
type Options struct {
	// Timeout 等待超时时间，0 表示只尝试一次
	Timeout time.Duration
	// PollInterval 轮询间隔
	PollInterval time.Duration
	// Threshold 图像匹配阈值 (0-1)
	Threshold float64
	// ClickOffset 点击偏移量
	ClickOffset Point
	// Duration 按住时长 (毫秒)，0 为普通点击
	Duration int
	// DoubleTap 是否连点两次
	DoubleTap bool
	// Region 搜索区域 (nil 表示全屏)
	Region *cv.Region
	// Grid 在匹配区域内点击的网格位置，如 "2.2.1.1"
	Grid string
}

// Point 二维坐标点
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// DefaultOptions 默认配置
func DefaultOptions() *Options {
	return &Options{
		Timeout:      10 * time.Second,
		PollInterval: DefaultPollInterval,
		Threshold:    cv.DefaultThreshold,
	}
}

func applyOptions(opts ...Option) *Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithTimeout 设置超时时间
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

// WithPollInterval 设置轮询间隔
func WithPollInterval(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.PollInterval = d
		}
	}
}

// WithThreshold 设置匹配阈值
func WithThreshold(t float64) Option {
	return func(o *Options) {
		o.Threshold = t
	}
}

// WithClickOffset 设置点击偏移量
func WithClickOffset(x, y int) Option {
	return func(o *Options) {
		o.ClickOffset = Point{X: x, Y: y}
	}
}

// WithDuration 设置按住时长 (毫秒)
func WithDuration(ms int) Option {
	return func(o *Options) {
		o.Duration = ms
	}
}

// WithDoubleTap 连点两次
func WithDoubleTap() Option {
	return func(o *Options) {
		o.DoubleTap = true
	}
}

// WithRegion 设置搜索区域
func WithRegion(x, y, width, height int) Option {
	return func(o *Options) {
		o.Region = &cv.Region{X: x, Y: y, Width: width, Height: height}
	}
}

// WithGrid 点击匹配区域内的网格位置
func WithGrid(grid string) Option {
	return func(o *Options) {
		o.Grid = grid
	}
}
