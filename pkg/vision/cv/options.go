package cv

// DefaultThreshold 默认匹配阈值
const DefaultThreshold = 0.8

// Options 匹配选项
type Options struct {
	// Threshold 置信度阈值，结果置信度需 >= 该值
	Threshold float64
	// Method 相关性度量方法
	Method MatchMethod
	// Gray 为 true 时先转为灰度再匹配
	Gray bool
}

// Option 选项函数
type Option func(*Options)

// DefaultOptions 默认选项
func DefaultOptions() Options {
	return Options{
		Threshold: DefaultThreshold,
		Method:    DefaultMethod,
	}
}

// ApplyOptions 在默认选项上应用 opts
func ApplyOptions(opts ...Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.Method == "" {
		o.Method = DefaultMethod
	}
	return o
}

// WithThreshold 设置阈值
func WithThreshold(threshold float64) Option {
	return func(o *Options) {
		o.Threshold = threshold
	}
}

// WithMethod 设置度量方法
func WithMethod(method MatchMethod) Option {
	return func(o *Options) {
		o.Method = method
	}
}

// WithGray 使用灰度图匹配
func WithGray(gray bool) Option {
	return func(o *Options) {
		o.Gray = gray
	}
}
