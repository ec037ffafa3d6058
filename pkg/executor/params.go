package executor

import (
	"fmt"
	"strconv"
	"time"

	"github.com/zoeyai/droidauto/pkg/auto"
)

type params map[string]interface{}

// number 兼容 YAML (int) 与 JSON (float64) 解码出的数字
func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

func (p params) has(key string) bool {
	_, ok := p[key]
	return ok
}

func (p params) Str(key string) (string, error) {
	v, ok := p[key]
	if !ok {
		return "", missingParam(key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", &ParamError{Param: key, Message: "必须是非空字符串"}
	}
	return s, nil
}

func (p params) Int(key string) (int, error) {
	v, ok := p[key]
	if !ok {
		return 0, missingParam(key)
	}
	n, ok := number(v)
	if !ok {
		return 0, &ParamError{Param: key, Message: fmt.Sprintf("不是数字: %v", v)}
	}
	return int(n), nil
}

// IntOr 参数不存在时返回 def
func (p params) IntOr(key string, def int) (int, error) {
	if !p.has(key) {
		return def, nil
	}
	return p.Int(key)
}

func (p params) Float(key string) (float64, error) {
	v, ok := p[key]
	if !ok {
		return 0, missingParam(key)
	}
	n, ok := number(v)
	if !ok {
		return 0, &ParamError{Param: key, Message: fmt.Sprintf("不是数字: %v", v)}
	}
	return n, nil
}

func (p params) Bool(key string, def bool) bool {
	if b, ok := p[key].(bool); ok {
		return b
	}
	return def
}

// Ints 解析 n 个整数组成的列表，如 region: [0, 0, 100, 50]
func (p params) Ints(key string, n int) ([]int, error) {
	list, ok := p[key].([]interface{})
	if !ok || len(list) != n {
		return nil, &ParamError{Param: key, Message: fmt.Sprintf("需要 %d 个数字", n)}
	}
	values := make([]int, n)
	for i, v := range list {
		f, ok := number(v)
		if !ok {
			return nil, &ParamError{Param: key, Message: fmt.Sprintf("不是数字: %v", v)}
		}
		values[i] = int(f)
	}
	return values, nil
}

// autoOptions 解析通用的查找与点击参数
// timeout 单位为秒，interval/duration 单位为毫秒
func (p params) autoOptions() ([]auto.Option, error) {
	var opts []auto.Option

	if p.has("timeout") {
		sec, err := p.Float("timeout")
		if err != nil {
			return nil, err
		}
		opts = append(opts, auto.WithTimeout(time.Duration(sec*float64(time.Second))))
	}
	if p.has("interval") {
		ms, err := p.Int("interval")
		if err != nil {
			return nil, err
		}
		opts = append(opts, auto.WithPollInterval(time.Duration(ms)*time.Millisecond))
	}
	if p.has("threshold") {
		t, err := p.Float("threshold")
		if err != nil {
			return nil, err
		}
		if t < 0 || t > 1 {
			return nil, &ParamError{Param: "threshold", Message: "必须在 [0,1] 范围内"}
		}
		opts = append(opts, auto.WithThreshold(t))
	}
	if p.has("duration") {
		ms, err := p.Int("duration")
		if err != nil {
			return nil, err
		}
		opts = append(opts, auto.WithDuration(ms))
	}
	if p.has("offset") {
		v, err := p.Ints("offset", 2)
		if err != nil {
			return nil, err
		}
		opts = append(opts, auto.WithClickOffset(v[0], v[1]))
	}
	if p.has("region") {
		v, err := p.Ints("region", 4)
		if err != nil {
			return nil, err
		}
		opts = append(opts, auto.WithRegion(v[0], v[1], v[2], v[3]))
	}
	if grid, ok := p["grid"].(string); ok && grid != "" {
		if _, err := auto.ParseGridPosition(grid); err != nil {
			return nil, &ParamError{Param: "grid", Message: err.Error()}
		}
		opts = append(opts, auto.WithGrid(grid))
	}
	if p.Bool("double", false) {
		opts = append(opts, auto.WithDoubleTap())
	}
	return opts, nil
}
