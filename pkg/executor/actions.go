package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/zoeyai/droidauto/pkg/adb"
	"github.com/zoeyai/droidauto/pkg/auto"
)

func (e *Executor) executeStep(ctx context.Context, step Step) error {
	p := params(step.Params)
	if p == nil {
		p = params{}
	}

	switch step.Type {
	case TaskTypeTap:
		return e.executeTap(ctx, p, 0)
	case TaskTypeLongPress:
		return e.executeTap(ctx, p, adb.DefaultLongPressDuration)
	case TaskTypeSwipe:
		return e.executeSwipe(ctx, p)
	case TaskTypeKeyPress:
		return e.executeKeyPress(ctx, p)
	case TaskTypeTypeText:
		text, err := p.Str("text")
		if err != nil {
			return err
		}
		return e.device.Text(ctx, text)
	case TaskTypeWaitTime:
		return e.executeWaitTime(ctx, p)
	case TaskTypeScreenshot:
		return e.executeScreenshot(ctx, p)
	case TaskTypeStartApp:
		return e.executeStartApp(ctx, p)
	case TaskTypeStopApp:
		pkg, err := p.Str("package")
		if err != nil {
			return err
		}
		return e.device.StopApp(ctx, pkg)
	case TaskTypeClickImage, TaskTypeWaitImage, TaskTypeAssertImage:
		return e.executeImage(ctx, step.Type, p)
	case TaskTypeClickElement, TaskTypeWaitElement:
		return e.executeElement(ctx, step.Type, p)
	case TaskTypeClickText, TaskTypeWaitText, TaskTypeAssertText:
		return e.executeText(ctx, step.Type, p)
	default:
		return &ParamError{Param: "type", Message: fmt.Sprintf("未知的步骤类型: %s", step.Type)}
	}
}

func (e *Executor) executeTap(ctx context.Context, p params, defaultDuration int) error {
	x, err := p.Int("x")
	if err != nil {
		return err
	}
	y, err := p.Int("y")
	if err != nil {
		return err
	}
	duration, err := p.IntOr("duration", defaultDuration)
	if err != nil {
		return err
	}
	return e.device.Tap(ctx, x, y, duration)
}

func (e *Executor) executeSwipe(ctx context.Context, p params) error {
	var v [4]int
	for i, key := range []string{"x1", "y1", "x2", "y2"} {
		n, err := p.Int(key)
		if err != nil {
			return err
		}
		v[i] = n
	}
	duration, err := p.IntOr("duration", adb.DefaultSwipeDuration)
	if err != nil {
		return err
	}
	return e.device.Swipe(ctx, v[0], v[1], v[2], v[3], duration)
}

// executeKeyPress key 支持键码或别名 (home/back/enter ...)
func (e *Executor) executeKeyPress(ctx context.Context, p params) error {
	v, ok := p["key"]
	if !ok {
		return missingParam("key")
	}
	code, err := adb.ParseKey(fmt.Sprint(v))
	if err != nil {
		return &ParamError{Param: "key", Message: err.Error()}
	}
	return e.device.KeyEvent(ctx, code)
}

func (e *Executor) executeWaitTime(ctx context.Context, p params) error {
	ms, err := p.Int("ms")
	if err != nil {
		return err
	}
	timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (e *Executor) executeScreenshot(ctx context.Context, p params) error {
	path, err := p.Str("path")
	if err != nil {
		return err
	}
	mat, err := e.device.Screenshot(ctx, path)
	if err != nil {
		return err
	}
	return mat.Close()
}

func (e *Executor) executeStartApp(ctx context.Context, p params) error {
	pkg, err := p.Str("package")
	if err != nil {
		return err
	}
	activity, err := p.Str("activity")
	if err != nil {
		return err
	}
	return e.device.StartActivity(ctx, pkg, activity)
}

// executeImage click_image/wait_image/assert_image
// assert_image 只截图一次，exists: false 时断言图片不存在
func (e *Executor) executeImage(ctx context.Context, taskType string, p params) error {
	image, err := p.Str("image")
	if err != nil {
		return err
	}
	opts, err := p.autoOptions()
	if err != nil {
		return err
	}

	switch taskType {
	case TaskTypeClickImage:
		return e.auto.TapImage(ctx, image, opts...)
	case TaskTypeWaitImage:
		_, err := e.auto.WaitForImage(ctx, image, opts...)
		return err
	default:
		want := p.Bool("exists", true)
		if got := e.auto.ImageExists(ctx, image, opts...); got != want {
			return fmt.Errorf("%w: 图片 %s 存在=%v, 期望 %v", ErrAssertion, image, got, want)
		}
		return nil
	}
}

// executeElement click_element 未设置 timeout 时只截图一次
func (e *Executor) executeElement(ctx context.Context, taskType string, p params) error {
	name, err := p.Str("name")
	if err != nil {
		return err
	}
	opts, err := p.autoOptions()
	if err != nil {
		return err
	}

	if taskType == TaskTypeClickElement {
		if p.has("timeout") {
			return e.auto.WaitAndTapElement(ctx, name, opts...)
		}
		return e.auto.TapElement(ctx, name, opts...)
	}

	o := auto.DefaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	threshold, _ := p.Float("threshold")
	_, err = e.auto.Locator().WaitForElement(ctx, func(ctx context.Context) (interface{}, error) {
		return e.auto.Screenshot(ctx)
	}, name, o.Timeout, o.PollInterval, threshold)
	return err
}

// executeText click_text/wait_text/assert_text
func (e *Executor) executeText(ctx context.Context, taskType string, p params) error {
	text, err := p.Str("text")
	if err != nil {
		return err
	}
	opts, err := p.autoOptions()
	if err != nil {
		return err
	}

	switch taskType {
	case TaskTypeClickText:
		return e.auto.TapText(ctx, text, opts...)
	case TaskTypeWaitText:
		_, err := e.auto.WaitForText(ctx, text, opts...)
		return err
	default:
		rec, err := e.auto.FindText(ctx, text, opts...)
		if err != nil {
			return err
		}
		want := p.Bool("exists", true)
		if got := rec != nil; got != want {
			return fmt.Errorf("%w: 文字 %q 存在=%v, 期望 %v", ErrAssertion, text, got, want)
		}
		return nil
	}
}
