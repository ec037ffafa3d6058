package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/zoeyai/droidauto/pkg/auto"
	"github.com/zoeyai/droidauto/pkg/vision/cv"
	"github.com/zoeyai/droidauto/pkg/vision/debug"
	"github.com/zoeyai/droidauto/pkg/vision/ocr"
)

// parseRegion 解析 "x,y,w,h"
func parseRegion(s string) (*cv.Region, error) {
	if s == "" {
		return nil, nil
	}
	v, err := parseInts(strings.Split(s, ","), 4)
	if err != nil {
		return nil, fmt.Errorf("无效的区域 %q: %w", s, err)
	}
	return &cv.Region{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, nil
}

// scaleRange 多尺度参数 "min,max,steps"
type scaleRange struct {
	min, max float64
	steps    int
}

func parseScale(s string) (*scaleRange, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return nil, fmt.Errorf("无效的缩放参数 %q (期望格式: min,max,steps)", s)
	}
	lo, err1 := strconv.ParseFloat(parts[0], 64)
	hi, err2 := strconv.ParseFloat(parts[1], 64)
	steps, err3 := strconv.Atoi(parts[2])
	if err := errors.Join(err1, err2, err3); err != nil {
		return nil, fmt.Errorf("无效的缩放参数 %q: %w", s, err)
	}
	if lo <= 0 || hi < lo || steps < 1 {
		return nil, fmt.Errorf("无效的缩放参数 %q", s)
	}
	return &scaleRange{min: lo, max: hi, steps: steps}, nil
}

// screenSource 返回本地截图路径，未指定时从设备截图到临时文件
func screenSource(ctx context.Context, app *App, local string) (string, func(), error) {
	if local != "" {
		return local, func() {}, nil
	}
	device, err := app.Device(ctx)
	if err != nil {
		return "", nil, err
	}

	dir, err := os.MkdirTemp("", "droidauto-")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { os.RemoveAll(dir) }

	path := filepath.Join(dir, "screen.png")
	mat, err := device.Screenshot(ctx, path)
	if err != nil {
		cleanup()
		return "", nil, err
	}
	mat.Close()
	return path, cleanup, nil
}

func runFind(ctx context.Context, app *App, args []string) error {
	fs := newFlagSet("find")
	var (
		screen    = fs.String("screen", "", "本地截图，为空时从设备截图")
		template  = fs.String("template", "", "模板图片路径")
		name      = fs.String("name", "", "模板清单中的元素名")
		threshold = fs.Float64("threshold", 0, "匹配阈值，0 使用配置值")
		all       = fs.Bool("all", false, "输出所有达到阈值的位置")
		region    = fs.String("region", "", "搜索区域 x,y,w,h")
		scale     = fs.String("scale", "", "多尺度匹配 min,max,steps")
		method    = fs.String("method", "", "相关性度量 (ccoeff_normed/ccorr_normed/sqdiff_normed ...)")
		gray      = fs.Bool("gray", false, "灰度匹配")
		debugOut  = fs.String("debug", "", "输出诊断图路径")
		tap       = fs.Bool("tap", false, "点击最佳位置")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if (*template == "") == (*name == "") {
		return fmt.Errorf("需要且只能指定 -template 或 -name 之一")
	}

	reg, err := parseRegion(*region)
	if err != nil {
		return err
	}
	sc, err := parseScale(*scale)
	if err != nil {
		return err
	}
	m, err := cv.ParseMatchMethod(*method)
	if err != nil {
		return err
	}

	screenPath, cleanup, err := screenSource(ctx, app, *screen)
	if err != nil {
		return err
	}
	defer cleanup()

	var results []*cv.MatchResult
	label := *name
	if *name != "" {
		results, err = findElement(app, screenPath, *name, *threshold, reg, *all)
	} else {
		label = filepath.Base(*template)
		thr := *threshold
		if thr <= 0 {
			thr = app.cfg.Threshold
		}
		opts := []cv.Option{cv.WithThreshold(thr), cv.WithMethod(m), cv.WithGray(*gray)}
		results, err = findTemplate(screenPath, *template, reg, sc, *all, opts)
	}
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("[INFO] 未找到")
	}
	for _, r := range results {
		fmt.Printf("(%d, %d) conf=%.3f scale=%.2f\n", r.Result.X, r.Result.Y, r.Confidence, r.Scale)
	}

	if *debugOut != "" && len(results) > 0 {
		boxes := make([]debug.Box, len(results))
		for i, r := range results {
			boxes[i] = debug.BoxFromMatch(r, fmt.Sprintf("%s %.2f", label, r.Confidence))
		}
		if err := debug.DrawLabeledBoxes(screenPath, boxes, *debugOut); err != nil {
			return err
		}
		fmt.Printf("[INFO] 诊断图已保存: %s\n", *debugOut)
	}

	if *tap {
		if len(results) == 0 {
			return auto.ErrNotFound
		}
		device, err := app.Device(ctx)
		if err != nil {
			return err
		}
		return device.Tap(ctx, results[0].Result.X, results[0].Result.Y, 0)
	}
	return nil
}

func findElement(app *App, screenPath, name string, threshold float64, region *cv.Region, all bool) ([]*cv.MatchResult, error) {
	loc, err := app.Locator()
	if err != nil {
		return nil, err
	}
	if all {
		return loc.FindMultipleElements(screenPath, name, threshold)
	}
	r, err := loc.FindElement(screenPath, name, threshold, region)
	if err != nil || r == nil {
		return nil, err
	}
	return []*cv.MatchResult{r}, nil
}

func findTemplate(screenPath, template string, region *cv.Region, sc *scaleRange, all bool, opts []cv.Option) ([]*cv.MatchResult, error) {
	var (
		r   *cv.MatchResult
		err error
	)
	switch {
	case all:
		return cv.FindAllTemplates(screenPath, template, opts...)
	case sc != nil:
		r, err = cv.FindTemplateWithScale(screenPath, template, sc.min, sc.max, sc.steps, opts...)
	case region != nil:
		r, err = cv.FindTemplateInRegion(screenPath, template, *region, opts...)
	default:
		r, err = cv.FindTemplate(screenPath, template, opts...)
	}
	if err != nil || r == nil {
		return nil, err
	}
	return []*cv.MatchResult{r}, nil
}

func runWait(ctx context.Context, app *App, args []string) error {
	fs := newFlagSet("wait")
	var (
		name     = fs.String("name", "", "模板清单中的元素名")
		text     = fs.String("text", "", "等待的文字 (OCR)")
		timeout  = fs.Duration("timeout", app.cfg.WaitTimeout(), "超时时间")
		interval = fs.Duration("interval", app.cfg.PollInterval(), "轮询间隔")
		tap      = fs.Bool("tap", false, "出现后点击")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if (*name == "") == (*text == "") {
		return fmt.Errorf("需要且只能指定 -name 或 -text 之一")
	}

	a, err := app.Automator(ctx, *text != "")
	if err != nil {
		return err
	}
	opts := []auto.Option{auto.WithTimeout(*timeout), auto.WithPollInterval(*interval)}

	start := time.Now()
	switch {
	case *text != "" && *tap:
		err = a.TapText(ctx, *text, opts...)
	case *text != "":
		var rec *ocr.Record
		if rec, err = a.WaitForText(ctx, *text, opts...); err == nil {
			fmt.Printf("%s (%d, %d)\n", rec.Text, rec.Center.X, rec.Center.Y)
		}
	case *tap:
		err = a.WaitAndTapElement(ctx, *name, opts...)
	default:
		var r *cv.MatchResult
		r, err = a.Locator().WaitForElement(ctx, func(ctx context.Context) (interface{}, error) {
			return a.Screenshot(ctx)
		}, *name, *timeout, *interval, 0)
		if err == nil {
			fmt.Printf("(%d, %d) conf=%.3f\n", r.Result.X, r.Result.Y, r.Confidence)
		}
	}
	if err != nil {
		return err
	}
	fmt.Printf("[INFO] 完成, 耗时 %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

func runOCR(ctx context.Context, app *App, args []string) error {
	fs := newFlagSet("ocr")
	var (
		screen   = fs.String("screen", "", "本地截图，为空时从设备截图")
		find     = fs.String("find", "", "只输出包含该文字的结果")
		region   = fs.String("region", "", "只保留中心点在区域 x,y,w,h 内的结果")
		debugOut = fs.String("debug", "", "输出诊断图路径")
		fontPath = fs.String("font", "", "诊断图标签字体 (TTF)")
		tap      = fs.Bool("tap", false, "点击第一个匹配结果")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	reg, err := parseRegion(*region)
	if err != nil {
		return err
	}

	recognizer, err := app.Recognizer()
	if err != nil {
		return err
	}
	screenPath, cleanup, err := screenSource(ctx, app, *screen)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := recognizer.Recognize(ctx, screenPath)
	if err != nil {
		return err
	}

	records := result.Records()
	switch {
	case reg != nil:
		records = result.TryGetTextCoordInRange(*find, reg.X, reg.Y, reg.X+reg.Width, reg.Y+reg.Height)
	case *find != "":
		records = result.TryGetTextCoord(*find)
	}
	for _, rec := range records {
		fmt.Printf("%-20s (%d, %d)\n", rec.Text, rec.Center.X, rec.Center.Y)
	}

	if *debugOut != "" {
		boxes := make([]debug.Box, len(records))
		for i, rec := range records {
			boxes[i] = debug.BoxFromRecord(rec)
		}
		if err := debug.DrawLabeledBoxes(screenPath, boxes, *debugOut, debug.WithFont(*fontPath, 0)); err != nil {
			return err
		}
		fmt.Printf("[INFO] 诊断图已保存: %s\n", *debugOut)
	}

	if *tap {
		if len(records) == 0 {
			return auto.ErrNotFound
		}
		device, err := app.Device(ctx)
		if err != nil {
			return err
		}
		return device.Tap(ctx, records[0].Center.X, records[0].Center.Y, 0)
	}
	return nil
}
