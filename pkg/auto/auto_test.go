package auto

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/zoeyai/droidauto/pkg/adb"
	"github.com/zoeyai/droidauto/pkg/locator"
	"github.com/zoeyai/droidauto/pkg/vision/cv"
	"github.com/zoeyai/droidauto/pkg/vision/ocr"
)

var _ Device = (*adb.Bridge)(nil)

type tap struct{ X, Y, Duration int }

// fakeDevice 每次截图都读取同一张图片，并记录点击
// failures 为前几次截图返回的错误次数
type fakeDevice struct {
	mu          sync.Mutex
	screenPath  string
	err         error
	failures    int
	screenshots int
	taps        []tap
}

func (d *fakeDevice) Screenshot(_ context.Context, _ string) (gocv.Mat, error) {
	d.mu.Lock()
	d.screenshots++
	flaky := d.failures > 0
	if flaky {
		d.failures--
	}
	d.mu.Unlock()
	if d.err != nil {
		return gocv.Mat{}, d.err
	}
	if flaky {
		return gocv.Mat{}, errors.New("screencap 超时")
	}
	return cv.ReadImage(d.screenPath)
}

func (d *fakeDevice) Tap(_ context.Context, x, y, durationMs int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.taps = append(d.taps, tap{x, y, durationMs})
	return nil
}

type fakeEngine struct {
	pages []ocr.RawPage
}

func (f *fakeEngine) Predict(_ context.Context, _ image.Image) ([]ocr.RawPage, error) {
	return f.pages, nil
}

func (f *fakeEngine) Close() error { return nil }

func noiseImage(w, h int, seed int64) *image.RGBA {
	r := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(r.Intn(256)), uint8(r.Intn(256)), uint8(r.Intn(256)), 255})
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

// fixture 截图 200x120，按钮取自 (50,30) 大小 40x20，中心 (70,40)；
// missing 为另一张噪声图，不会出现在截图中
func fixture(t *testing.T) (device *fakeDevice, button, missing string) {
	t.Helper()
	dir := t.TempDir()
	screen := noiseImage(200, 120, 7)
	screenPath := filepath.Join(dir, "screen.png")
	button = filepath.Join(dir, "button.png")
	missing = filepath.Join(dir, "missing.png")
	writePNG(t, screenPath, screen)
	writePNG(t, button, screen.SubImage(image.Rect(50, 30, 90, 50)))
	writePNG(t, missing, noiseImage(40, 20, 99))
	return &fakeDevice{screenPath: screenPath}, button, missing
}

func TestFindImageOnScreen(t *testing.T) {
	device, button, missing := fixture(t)
	a := New(device, nil, nil)
	ctx := context.Background()

	result, err := a.FindImageOnScreen(ctx, button, 0.9)
	if err != nil {
		t.Fatal(err)
	}
	if result == nil || result.Result != (cv.Point{X: 70, Y: 40}) {
		t.Fatalf("匹配结果错误: %+v", result)
	}
	if got := MatchRegion(result); got != (cv.Region{X: 50, Y: 30, Width: 40, Height: 20}) {
		t.Errorf("MatchRegion() = %+v", got)
	}

	result, err = a.FindImageOnScreen(ctx, missing, 0.9)
	if err != nil || result != nil {
		t.Errorf("不存在的图片应返回 (nil, nil): %+v %v", result, err)
	}
	if !a.ImageExists(ctx, button) || a.ImageExists(ctx, missing) {
		t.Error("ImageExists 结果错误")
	}
}

func TestTapImage(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want []tap
	}{
		{"center", nil, []tap{{70, 40, 0}}},
		{"offset", []Option{WithClickOffset(1, -2)}, []tap{{71, 38, 0}}},
		{"grid", []Option{WithGrid("2.2.2.2")}, []tap{{80, 45, 0}}},
		{"long press", []Option{WithDuration(800)}, []tap{{70, 40, 800}}},
		{"double", []Option{WithDoubleTap()}, []tap{{70, 40, 0}, {70, 40, 0}}},
		{"region", []Option{WithRegion(40, 20, 80, 50)}, []tap{{70, 40, 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device, button, _ := fixture(t)
			a := New(device, nil, nil)
			opts := append([]Option{WithTimeout(0)}, tt.opts...)
			if err := a.TapImage(context.Background(), button, opts...); err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(device.taps, tt.want) {
				t.Errorf("taps = %v, want %v", device.taps, tt.want)
			}
		})
	}
}

func TestTapImageInvalidGrid(t *testing.T) {
	device, button, _ := fixture(t)
	a := New(device, nil, nil)
	if err := a.TapImage(context.Background(), button, WithTimeout(0), WithGrid("2.2.3.1")); err == nil {
		t.Fatal("无效网格应返回错误")
	}
	if len(device.taps) != 0 {
		t.Errorf("不应点击: %v", device.taps)
	}
}

func TestTapImageNotFound(t *testing.T) {
	device, _, missing := fixture(t)
	a := New(device, nil, nil)

	err := a.TapImage(context.Background(), missing,
		WithTimeout(50*time.Millisecond), WithPollInterval(10*time.Millisecond))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if device.screenshots < 2 {
		t.Errorf("应多次截图, 实际 %d 次", device.screenshots)
	}
	if len(device.taps) != 0 {
		t.Errorf("不应点击: %v", device.taps)
	}
}

func TestTapImageScreenshotError(t *testing.T) {
	device, button, _ := fixture(t)
	device.err = errors.New("device offline")
	a := New(device, nil, nil)

	err := a.TapImage(context.Background(), button, WithTimeout(0))
	if err == nil || !errors.Is(err, device.err) {
		t.Fatalf("err = %v", err)
	}
	if device.screenshots != 1 {
		t.Errorf("只尝试一次时截图出错应立即返回, 截图 %d 次", device.screenshots)
	}
}

func TestTapImageRetriesAfterScreenshotError(t *testing.T) {
	device, button, _ := fixture(t)
	device.failures = 2
	a := New(device, nil, nil)

	err := a.TapImage(context.Background(), button,
		WithTimeout(time.Second), WithPollInterval(5*time.Millisecond))
	if err != nil {
		t.Fatalf("截图恢复后应继续轮询并找到目标: %v", err)
	}
	if device.screenshots != 3 {
		t.Errorf("截图 %d 次, want 3", device.screenshots)
	}
	if len(device.taps) != 1 || device.taps[0] != (tap{70, 40, 0}) {
		t.Errorf("taps = %v", device.taps)
	}
}

func TestWaitForImageScreenshotErrorTimeout(t *testing.T) {
	device, button, _ := fixture(t)
	device.err = errors.New("device offline")
	a := New(device, nil, nil)

	_, err := a.WaitForImage(context.Background(), button,
		WithTimeout(50*time.Millisecond), WithPollInterval(10*time.Millisecond))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if !strings.Contains(err.Error(), "device offline") {
		t.Errorf("超时错误应包含最后一次截图错误: %v", err)
	}
	if device.screenshots < 2 {
		t.Errorf("截图出错后应继续轮询, 截图 %d 次", device.screenshots)
	}
}

func TestWaitForTextRetriesAfterScreenshotError(t *testing.T) {
	device, _, _ := fixture(t)
	device.failures = 1
	engine := &fakeEngine{pages: []ocr.RawPage{{
		RecTexts: []string{"开始游戏"},
		RecPolys: [][][2]float64{{{100, 100}, {180, 100}, {180, 140}, {100, 140}}},
	}}}
	a := New(device, nil, ocr.NewTextRecognizer(engine))

	rec, err := a.WaitForText(context.Background(), "开始",
		WithTimeout(time.Second), WithPollInterval(5*time.Millisecond))
	if err != nil || rec == nil {
		t.Fatalf("WaitForText() = %v, %v", rec, err)
	}
	if device.screenshots != 2 {
		t.Errorf("截图 %d 次, want 2", device.screenshots)
	}
}

func TestFindImageOnScreenDefaultThreshold(t *testing.T) {
	device, _, missing := fixture(t)
	a := New(device, nil, nil)

	result, err := a.FindImageOnScreen(context.Background(), missing, 0)
	if err != nil {
		t.Fatal(err)
	}
	if result != nil {
		t.Errorf("阈值为 0 时应使用默认阈值, 不应匹配噪声模板: %+v", result)
	}
}

func TestTapImageCanceled(t *testing.T) {
	device, _, missing := fixture(t)
	a := New(device, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := a.TapImage(ctx, missing, WithTimeout(time.Minute))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestElements(t *testing.T) {
	device, button, _ := fixture(t)
	loc := locator.New()
	if err := loc.LoadTemplate("button", button); err != nil {
		t.Fatal(err)
	}
	a := New(device, loc, nil)
	ctx := context.Background()

	if err := a.TapElement(ctx, "button"); err != nil {
		t.Fatal(err)
	}
	if err := a.WaitAndTapElement(ctx, "button", WithTimeout(time.Second), WithDuration(500)); err != nil {
		t.Fatal(err)
	}
	want := []tap{{70, 40, 0}, {70, 40, 500}}
	if !reflect.DeepEqual(device.taps, want) {
		t.Errorf("taps = %v, want %v", device.taps, want)
	}

	if err := a.TapElement(ctx, "close"); !errors.Is(err, locator.ErrTemplateNotFound) {
		t.Errorf("未登记元素: err = %v", err)
	}
	if err := a.TapElement(ctx, "button", WithRegion(150, 80, 50, 40)); !errors.Is(err, ErrNotFound) {
		t.Errorf("区域外元素: err = %v", err)
	}
}

func TestTapText(t *testing.T) {
	device, _, _ := fixture(t)
	engine := &fakeEngine{pages: []ocr.RawPage{{
		RecTexts: []string{"开始游戏"},
		RecPolys: [][][2]float64{{{100, 100}, {180, 100}, {180, 140}, {100, 140}}},
	}}}
	a := New(device, nil, ocr.NewTextRecognizer(engine))
	ctx := context.Background()

	if err := a.TapText(ctx, "游戏", WithTimeout(0)); err != nil {
		t.Fatal(err)
	}
	if want := []tap{{120, 120, 0}}; !reflect.DeepEqual(device.taps, want) {
		t.Errorf("taps = %v, want %v", device.taps, want)
	}

	if err := a.TapText(ctx, "游戏", WithTimeout(0), WithRegion(0, 0, 100, 100)); !errors.Is(err, ErrNotFound) {
		t.Errorf("区域外文字: err = %v", err)
	}
	if err := a.TapText(ctx, "设置", WithTimeout(0)); !errors.Is(err, ErrNotFound) {
		t.Errorf("不存在的文字: err = %v", err)
	}

	text, err := a.GetScreenText(ctx)
	if err != nil || text != "开始游戏" {
		t.Errorf("GetScreenText() = %q, %v", text, err)
	}
}

func TestTextWithoutRecognizer(t *testing.T) {
	device, _, _ := fixture(t)
	a := New(device, nil, nil)
	if _, err := a.FindText(context.Background(), "设置"); !errors.Is(err, ErrNoRecognizer) {
		t.Errorf("err = %v, want ErrNoRecognizer", err)
	}
	if err := a.TapText(context.Background(), "设置"); !errors.Is(err, ErrNoRecognizer) {
		t.Errorf("TapText err = %v, want ErrNoRecognizer", err)
	}
	if device.screenshots != 0 {
		t.Error("无识别器时不应截图")
	}
}

func TestOptions(t *testing.T) {
	o := applyOptions(
		WithTimeout(5*time.Second),
		WithPollInterval(0),
		WithThreshold(0.9),
		WithClickOffset(3, 4),
		WithRegion(1, 2, 3, 4),
		WithGrid("3.3.2.2"),
	)
	if o.Timeout != 5*time.Second || o.Threshold != 0.9 || o.Grid != "3.3.2.2" {
		t.Errorf("选项错误: %+v", o)
	}
	if o.PollInterval != DefaultPollInterval {
		t.Errorf("非正的轮询间隔应被忽略: %v", o.PollInterval)
	}
	if o.ClickOffset != (Point{X: 3, Y: 4}) || *o.Region != (cv.Region{X: 1, Y: 2, Width: 3, Height: 4}) {
		t.Errorf("选项错误: %+v", o)
	}
}
