// Package executor 按顺序执行 YAML 描述的自动化步骤
package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zoeyai/droidauto/internal/logger"
	"github.com/zoeyai/droidauto/pkg/auto"
	"github.com/zoeyai/droidauto/pkg/locator"
	"github.com/zoeyai/droidauto/pkg/vision/ocr"
)

// Device 执行步骤所需的设备操作，*adb.Bridge 实现了该接口
type Device interface {
	auto.Device
	Swipe(ctx context.Context, x1, y1, x2, y2, durationMs int) error
	KeyEvent(ctx context.Context, keyCode int) error
	Text(ctx context.Context, text string) error
	StartActivity(ctx context.Context, packageName, activity string) error
	StopApp(ctx context.Context, packageName string) error
}

// tapRecorder 记录最近一次点击位置
type tapRecorder struct {
	Device
	mu   sync.Mutex
	last *PositionInfo
}

func (r *tapRecorder) Tap(ctx context.Context, x, y, durationMs int) error {
	if err := r.Device.Tap(ctx, x, y, durationMs); err != nil {
		return err
	}
	r.mu.Lock()
	r.last = &PositionInfo{X: x, Y: y}
	r.mu.Unlock()
	return nil
}

// take 取出并清空最近一次点击位置
func (r *tapRecorder) take() *PositionInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.last
	r.last = nil
	return p
}

// Executor 步骤执行器
type Executor struct {
	device *tapRecorder
	auto   *auto.Automator
}

// NewExecutor 创建执行器，loc 与 recognizer 可为空
func NewExecutor(device Device, loc *locator.Locator, recognizer *ocr.TextRecognizer) *Executor {
	rec := &tapRecorder{Device: device}
	return &Executor{device: rec, auto: auto.New(rec, loc, recognizer)}
}

// LoadCase 读取 YAML 用例文件
func LoadCase(path string) (*Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取用例失败: %w", err)
	}
	return ParseCase(data)
}

// ParseCase 解析 YAML 用例
func ParseCase(data []byte) (*Case, error) {
	var c Case
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("解析用例失败: %w", err)
	}
	if len(c.Steps) == 0 {
		return nil, fmt.Errorf("用例 %q 没有步骤", c.Name)
	}
	for i, s := range c.Steps {
		if s.Type == "" {
			return nil, fmt.Errorf("步骤 %d 缺少 type", i+1)
		}
	}
	return &c, nil
}

// Run 顺序执行用例中的步骤
// StopOnFail 为 true 时首个失败步骤之后的步骤记为 SKIPPED；ctx 取消后的步骤同样跳过
func (e *Executor) Run(ctx context.Context, c *Case) *CaseResult {
	start := time.Now()
	res := &CaseResult{Name: c.Name, Total: len(c.Steps)}
	logger.Info("[Case:%s] 开始，共 %d 个步骤", c.Name, res.Total)

	stopped := false
	for i, step := range c.Steps {
		id := stepID(step, i)
		if stopped || ctx.Err() != nil {
			res.Steps = append(res.Steps, StepResult{StepID: id, Type: step.Type, Status: StatusSkipped})
			res.Skipped++
			continue
		}

		logger.Info("[Case:%s] 执行步骤 %d/%d: %s (type=%s)", c.Name, i+1, res.Total, id, step.Type)
		r := e.RunStep(ctx, step)
		r.StepID = id
		res.Steps = append(res.Steps, r)

		if r.Status == StatusSuccess {
			res.Passed++
			continue
		}
		res.Failed++
		if c.StopOnFail {
			logger.Info("[Case:%s] stop_on_fail=true，停止执行", c.Name)
			stopped = true
		}
	}

	res.Status = caseStatus(res, stopped)
	res.DurationMs = time.Since(start).Milliseconds()
	logger.Info("[Case:%s] 完成: %s passed=%d failed=%d skipped=%d", c.Name, res.Status, res.Passed, res.Failed, res.Skipped)
	return res
}

func stepID(s Step, index int) string {
	if s.ID != "" {
		return s.ID
	}
	return fmt.Sprintf("step_%d", index+1)
}

func caseStatus(res *CaseResult, stopped bool) string {
	switch {
	case res.Failed == 0 && res.Skipped == 0:
		return StatusSuccess
	case stopped || res.Passed == 0:
		return StatusFailed
	default:
		return StatusPartialFailed
	}
}

// RunStep 执行单个步骤
func (e *Executor) RunStep(ctx context.Context, step Step) StepResult {
	start := time.Now()
	e.device.take()

	err := e.executeStep(ctx, step)
	r := StepResult{
		StepID:     step.ID,
		Type:       step.Type,
		Status:     StatusSuccess,
		Position:   e.device.take(),
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		r.Status, r.Reason = classifyError(err)
		r.Error = err.Error()
	}
	logger.LogEvent(logger.CategoryStep, err == nil, logger.Since(start), stepDetail(step, err))
	return r
}

func stepDetail(step Step, err error) string {
	if err != nil {
		return fmt.Sprintf("%s: %v", step.Type, err)
	}
	return step.Type
}

// classifyError 错误分类为 (状态, 原因)
func classifyError(err error) (string, string) {
	var paramErr *ParamError
	switch {
	case errors.Is(err, context.Canceled):
		return StatusFailed, ReasonCanceled
	case errors.Is(err, locator.ErrWaitTimeout), errors.Is(err, context.DeadlineExceeded):
		return StatusTimeout, ReasonNotFound
	case errors.Is(err, auto.ErrNotFound):
		return StatusFailed, ReasonNotFound
	case errors.Is(err, ErrAssertion):
		return StatusFailed, ReasonAssertionFailed
	case errors.As(err, &paramErr), errors.Is(err, locator.ErrTemplateNotFound):
		return StatusFailed, ReasonParamError
	default:
		return StatusFailed, ReasonSystemError
	}
}
