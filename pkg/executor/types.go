package executor

import (
	"errors"
	"fmt"
)

// 步骤类型
const (
	TaskTypeTap          = "tap"
	TaskTypeLongPress    = "long_press"
	TaskTypeSwipe        = "swipe"
	TaskTypeKeyPress     = "key_press"
	TaskTypeTypeText     = "type_text"
	TaskTypeWaitTime     = "wait_time"
	TaskTypeScreenshot   = "screenshot"
	TaskTypeStartApp     = "start_app"
	TaskTypeStopApp      = "stop_app"
	TaskTypeClickImage   = "click_image"
	TaskTypeWaitImage    = "wait_image"
	TaskTypeAssertImage  = "assert_image"
	TaskTypeClickElement = "click_element"
	TaskTypeWaitElement  = "wait_element"
	TaskTypeClickText    = "click_text"
	TaskTypeWaitText     = "wait_text"
	TaskTypeAssertText   = "assert_text"
)

// 执行状态
const (
	StatusSuccess       = "SUCCESS"
	StatusFailed        = "FAILED"
	StatusTimeout       = "TIMEOUT"
	StatusSkipped       = "SKIPPED"
	StatusPartialFailed = "PARTIAL_FAILED"
)

// 失败原因
const (
	ReasonNotFound        = "NOT_FOUND"
	ReasonAssertionFailed = "ASSERTION_FAILED"
	ReasonParamError      = "PARAM_ERROR"
	ReasonCanceled        = "CANCELED"
	ReasonSystemError     = "SYSTEM_ERROR"
)

// ErrAssertion 断言失败
var ErrAssertion = errors.New("断言失败")

// ParamError 步骤参数错误
type ParamError struct {
	Param   string
	Message string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("参数 %s: %s", e.Param, e.Message)
}

func missingParam(name string) error {
	return &ParamError{Param: name, Message: "缺少参数"}
}

// Step 单个步骤
type Step struct {
	ID     string                 `yaml:"id" json:"id"`
	Type   string                 `yaml:"type" json:"type"`
	Params map[string]interface{} `yaml:"params" json:"params,omitempty"`
}

// Case 按顺序执行的一组步骤
type Case struct {
	Name       string `yaml:"name" json:"name"`
	StopOnFail bool   `yaml:"stop_on_fail" json:"stop_on_fail"`
	Steps      []Step `yaml:"steps" json:"steps"`
}

// PositionInfo 实际点击位置
type PositionInfo struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// StepResult 步骤执行结果
type StepResult struct {
	StepID     string        `json:"step_id"`
	Type       string        `json:"type"`
	Status     string        `json:"status"`
	Reason     string        `json:"reason,omitempty"`
	Error      string        `json:"error,omitempty"`
	Position   *PositionInfo `json:"position,omitempty"`
	DurationMs int64         `json:"duration_ms"`
}

// CaseResult 用例执行结果
type CaseResult struct {
	Name       string       `json:"name"`
	Status     string       `json:"status"`
	Total      int          `json:"total"`
	Passed     int          `json:"passed"`
	Failed     int          `json:"failed"`
	Skipped    int          `json:"skipped"`
	Steps      []StepResult `json:"steps"`
	DurationMs int64        `json:"duration_ms"`
}
