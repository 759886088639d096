package biz

import (
	"fmt"
	"log/slog"
)

// FlowStage 授权流程状态
type FlowStage string

const (
	StageIdle             FlowStage = "idle"
	StageStateIssued      FlowStage = "state_issued"
	StageAwaitingCallback FlowStage = "awaiting_callback"
	StageValidated        FlowStage = "validated"
	StageExchanging       FlowStage = "exchanging"
	StageCompleted        FlowStage = "completed"
	StageFailed           FlowStage = "failed"
)

// flowTransitions 合法的前进路径，Failed 可从任意非终止状态进入
var flowTransitions = map[FlowStage]FlowStage{
	StageIdle:             StageStateIssued,
	StageStateIssued:      StageAwaitingCallback,
	StageAwaitingCallback: StageValidated,
	StageValidated:        StageExchanging,
	StageExchanging:       StageCompleted,
}

// Terminal 是否为终止状态
func (s FlowStage) Terminal() bool {
	return s == StageCompleted || s == StageFailed
}

// FlowError 记录流程在哪个阶段失败
type FlowError struct {
	Stage FlowStage // 失败前所处的阶段
	Err   error
	// RedirectURL 非空时客户端应被重定向到此处（桌面端 deep link 错误回调）
	RedirectURL string
}

func (e *FlowError) Error() string {
	return fmt.Sprintf("oauth flow failed at %s: %v", e.Stage, e.Err)
}

func (e *FlowError) Unwrap() error {
	return e.Err
}

// flow 单次授权尝试的状态机
type flow struct {
	stage  FlowStage
	logger *slog.Logger
}

func newFlow(start FlowStage, logger *slog.Logger) *flow {
	return &flow{stage: start, logger: logger}
}

// advance 前进到下一个阶段
func (f *flow) advance(next FlowStage) error {
	if want, ok := flowTransitions[f.stage]; !ok || want != next {
		return fmt.Errorf("illegal oauth flow transition %s -> %s", f.stage, next)
	}
	f.logger.Debug("oauth flow transition", "from", f.stage, "to", next)
	f.stage = next
	return nil
}

// fail 进入 Failed 并返回包装后的错误
func (f *flow) fail(err error) error {
	from := f.stage
	if from.Terminal() {
		return err
	}
	f.stage = StageFailed
	f.logger.Debug("oauth flow transition", "from", from, "to", StageFailed, "error", err)
	return &FlowError{Stage: from, Err: err}
}
