package biz

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"slack-time-punch/internal/auth"
)

var ErrUnknownPunchType = errors.New("punch type must be \"in\" or \"out\"")

// PunchType 打卡类型
type PunchType string

const (
	PunchIn  PunchType = "in"
	PunchOut PunchType = "out"
)

// Message 打卡时发送到频道的固定文案
func (t PunchType) Message() string {
	switch t {
	case PunchIn:
		return "🟢 おはようございます。業務開始します。"
	case PunchOut:
		return "🔴 お疲れさまです。業務終了します。"
	}
	return ""
}

// Valid 是否为已知类型
func (t PunchType) Valid() bool {
	return t == PunchIn || t == PunchOut
}

// PunchRecord 打卡记录（不含 token）
type PunchRecord struct {
	ID        string
	UserID    string
	TeamID    string
	ChannelID string
	Type      PunchType
	MessageTS string
	CreatedAt time.Time
}

// PunchRepo 打卡记录仓库接口
type PunchRepo interface {
	// Save 保存一条打卡记录，ID 为空时由仓库生成
	Save(ctx context.Context, rec *PunchRecord) error
	// List 按时间倒序列出用户的打卡记录
	List(ctx context.Context, userID string, limit int) ([]*PunchRecord, error)
	// Close 关闭仓库连接
	Close() error
}

// PunchUsecase 打卡业务逻辑
type PunchUsecase struct {
	workspace *WorkspaceUsecase
	slack     SlackAPI
	repo      PunchRepo // 可为 nil，此时不记录
	now       func() time.Time
	logger    *slog.Logger
}

// NewPunchUsecase 创建 PunchUsecase
func NewPunchUsecase(slack SlackAPI, repo PunchRepo, logger *slog.Logger) *PunchUsecase {
	return &PunchUsecase{
		workspace: NewWorkspaceUsecase(slack),
		slack:     slack,
		repo:      repo,
		now:       time.Now,
		logger:    logger,
	}
}

// PunchRequest 打卡请求
type PunchRequest struct {
	Token     string
	ChannelID string
	Type      PunchType
}

// Punch 发送出勤/退勤消息并记录
func (uc *PunchUsecase) Punch(ctx context.Context, req *PunchRequest) (*PunchRecord, error) {
	if !req.Type.Valid() {
		return nil, &auth.ValidationError{Reason: ErrUnknownPunchType, Detail: string(req.Type)}
	}

	posted, err := uc.workspace.PostMessage(ctx, req.Token, req.ChannelID, req.Type.Message())
	if err != nil {
		return nil, err
	}

	rec := &PunchRecord{
		ChannelID: posted.ChannelID,
		Type:      req.Type,
		MessageTS: posted.Timestamp,
		CreatedAt: uc.now(),
	}

	// 消息已发出，身份查询失败只影响记录内容
	if id, err := uc.slack.AuthTest(ctx, req.Token); err == nil {
		rec.UserID = id.UserID
		rec.TeamID = id.TeamID
	} else {
		uc.logger.Warn("auth.test failed after punch", "error", err)
	}

	if uc.repo != nil {
		if err := uc.repo.Save(ctx, rec); err != nil {
			uc.logger.Error("failed to save punch record", "error", err, "channel_id", rec.ChannelID)
		}
	}

	uc.logger.Info("punch posted", "type", rec.Type, "channel_id", rec.ChannelID, "user_id", rec.UserID)
	return rec, nil
}

// History 查询 token 所属用户的打卡记录，未启用记录时返回空
func (uc *PunchUsecase) History(ctx context.Context, token string, limit int) ([]*PunchRecord, error) {
	if token == "" {
		return nil, &auth.ValidationError{Reason: auth.ErrMissingToken}
	}
	if uc.repo == nil {
		return nil, nil
	}

	// 只按 auth.test 解析出的调用者查询，不接受客户端指定的用户
	id, err := uc.slack.AuthTest(ctx, token)
	if err != nil {
		return nil, err
	}
	if id.UserID == "" {
		return nil, &auth.ValidationError{Reason: auth.ErrMissingToken, Detail: "token has no user"}
	}

	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return uc.repo.List(ctx, id.UserID, limit)
}
