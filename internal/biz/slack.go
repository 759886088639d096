package biz

import (
	"context"
	"errors"
	"time"

	"slack-time-punch/internal/auth"
)

var ErrMissingChannel = errors.New("channel id is required")
var ErrMissingMessage = errors.New("message is required")

// Channel 用户可见的频道
type Channel struct {
	ID         string
	Name       string
	IsChannel  bool
	IsGroup    bool
	IsPrivate  bool
	IsArchived bool
	IsMember   bool
	NumMembers int
	Topic      string
	Purpose    string
}

// PostedMessage chat.postMessage 结果
type PostedMessage struct {
	ChannelID string
	Timestamp string
}

// Identity auth.test 结果
type Identity struct {
	UserID   string
	UserName string
	TeamID   string
	TeamName string
	URL      string
	BotID    string
}

// UserProfile users.info 结果
type UserProfile struct {
	ID          string
	Name        string
	RealName    string
	DisplayName string
	Email       string
	Image72     string
}

// SlackAPI Slack Web API 访问接口（由 data 层实现）
// Slack 返回 ok=false 时应返回 *auth.SlackProtocolError，传输失败返回 *auth.NetworkError
type SlackAPI interface {
	ListChannels(ctx context.Context, token string) ([]Channel, error)
	PostMessage(ctx context.Context, token, channelID, text string) (*PostedMessage, error)
	AuthTest(ctx context.Context, token string) (*Identity, error)
	UserInfo(ctx context.Context, token, userID string) (*UserProfile, error)
	// TokenExpiresIn 返回 token 剩余秒数，nil 表示永久 token
	TokenExpiresIn(ctx context.Context, token string) (*int, error)
}

// TokenExpiry token 有效期信息
type TokenExpiry struct {
	Permanent bool
	ExpiresIn time.Duration
	ExpiresAt time.Time
}

// WorkspaceUsecase Slack 工作区相关业务逻辑
type WorkspaceUsecase struct {
	slack SlackAPI
	now   func() time.Time
}

// NewWorkspaceUsecase 创建 WorkspaceUsecase
func NewWorkspaceUsecase(slack SlackAPI) *WorkspaceUsecase {
	return &WorkspaceUsecase{slack: slack, now: time.Now}
}

// Channels 获取用户可访问的频道列表
func (uc *WorkspaceUsecase) Channels(ctx context.Context, token string) ([]Channel, error) {
	if token == "" {
		return nil, &auth.ValidationError{Reason: auth.ErrMissingToken}
	}
	return uc.slack.ListChannels(ctx, token)
}

// PostMessage 以用户身份发送消息
func (uc *WorkspaceUsecase) PostMessage(ctx context.Context, token, channelID, text string) (*PostedMessage, error) {
	switch {
	case token == "":
		return nil, &auth.ValidationError{Reason: auth.ErrMissingToken}
	case channelID == "":
		return nil, &auth.ValidationError{Reason: ErrMissingChannel}
	case text == "":
		return nil, &auth.ValidationError{Reason: ErrMissingMessage}
	}
	return uc.slack.PostMessage(ctx, token, channelID, text)
}

// WhoAmI 获取 token 对应的用户，能取到资料时一并返回
func (uc *WorkspaceUsecase) WhoAmI(ctx context.Context, token string) (*Identity, *UserProfile, error) {
	if token == "" {
		return nil, nil, &auth.ValidationError{Reason: auth.ErrMissingToken}
	}
	id, err := uc.slack.AuthTest(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	// users.info 需要 users:read，缺少权限时只返回 auth.test 的信息
	profile, err := uc.slack.UserInfo(ctx, token, id.UserID)
	if err != nil {
		return id, nil, nil
	}
	return id, profile, nil
}

// TokenExpiry 查询 token 有效期
func (uc *WorkspaceUsecase) TokenExpiry(ctx context.Context, token string) (*TokenExpiry, error) {
	if token == "" {
		return nil, &auth.ValidationError{Reason: auth.ErrMissingToken}
	}
	expiresIn, err := uc.slack.TokenExpiresIn(ctx, token)
	if err != nil {
		return nil, err
	}
	if expiresIn == nil {
		return &TokenExpiry{Permanent: true}, nil
	}
	d := time.Duration(*expiresIn) * time.Second
	return &TokenExpiry{
		ExpiresIn: d,
		ExpiresAt: uc.now().Add(d),
	}, nil
}
