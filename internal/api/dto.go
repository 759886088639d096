package api

import (
	"context"
	"time"

	"slack-time-punch/internal/auth"
)

// AuthorizeResponse 授权开始结果
type AuthorizeResponse struct {
	URL    string
	Target auth.Target
}

// CallbackRequest Slack 回调参数
type CallbackRequest struct {
	Code  string
	State string
	Error string
}

// CallbackResponse 回调成功结果
type CallbackResponse struct {
	RedirectURL string
	Target      auth.Target
}

// RedirectError 失败时客户端应被重定向（桌面端 deep link 错误回调）
type RedirectError struct {
	URL string
	Err error
}

func (e *RedirectError) Error() string {
	return e.Err.Error()
}

func (e *RedirectError) Unwrap() error {
	return e.Err
}

// ChannelInfo 频道 DTO
type ChannelInfo struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	IsChannel  bool       `json:"is_channel"`
	IsGroup    bool       `json:"is_group"`
	IsPrivate  bool       `json:"is_private"`
	IsArchived bool       `json:"is_archived"`
	IsMember   bool       `json:"is_member"`
	NumMembers int        `json:"num_members"`
	Topic      *TextValue `json:"topic,omitempty"`
	Purpose    *TextValue `json:"purpose,omitempty"`
}

// TextValue Slack topic/purpose 结构
type TextValue struct {
	Value string `json:"value"`
}

// ChannelsResponse 频道列表响应
type ChannelsResponse struct {
	Success  bool          `json:"success"`
	Channels []ChannelInfo `json:"channels"`
	Count    int           `json:"count"`
}

// PostMessageRequest 发送消息请求
type PostMessageRequest struct {
	UserToken string `json:"userToken"`
	Token     string `json:"token,omitempty"` // userToken 的别名
	ChannelID string `json:"channelId"`
	Message   string `json:"message"`
}

// PostMessageData 发送结果
type PostMessageData struct {
	ChannelID   string `json:"channelId"`
	MessageTS   string `json:"messageTs"`
	FullMessage string `json:"fullMessage"`
}

// PostMessageResponse 发送消息响应
type PostMessageResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Data    *PostMessageData `json:"data"`
}

// UserInfo 当前用户 DTO
type UserInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	TeamID      string `json:"team_id"`
	TeamName    string `json:"team_name"`
	RealName    string `json:"real_name,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Image72     string `json:"image_72,omitempty"`
}

// UserInfoResponse 用户信息响应
type UserInfoResponse struct {
	Success bool      `json:"success"`
	User    *UserInfo `json:"user"`
}

// TokenInfo token 有效期 DTO
type TokenInfo struct {
	IsPermanent      bool       `json:"is_permanent"`
	ExpiresInSeconds *int       `json:"expires_in_seconds,omitempty"`
	ExpiresInHours   *float64   `json:"expires_in_hours,omitempty"`
	ExpiresInDays    *float64   `json:"expires_in_days,omitempty"`
	ExpirationDate   *time.Time `json:"expiration_date,omitempty"`
}

// TokenInfoResponse token 信息响应
type TokenInfoResponse struct {
	Success   bool       `json:"success"`
	TokenInfo *TokenInfo `json:"token_info"`
}

// PunchRequest 打卡请求
type PunchRequest struct {
	UserToken string `json:"userToken"`
	ChannelID string `json:"channelId"`
	Type      string `json:"type"` // in | out
}

// PunchInfo 打卡记录 DTO
type PunchInfo struct {
	ID        string    `json:"id,omitempty"`
	Type      string    `json:"type"`
	UserID    string    `json:"userId,omitempty"`
	TeamID    string    `json:"teamId,omitempty"`
	ChannelID string    `json:"channelId"`
	MessageTS string    `json:"messageTs"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// PunchResponse 打卡响应
type PunchResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Data    *PunchInfo `json:"data"`
}

// ListPunchesResponse 打卡记录列表响应
type ListPunchesResponse struct {
	Success bool        `json:"success"`
	Punches []PunchInfo `json:"punches"`
	Count   int         `json:"count"`
}

// AuthService 授权服务接口（由 service 层实现）
type AuthService interface {
	Authorize(ctx context.Context, target auth.Target) (*AuthorizeResponse, error)
	Callback(ctx context.Context, req *CallbackRequest) (*CallbackResponse, error)
	PendingStates() int
}

// SlackService Slack Web API 服务接口（由 service 层实现）
type SlackService interface {
	Channels(ctx context.Context, token string) ([]ChannelInfo, error)
	PostMessage(ctx context.Context, token, channelID, message string) (*PostMessageData, error)
	UserInfo(ctx context.Context, token string) (*UserInfo, error)
	TokenInfo(ctx context.Context, token string) (*TokenInfo, error)
}

// PunchService 打卡服务接口（由 service 层实现）
type PunchService interface {
	Punch(ctx context.Context, token string, req *PunchRequest) (*PunchInfo, error)
	ListPunches(ctx context.Context, token string, limit int) ([]PunchInfo, error)
}
