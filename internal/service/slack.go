package service

import (
	"context"
	"math"

	"slack-time-punch/internal/api"
	"slack-time-punch/internal/biz"
)

// slackService Slack Web API 服务实现
type slackService struct {
	workspace *biz.WorkspaceUsecase
}

// NewSlackService 创建 SlackService
func NewSlackService(workspace *biz.WorkspaceUsecase) api.SlackService {
	return &slackService{
		workspace: workspace,
	}
}

// Channels 获取频道列表
func (s *slackService) Channels(ctx context.Context, token string) ([]api.ChannelInfo, error) {
	channels, err := s.workspace.Channels(ctx, token)
	if err != nil {
		return nil, err
	}

	// biz -> api DTO 转换
	result := make([]api.ChannelInfo, len(channels))
	for i, c := range channels {
		result[i] = api.ChannelInfo{
			ID:         c.ID,
			Name:       c.Name,
			IsChannel:  c.IsChannel,
			IsGroup:    c.IsGroup,
			IsPrivate:  c.IsPrivate,
			IsArchived: c.IsArchived,
			IsMember:   c.IsMember,
			NumMembers: c.NumMembers,
			Topic:      &api.TextValue{Value: c.Topic},
			Purpose:    &api.TextValue{Value: c.Purpose},
		}
	}
	return result, nil
}

// PostMessage 发送消息
func (s *slackService) PostMessage(ctx context.Context, token, channelID, message string) (*api.PostMessageData, error) {
	posted, err := s.workspace.PostMessage(ctx, token, channelID, message)
	if err != nil {
		return nil, err
	}
	return &api.PostMessageData{
		ChannelID:   posted.ChannelID,
		MessageTS:   posted.Timestamp,
		FullMessage: message,
	}, nil
}

// UserInfo 获取当前用户
func (s *slackService) UserInfo(ctx context.Context, token string) (*api.UserInfo, error) {
	id, profile, err := s.workspace.WhoAmI(ctx, token)
	if err != nil {
		return nil, err
	}

	user := &api.UserInfo{
		ID:       id.UserID,
		Name:     id.UserName,
		TeamID:   id.TeamID,
		TeamName: id.TeamName,
	}
	if profile != nil {
		user.RealName = profile.RealName
		user.DisplayName = profile.DisplayName
		user.Image72 = profile.Image72
	}
	return user, nil
}

// TokenInfo 获取 token 有效期
func (s *slackService) TokenInfo(ctx context.Context, token string) (*api.TokenInfo, error) {
	exp, err := s.workspace.TokenExpiry(ctx, token)
	if err != nil {
		return nil, err
	}
	if exp.Permanent {
		return &api.TokenInfo{IsPermanent: true}, nil
	}

	secs := int(exp.ExpiresIn.Seconds())
	hours := round2(exp.ExpiresIn.Hours())
	days := round2(exp.ExpiresIn.Hours() / 24)
	at := exp.ExpiresAt
	return &api.TokenInfo{
		ExpiresInSeconds: &secs,
		ExpiresInHours:   &hours,
		ExpiresInDays:    &days,
		ExpirationDate:   &at,
	}, nil
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
