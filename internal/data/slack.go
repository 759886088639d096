package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"slack-time-punch/internal/auth"
	"slack-time-punch/internal/biz"
	"slack-time-punch/internal/conf"

	"github.com/slack-go/slack"
)

const (
	conversationsPageSize = 1000
	maxChannelPages       = 20
	maxAPIResponseBytes   = 1 << 20
)

// slackGateway slack-go 实现的 SlackAPI，每次调用按 token 创建客户端
type slackGateway struct {
	apiURL     string
	httpClient *http.Client
}

// NewSlackGateway 创建 Slack Web API 网关
func NewSlackGateway(cfg *conf.Slack, httpClient *http.Client) biz.SlackAPI {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = conf.DefaultSlackTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = conf.DefaultSlackAPIURL
	}
	return &slackGateway{apiURL: apiURL, httpClient: httpClient}
}

func (g *slackGateway) client(token string) *slack.Client {
	return slack.New(token,
		slack.OptionHTTPClient(g.httpClient),
		slack.OptionAPIURL(g.apiURL),
	)
}

// ListChannels 通过 users.conversations 获取用户加入的公开/私有频道
func (g *slackGateway) ListChannels(ctx context.Context, token string) ([]biz.Channel, error) {
	api := g.client(token)
	params := &slack.GetConversationsForUserParameters{
		Types:           []string{"public_channel", "private_channel"},
		ExcludeArchived: true,
		Limit:           conversationsPageSize,
	}

	var out []biz.Channel
	for page := 0; page < maxChannelPages; page++ {
		channels, next, err := api.GetConversationsForUserContext(ctx, params)
		if err != nil {
			return nil, mapSlackError("users.conversations", err)
		}
		for _, c := range channels {
			out = append(out, biz.Channel{
				ID:         c.ID,
				Name:       c.Name,
				IsChannel:  c.IsChannel,
				IsGroup:    c.IsGroup,
				IsPrivate:  c.IsPrivate,
				IsArchived: c.IsArchived,
				IsMember:   c.IsMember,
				NumMembers: c.NumMembers,
				Topic:      c.Topic.Value,
				Purpose:    c.Purpose.Value,
			})
		}
		if next == "" {
			break
		}
		params.Cursor = next
	}
	return out, nil
}

// PostMessage 调用 chat.postMessage
func (g *slackGateway) PostMessage(ctx context.Context, token, channelID, text string) (*biz.PostedMessage, error) {
	channel, ts, err := g.client(token).PostMessageContext(ctx, channelID, slack.MsgOptionText(text, false))
	if err != nil {
		return nil, mapSlackError("chat.postMessage", err)
	}
	return &biz.PostedMessage{ChannelID: channel, Timestamp: ts}, nil
}

// AuthTest 调用 auth.test
func (g *slackGateway) AuthTest(ctx context.Context, token string) (*biz.Identity, error) {
	resp, err := g.client(token).AuthTestContext(ctx)
	if err != nil {
		return nil, mapSlackError("auth.test", err)
	}
	return &biz.Identity{
		UserID:   resp.UserID,
		UserName: resp.User,
		TeamID:   resp.TeamID,
		TeamName: resp.Team,
		URL:      resp.URL,
		BotID:    resp.BotID,
	}, nil
}

// UserInfo 调用 users.info
func (g *slackGateway) UserInfo(ctx context.Context, token, userID string) (*biz.UserProfile, error) {
	u, err := g.client(token).GetUserInfoContext(ctx, userID)
	if err != nil {
		return nil, mapSlackError("users.info", err)
	}
	return &biz.UserProfile{
		ID:          u.ID,
		Name:        u.Name,
		RealName:    u.RealName,
		DisplayName: u.Profile.DisplayName,
		Email:       u.Profile.Email,
		Image72:     u.Profile.Image72,
	}, nil
}

// authTestExpiry auth.test 响应中 slack-go 未解析的字段
type authTestExpiry struct {
	OK        bool   `json:"ok"`
	Error     string `json:"error"`
	ExpiresIn *int   `json:"expires_in"`
}

// TokenExpiresIn 直接调用 auth.test 读取 expires_in（开启 token 轮换时才会返回）
func (g *slackGateway) TokenExpiresIn(ctx context.Context, token string) (*int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL+"auth.test", strings.NewReader(""))
	if err != nil {
		return nil, fmt.Errorf("build auth.test request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, &auth.NetworkError{Op: "auth.test", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAPIResponseBytes))
	if err != nil {
		return nil, &auth.NetworkError{Op: "auth.test", Err: err}
	}

	var r authTestExpiry
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, &auth.NetworkError{Op: "auth.test", Err: fmt.Errorf("unexpected response (status %d): %w", resp.StatusCode, err)}
	}
	if !r.OK {
		code := r.Error
		if code == "" {
			code = "unknown_error"
		}
		return nil, &auth.SlackProtocolError{Code: code}
	}
	return r.ExpiresIn, nil
}

// mapSlackError 将 slack-go 的错误归类为 SlackProtocolError 或 NetworkError
func mapSlackError(op string, err error) error {
	var se slack.SlackErrorResponse
	if errors.As(err, &se) {
		return &auth.SlackProtocolError{Code: se.Err}
	}
	return &auth.NetworkError{Op: op, Err: err}
}
