package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"slack-time-punch/internal/auth"

	"github.com/gorilla/mux"
)

// SlackHandler Slack Web API 代理接口处理器
type SlackHandler struct {
	slackService SlackService
	logger       *slog.Logger
}

// NewSlackHandler 创建 SlackHandler
func NewSlackHandler(slackService SlackService, logger *slog.Logger) *SlackHandler {
	return &SlackHandler{
		slackService: slackService,
		logger:       logger,
	}
}

// RegisterRoutes 注册路由，token 由 auth.TokenMiddleware 从 Authorization 头或 ?token= 读取
func (h *SlackHandler) RegisterRoutes(r *mux.Router) {
	sr := r.PathPrefix("/auth").Subrouter()
	sr.Use(auth.TokenMiddleware())
	sr.HandleFunc("/channels", h.channels).Methods(http.MethodGet)
	sr.HandleFunc("/post-message", h.postMessage).Methods(http.MethodPost)
	sr.HandleFunc("/user-info", h.userInfo).Methods(http.MethodGet, http.MethodPost)
	sr.HandleFunc("/token-info", h.tokenInfo).Methods(http.MethodGet)
}

// channels 获取频道列表
func (h *SlackHandler) channels(w http.ResponseWriter, r *http.Request) {
	token, _ := auth.SlackTokenFromContext(r.Context())

	channels, err := h.slackService.Channels(r.Context(), token)
	if err != nil {
		h.logger.Warn("failed to list channels", "error", err)
		writeError(w, err, msgChannelsFail)
		return
	}
	if channels == nil {
		channels = []ChannelInfo{}
	}

	writeJSON(w, http.StatusOK, ChannelsResponse{Success: true, Channels: channels, Count: len(channels)})
}

// postMessage 以用户身份发送消息
func (h *SlackHandler) postMessage(w http.ResponseWriter, r *http.Request) {
	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: msgInvalidBody, Message: err.Error()})
		return
	}

	// body 中的 token 优先，其次是请求头
	token := req.UserToken
	if token == "" {
		token = req.Token
	}
	if token == "" {
		token, _ = auth.SlackTokenFromContext(r.Context())
	}

	data, err := h.slackService.PostMessage(r.Context(), token, req.ChannelID, req.Message)
	if err != nil {
		h.logger.Warn("failed to post message", "error", err, "channel_id", req.ChannelID)
		writeError(w, err, msgPostFail)
		return
	}

	writeJSON(w, http.StatusOK, PostMessageResponse{Success: true, Message: msgPosted, Data: data})
}

// userInfo 获取当前用户信息，POST 时也接受 body 中的 token
func (h *SlackHandler) userInfo(w http.ResponseWriter, r *http.Request) {
	token, _ := auth.SlackTokenFromContext(r.Context())
	if token == "" && r.Method == http.MethodPost {
		var body struct {
			Token     string `json:"token"`
			UserToken string `json:"userToken"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			token = body.Token
			if token == "" {
				token = body.UserToken
			}
		}
	}

	user, err := h.slackService.UserInfo(r.Context(), token)
	if err != nil {
		h.logger.Warn("failed to get user info", "error", err)
		writeError(w, err, msgUserInfoFail)
		return
	}

	writeJSON(w, http.StatusOK, UserInfoResponse{Success: true, User: user})
}

// tokenInfo 查询 token 有效期
func (h *SlackHandler) tokenInfo(w http.ResponseWriter, r *http.Request) {
	token, _ := auth.SlackTokenFromContext(r.Context())

	info, err := h.slackService.TokenInfo(r.Context(), token)
	if err != nil {
		h.logger.Warn("failed to get token info", "error", err)
		writeError(w, err, msgTokenInfoFail)
		return
	}

	writeJSON(w, http.StatusOK, TokenInfoResponse{Success: true, TokenInfo: info})
}
