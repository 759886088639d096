package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"slack-time-punch/internal/auth"

	"github.com/gorilla/mux"
)

// PunchHandler 打卡接口处理器
type PunchHandler struct {
	punchService PunchService
	logger       *slog.Logger
}

// NewPunchHandler 创建 PunchHandler
func NewPunchHandler(punchService PunchService, logger *slog.Logger) *PunchHandler {
	return &PunchHandler{
		punchService: punchService,
		logger:       logger,
	}
}

// RegisterRoutes 注册路由到 mux.Router
func (h *PunchHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/punch", h.punch).Methods(http.MethodPost)
	r.HandleFunc("/punches", h.listPunches).Methods(http.MethodGet)
}

// punch 出勤/退勤打卡
func (h *PunchHandler) punch(w http.ResponseWriter, r *http.Request) {
	var req PunchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: msgInvalidBody, Message: err.Error()})
		return
	}

	token := req.UserToken
	if token == "" {
		token, _ = auth.SlackTokenFromContext(r.Context())
	}

	info, err := h.punchService.Punch(r.Context(), token, &req)
	if err != nil {
		h.logger.Warn("punch failed", "error", err, "type", req.Type, "channel_id", req.ChannelID)
		writeError(w, err, msgPunchFail)
		return
	}

	writeJSON(w, http.StatusOK, PunchResponse{Success: true, Message: msgPosted, Data: info})
}

// listPunches 获取当前 token 用户的打卡记录
func (h *PunchHandler) listPunches(w http.ResponseWriter, r *http.Request) {
	token, err := auth.SlackTokenFromContext(r.Context())
	if err != nil {
		writeError(w, &auth.ValidationError{Reason: auth.ErrMissingToken}, msgPunchHistFail)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	punches, err := h.punchService.ListPunches(r.Context(), token, limit)
	if err != nil {
		writeError(w, err, msgPunchHistFail)
		return
	}
	if punches == nil {
		punches = []PunchInfo{}
	}

	writeJSON(w, http.StatusOK, ListPunchesResponse{Success: true, Punches: punches, Count: len(punches)})
}
