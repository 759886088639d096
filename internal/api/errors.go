package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"slack-time-punch/internal/auth"
)

// User-facing messages. Clients match on these strings, keep them stable.
const (
	msgAuthCancelled = "OAuth認証がキャンセルされました"
	msgMissingParams = "必要なパラメータが不足しています"
	msgInvalidState  = "無効なstateパラメータです"
	msgTokenRequired = "ユーザートークンが必要です"
	msgAuthStartFail = "OAuth認証の開始に失敗しました"
	msgCallbackFail  = "OAuth認証の処理に失敗しました"
	msgChannelsFail  = "チャンネル取得に失敗しました"
	msgPostFail      = "メッセージ投稿に失敗しました"
	msgPosted        = "メッセージを投稿しました"
	msgUserInfoFail  = "ユーザー情報取得に失敗しました"
	msgTokenInfoFail = "トークン情報取得に失敗しました"
	msgPunchFail     = "打刻に失敗しました"
	msgPunchHistFail = "打刻履歴の取得に失敗しました"
	msgInvalidBody   = "リクエストボディのJSONが無効です"
	msgNotFound      = "エンドポイントが見つかりません"
	msgInternalError = "Internal Server Error"
	msgLoggedOut     = "ログアウトしました"
	msgLogoutHint    = "クライアント側でトークンを削除してください"
	msgStatusHint    = "認証状態を確認するにはOAuth認証を完了してください"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message,omitempty"`
	SlackError string `json:"slack_error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError maps err to a status code and JSON body. failMsg describes the operation that failed.
func writeError(w http.ResponseWriter, err error, failMsg string) {
	status, body := errorResponse(err, failMsg)
	writeJSON(w, status, body)
}

func errorResponse(err error, failMsg string) (int, ErrorResponse) {
	var (
		ve *auth.ValidationError
		pe *auth.SlackProtocolError
	)
	switch {
	case errors.As(err, &ve):
		switch {
		case errors.Is(ve, auth.ErrAuthorizationDenied):
			return http.StatusBadRequest, ErrorResponse{Error: msgAuthCancelled}
		case errors.Is(ve, auth.ErrMissingParams):
			return http.StatusBadRequest, ErrorResponse{Error: msgMissingParams}
		case errors.Is(ve, auth.ErrInvalidState):
			return http.StatusBadRequest, ErrorResponse{Error: msgInvalidState}
		case errors.Is(ve, auth.ErrMissingToken):
			return http.StatusBadRequest, ErrorResponse{Error: msgTokenRequired}
		}
		return http.StatusBadRequest, ErrorResponse{Error: failMsg, Message: ve.Error()}
	case errors.As(err, &pe):
		status := http.StatusBadRequest
		if pe.IsAuthError() {
			status = http.StatusUnauthorized
		}
		return status, ErrorResponse{Error: failMsg, Message: pe.Error(), SlackError: pe.Code}
	}
	return http.StatusInternalServerError, ErrorResponse{Error: failMsg, Message: err.Error()}
}
