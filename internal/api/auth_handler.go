package api

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"slack-time-punch/internal/auth"
	"slack-time-punch/internal/conf"

	"github.com/gorilla/mux"
)

// AuthHandler handles the Slack OAuth endpoints
type AuthHandler struct {
	authService AuthService
	mode        conf.CallbackMode
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService AuthService, mode conf.CallbackMode, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		mode:        mode,
		logger:      logger,
	}
}

// RegisterRoutes registers auth routes
func (h *AuthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/auth/slack", h.authorize).Methods(http.MethodGet)
	r.HandleFunc("/auth/slack/callback", h.callback).Methods(http.MethodGet)
	r.HandleFunc("/auth/logout", h.logout).Methods(http.MethodPost)
	r.HandleFunc("/auth/status", h.status).Methods(http.MethodGet)
}

// authorize issues a state and redirects to Slack.
// ?client=desktop makes the callback hand tokens to the desktop app's deep link.
func (h *AuthHandler) authorize(w http.ResponseWriter, r *http.Request) {
	target := auth.ParseTarget(r.URL.Query().Get("client"))

	res, err := h.authService.Authorize(r.Context(), target)
	if err != nil {
		h.logger.Error("failed to start oauth flow", "error", err)
		writeError(w, err, msgAuthStartFail)
		return
	}

	http.Redirect(w, r, res.URL, http.StatusFound)
}

// callback validates the state, exchanges the code and hands the tokens back to the client
func (h *AuthHandler) callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.authService.Callback(r.Context(), &CallbackRequest{
		Code:  q.Get("code"),
		State: q.Get("state"),
		Error: q.Get("error"),
	})
	if err != nil {
		h.logger.Warn("oauth callback failed", "error", err)

		var re *RedirectError
		if errors.As(err, &re) {
			http.Redirect(w, r, re.URL, http.StatusFound)
			return
		}
		writeError(w, err, msgCallbackFail)
		return
	}

	// custom schemes can't be followed from an HTML page, the deep link is always a plain redirect
	if res.Target == auth.TargetDesktop || h.mode == conf.CallbackModeRedirect {
		http.Redirect(w, r, res.RedirectURL, http.StatusFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if err := successPage.Execute(w, res); err != nil {
		h.logger.Error("failed to render success page", "error", err)
	}
}

// logout is a no-op server side: tokens only live on the client.
func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"message":     msgLoggedOut,
		"instruction": msgLogoutHint,
	})
}

func (h *AuthHandler) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": false,
		"message":       msgStatusHint,
	})
}

var successPage = template.Must(template.New("success").Parse(`<!DOCTYPE html>
<html lang="ja">
<head>
  <meta charset="UTF-8">
  <title>認証完了</title>
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
      display: flex;
      justify-content: center;
      align-items: center;
      min-height: 100vh;
      margin: 0;
      background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
      color: white;
    }
    .container {
      text-align: center;
      padding: 2rem;
      border-radius: 15px;
      background: rgba(255, 255, 255, 0.1);
    }
    a { color: white; }
  </style>
  <script>
    setTimeout(function () {
      window.location.href = {{.RedirectURL}};
    }, 1500);
  </script>
</head>
<body>
  <div class="container">
    <h2>🎉 認証完了！</h2>
    <p>アプリにリダイレクトしています...</p>
    <p><a href="{{.RedirectURL}}">自動で移動しない場合はこちら</a></p>
  </div>
</body>
</html>
`))
