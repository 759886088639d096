package api

import (
	"log/slog"
	"net/http"
	"net/url"

	"slack-time-punch/internal/auth"

	"github.com/gorilla/mux"
)

// Handlers groups the handlers mounted by NewRouter. PunchHandler may be nil.
type Handlers struct {
	Auth   *AuthHandler
	Slack  *SlackHandler
	Punch  *PunchHandler
	Health *HealthHandler
}

// NewRouter 创建路由并注册所有 handler
func NewRouter(h Handlers, clientURL string, logger *slog.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(RequestID(), Logging(logger), Recover(logger), CORS(clientURL))

	// CORS preflight for every path
	r.Methods(http.MethodOptions).HandlerFunc(preflight)

	// Health check endpoint (public, no auth)
	r.Handle("/health", h.Health).Methods(http.MethodGet)

	// Root forwards to the web client, keeping the query (eg: ?auth=success&token=...)
	r.HandleFunc("/", clientRedirect(clientURL)).Methods(http.MethodGet)

	// OAuth flow (public)
	h.Auth.RegisterRoutes(r)

	// Slack Web API pass-through, token in header or query
	h.Slack.RegisterRoutes(r)

	// Time punch API
	if h.Punch != nil {
		apiRouter := r.PathPrefix("/v1").Subrouter()
		apiRouter.Use(auth.TokenMiddleware())
		h.Punch.RegisterRoutes(apiRouter)
	}

	notFound := CORS(clientURL)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error":  msgNotFound,
			"method": r.Method,
			"path":   r.URL.Path,
		})
	}))
	r.NotFoundHandler = notFound
	r.MethodNotAllowedHandler = notFound

	return r
}

func clientRedirect(clientURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := clientURL
		if r.URL.RawQuery != "" {
			if u, err := url.Parse(clientURL); err == nil {
				u.RawQuery = r.URL.RawQuery
				target = u.String()
			}
		}
		http.Redirect(w, r, target, http.StatusFound)
	}
}
