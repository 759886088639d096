package server

import (
	"log/slog"
	"net/http"

	"slack-time-punch/internal/api"
	"slack-time-punch/internal/auth"
	"slack-time-punch/internal/biz"
	"slack-time-punch/internal/conf"
	"slack-time-punch/internal/data"
	"slack-time-punch/internal/service"
)

// Version is reported by /health. Overridden at build time with -ldflags.
var Version = "1.0.0"

// Option configures NewHandler
type Option func(*options)

type options struct {
	httpClient *http.Client
	stateOpts  []auth.StateOption
}

// WithSlackHTTPClient sets the client used for every call to Slack.
func WithSlackHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithStateOptions configures the state table, eg: a fake clock in tests.
func WithStateOptions(opts ...auth.StateOption) Option {
	return func(o *options) { o.stateOpts = append(o.stateOpts, opts...) }
}

// NewHandler wires every layer and returns the router shared by the HTTP server and Lambda.
// The returned cleanup closes the punch log.
func NewHandler(cfg *conf.Config, logger *slog.Logger, opts ...Option) (http.Handler, func(), error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	// 手动依赖注入
	// auth 层
	var clientOpts []auth.ClientOption
	if o.httpClient != nil {
		clientOpts = append(clientOpts, auth.WithHTTPClient(o.httpClient))
	}
	oauthClient, err := auth.NewSlackOAuthClient(&cfg.Slack, clientOpts...)
	if err != nil {
		return nil, nil, err
	}
	states := auth.NewStateStore(o.stateOpts...)

	// data 层
	slackAPI := data.NewSlackGateway(&cfg.Slack, o.httpClient)
	var punchRepo biz.PunchRepo
	cleanup := func() {}
	if cfg.Punch.DBPath != "" {
		punchRepo, err = data.NewSQLitePunchRepo(cfg.Punch.DBPath)
		if err != nil {
			return nil, nil, err
		}
		cleanup = func() {
			if err := punchRepo.Close(); err != nil {
				logger.Error("failed to close punch log", "error", err)
			}
		}
		logger.Info("punch log enabled", "path", cfg.Punch.DBPath)
	}

	// biz 层
	authUsecase := biz.NewAuthUsecase(states, oauthClient, cfg.Client, logger)
	workspaceUsecase := biz.NewWorkspaceUsecase(slackAPI)
	punchUsecase := biz.NewPunchUsecase(slackAPI, punchRepo, logger)

	// service 层
	authService := service.NewAuthService(authUsecase)
	slackService := service.NewSlackService(workspaceUsecase)
	punchService := service.NewPunchService(punchUsecase)

	// api 层
	router := api.NewRouter(api.Handlers{
		Auth:   api.NewAuthHandler(authService, cfg.Server.CallbackMode, logger),
		Slack:  api.NewSlackHandler(slackService, logger),
		Punch:  api.NewPunchHandler(punchService, logger),
		Health: api.NewHealthHandler(cfg.Server.Environment, Version, authService.PendingStates),
	}, cfg.Client.URL, logger)

	return router, cleanup, nil
}
