package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"slack-time-punch/internal/auth"
	"slack-time-punch/internal/conf"
	"slack-time-punch/internal/server"
)

var flagconf string

func init() {
	flag.StringVar(&flagconf, "conf", "configs/config.yaml", "config path, eg: -conf config.yaml")
}

func newLogger(format string) *slog.Logger {
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func main() {
	flag.Parse()

	// load config
	cfg, err := conf.Load(flagconf)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := newLogger(cfg.Server.LogFormat)

	handler, cleanup, err := server.NewHandler(cfg, logger)
	if err != nil {
		var ce *auth.ConfigurationError
		if errors.As(err, &ce) {
			logger.Error("slack credentials missing, set them in the environment or .env", "field", ce.Field)
		} else {
			logger.Error("failed to init app", "error", err)
		}
		os.Exit(1)
	}
	defer cleanup()

	logger.Info("slack oauth configured",
		"environment", cfg.Server.Environment,
		"redirect_uri", cfg.Slack.RedirectURI,
		"client_url", cfg.Client.URL,
		"callback_mode", cfg.Server.CallbackMode,
	)

	// wait for interrupt signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.NewHTTPServer(&cfg.Server, handler, logger)
	if err := srv.Run(ctx); err != nil {
		logger.Error("http server failed", "error", err)
		cleanup()
		os.Exit(1)
	}
	logger.Info("server stopped")
}
