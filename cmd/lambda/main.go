package main

import (
	"log/slog"
	"os"

	"slack-time-punch/internal/conf"
	"slack-time-punch/internal/server"

	"github.com/aws/aws-lambda-go/lambda"
)

func main() {
	// Lambda is configured by environment variables only
	cfg, err := conf.Load("")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	// successful callbacks answer with a plain 302 behind API Gateway
	cfg.Server.CallbackMode = conf.CallbackModeRedirect

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	handler, cleanup, err := server.NewHandler(cfg, logger)
	if err != nil {
		logger.Error("failed to init app", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	lambda.Start(server.NewLambdaHandler(handler, logger).Handle)
}
