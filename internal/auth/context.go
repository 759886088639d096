package auth

import (
	"context"
	"errors"
)

type slackTokenKey struct{}

var (
	// ErrNoTokenInContext is returned when no Slack token is found in context
	ErrNoTokenInContext = errors.New("no slack token in context")
)

// WithSlackToken stores the caller's Slack token in ctx.
func WithSlackToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, slackTokenKey{}, token)
}

// SlackTokenFromContext extracts the caller's Slack token from request context
func SlackTokenFromContext(ctx context.Context) (string, error) {
	token, ok := ctx.Value(slackTokenKey{}).(string)
	if !ok || token == "" {
		return "", ErrNoTokenInContext
	}
	return token, nil
}
