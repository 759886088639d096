package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingParams is returned when the callback lacks code or state.
	ErrMissingParams = errors.New("missing code or state parameter")
	// ErrInvalidState is returned for unknown, already used or expired state tokens.
	ErrInvalidState = errors.New("invalid or expired state parameter")
	// ErrAuthorizationDenied is returned when Slack redirects back with an error parameter.
	ErrAuthorizationDenied = errors.New("authorization was cancelled")
	// ErrMissingToken is returned when a Slack API call is made without a token.
	ErrMissingToken = errors.New("missing slack token")
	// ErrEmptyPayload is returned when a callback payload carries no token.
	ErrEmptyPayload = errors.New("callback payload contains no token")
)

// ConfigurationError reports missing OAuth credentials. It is fatal at startup.
type ConfigurationError struct {
	Field string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("slack oauth credentials are not properly configured: %s is required", e.Field)
}

// ValidationError is a recoverable request problem, surfaced as 400.
type ValidationError struct {
	Reason error
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return e.Reason.Error()
	}
	return e.Reason.Error() + ": " + e.Detail
}

func (e *ValidationError) Unwrap() error {
	return e.Reason
}

// SlackProtocolError is a well formed Slack reply with ok=false.
type SlackProtocolError struct {
	Code string // Slack's error field, eg: invalid_code
}

func (e *SlackProtocolError) Error() string {
	return "slack error: " + e.Code
}

// IsAuthError reports whether the code means the credentials themselves were rejected.
func (e *SlackProtocolError) IsAuthError() bool {
	switch e.Code {
	case "invalid_auth", "not_authed", "token_revoked", "token_expired", "account_inactive":
		return true
	}
	return false
}

// NetworkError is a transport level failure talking to Slack, including timeouts.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: request failed: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// DecodeError is a malformed callback payload.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "invalid callback payload: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
