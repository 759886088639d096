package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// callbackPayload is the JSON carried in the token query parameter.
// The first four keys are what the web and desktop clients read.
type callbackPayload struct {
	UserToken string `json:"userToken"`
	BotToken  string `json:"botToken"`
	TeamID    string `json:"teamId"`
	UserID    string `json:"userId"`
	Scope     string `json:"scope,omitempty"`
	UserScope string `json:"userScope,omitempty"`
	ExpiresIn *int   `json:"expiresIn,omitempty"`
}

// EncodeCallback serializes a bundle to URL-safe base64 JSON without padding.
func EncodeCallback(b *TokenBundle) (string, error) {
	data, err := json.Marshal(callbackPayload{
		UserToken: b.UserAccessToken,
		BotToken:  b.BotAccessToken,
		TeamID:    b.TeamID,
		UserID:    b.UserID,
		Scope:     b.Scope,
		UserScope: b.UserScope,
		ExpiresIn: b.ExpiresIn,
	})
	if err != nil {
		return "", fmt.Errorf("encode callback: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeCallback is the inverse of EncodeCallback. Padded input is accepted.
func DecodeCallback(payload string) (*TokenBundle, error) {
	if payload == "" {
		return nil, &DecodeError{Err: ErrEmptyPayload}
	}

	data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(payload, "="))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	var p callbackPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, &DecodeError{Err: err}
	}

	b := &TokenBundle{
		UserAccessToken: p.UserToken,
		BotAccessToken:  p.BotToken,
		TeamID:          p.TeamID,
		UserID:          p.UserID,
		Scope:           p.Scope,
		UserScope:       p.UserScope,
		ExpiresIn:       p.ExpiresIn,
	}
	if !b.HasToken() {
		return nil, &DecodeError{Err: ErrEmptyPayload}
	}
	return b, nil
}

// CallbackURL appends auth=success&token=<payload> to base, keeping any existing query.
func CallbackURL(base, payload string) (string, error) {
	return withQuery(base, map[string]string{"auth": "success", "token": payload})
}

// CallbackErrorURL appends error=<msg> to base.
func CallbackErrorURL(base, msg string) (string, error) {
	return withQuery(base, map[string]string{"error": msg})
}

// ParseCallbackURL reads a redirect or deep link produced by CallbackURL or CallbackErrorURL,
// eg: slack-time-punch://auth/callback?auth=success&token=...
func ParseCallbackURL(raw string) (*TokenBundle, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	q := u.Query()
	if msg := q.Get("error"); msg != "" {
		return nil, &ValidationError{Reason: ErrAuthorizationDenied, Detail: msg}
	}
	if q.Get("auth") != "success" {
		return nil, &DecodeError{Err: errors.New("auth=success is missing")}
	}
	return DecodeCallback(q.Get("token"))
}

func withQuery(base string, params map[string]string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid callback target %q: %w", base, err)
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
