package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"slack-time-punch/internal/conf"

	"golang.org/x/oauth2"
)

const (
	slackAuthURL  = "https://slack.com/oauth/v2/authorize"
	slackTokenURL = "https://slack.com/api/oauth.v2.access"

	maxTokenResponseBytes = 1 << 20
)

// SlackEndpoint is Slack's OAuth v2 endpoint. golang.org/x/oauth2/slack still points at v1.
var SlackEndpoint = oauth2.Endpoint{
	AuthURL:   slackAuthURL,
	TokenURL:  slackTokenURL,
	AuthStyle: oauth2.AuthStyleInParams,
}

// SlackOAuthClient wraps the Slack OAuth v2 authorize and oauth.v2.access endpoints.
// It holds no per-request state and is safe for concurrent use.
type SlackOAuthClient struct {
	oauth2Config oauth2.Config
	botScopes    []string
	userScopes   []string
	httpClient   *http.Client
}

// ClientOption configures a SlackOAuthClient
type ClientOption func(*SlackOAuthClient)

// WithHTTPClient replaces the default client (30s timeout).
func WithHTTPClient(c *http.Client) ClientOption {
	return func(sc *SlackOAuthClient) {
		sc.httpClient = c
	}
}

// WithEndpoint points the client at a different authorize/token endpoint.
func WithEndpoint(ep oauth2.Endpoint) ClientOption {
	return func(sc *SlackOAuthClient) {
		sc.oauth2Config.Endpoint = ep
	}
}

// NewSlackOAuthClient creates a new Slack OAuth client.
// Missing credentials fail fast with *ConfigurationError.
func NewSlackOAuthClient(cfg *conf.Slack, opts ...ClientOption) (*SlackOAuthClient, error) {
	switch {
	case cfg.ClientID == "":
		return nil, &ConfigurationError{Field: "SLACK_CLIENT_ID"}
	case cfg.ClientSecret == "":
		return nil, &ConfigurationError{Field: "SLACK_CLIENT_SECRET"}
	case cfg.RedirectURI == "":
		return nil, &ConfigurationError{Field: "REDIRECT_URI"}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = conf.DefaultSlackTimeout
	}

	c := &SlackOAuthClient{
		// Scopes stay empty: Slack wants them comma separated, oauth2 would join with spaces
		oauth2Config: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Endpoint:     SlackEndpoint,
		},
		botScopes:  cfg.BotScopes,
		userScopes: cfg.UserScopes,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// AuthCodeURL returns the Slack authorization URL. Empty scope lists fall back to the configured defaults.
func (c *SlackOAuthClient) AuthCodeURL(state string, botScopes, userScopes []string) string {
	if len(botScopes) == 0 {
		botScopes = c.botScopes
	}
	if len(userScopes) == 0 {
		userScopes = c.userScopes
	}

	var opts []oauth2.AuthCodeOption
	if len(botScopes) > 0 {
		opts = append(opts, oauth2.SetAuthURLParam("scope", strings.Join(botScopes, ",")))
	}
	if len(userScopes) > 0 {
		opts = append(opts, oauth2.SetAuthURLParam("user_scope", strings.Join(userScopes, ",")))
	}
	return c.oauth2Config.AuthCodeURL(state, opts...)
}

// Exchange exchanges an authorization code for tokens.
//
// The POST is made directly: oauth2.Config.Exchange demands a top level access_token
// and drops Slack's error code, and slack-go decodes expires_in into a plain int.
//
// Transport failures, timeouts and replies that are not Slack JSON yield *NetworkError;
// ok=false yields *SlackProtocolError carrying Slack's error code.
func (c *SlackOAuthClient) Exchange(ctx context.Context, code string) (*TokenBundle, error) {
	form := url.Values{
		"client_id":     {c.oauth2Config.ClientID},
		"client_secret": {c.oauth2Config.ClientSecret},
		"code":          {code},
		"redirect_uri":  {c.oauth2Config.RedirectURL},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.oauth2Config.Endpoint.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: "oauth.v2.access", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponseBytes))
	if err != nil {
		return nil, &NetworkError{Op: "oauth.v2.access", Err: err}
	}

	var result oauthV2AccessResponse
	if err := json.Unmarshal(body, &result); err != nil || result.OK == nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &NetworkError{Op: "oauth.v2.access", Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
		}
		if err == nil {
			err = fmt.Errorf("response has no ok field")
		}
		return nil, &NetworkError{Op: "oauth.v2.access", Err: fmt.Errorf("decode response: %w", err)}
	}

	return result.bundle()
}

// oauthV2AccessResponse is the oauth.v2.access reply: {ok: true, ...} or {ok: false, error}.
// Pointer fields tell absent apart from zero.
type oauthV2AccessResponse struct {
	OK          *bool  `json:"ok"`
	Error       string `json:"error"`
	AccessToken string `json:"access_token"` // bot token
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
	BotUserID   string `json:"bot_user_id"`
	AppID       string `json:"app_id"`
	Team        *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"team"`
	AuthedUser *struct {
		ID          string `json:"id"`
		Scope       string `json:"scope"`
		AccessToken string `json:"access_token"` // user token
		TokenType   string `json:"token_type"`
		ExpiresIn   *int   `json:"expires_in"` // only with token rotation
	} `json:"authed_user"`
}

func (r *oauthV2AccessResponse) bundle() (*TokenBundle, error) {
	if !*r.OK {
		code := r.Error
		if code == "" {
			code = "unknown_error"
		}
		return nil, &SlackProtocolError{Code: code}
	}

	b := &TokenBundle{
		BotAccessToken: r.AccessToken,
		Scope:          r.Scope,
	}
	if r.Team != nil {
		b.TeamID = r.Team.ID
	}
	if r.AuthedUser != nil {
		b.UserID = r.AuthedUser.ID
		b.UserAccessToken = r.AuthedUser.AccessToken
		b.UserScope = r.AuthedUser.Scope
		if r.AuthedUser.ExpiresIn != nil {
			expiresIn := *r.AuthedUser.ExpiresIn
			b.ExpiresIn = &expiresIn
		}
	}

	if !b.HasToken() {
		return nil, &SlackProtocolError{Code: "invalid_response"}
	}
	return b, nil
}
