package conf

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAddr           = ":3000"
	DefaultClientURL      = "http://localhost:5173"
	DefaultDeepLinkScheme = "slack-time-punch"
	DefaultSlackAPIURL    = "https://slack.com/api/"
	DefaultSlackTimeout   = 30 * time.Second
	DefaultBotScopes      = "commands,incoming-webhook,chat:write"
	DefaultUserScopes     = "channels:read,chat:write,identify"
)

// CallbackMode controls how a successful OAuth callback hands control back to the browser.
type CallbackMode string

const (
	// CallbackModeHTML renders a small page that forwards the browser (server deployment).
	CallbackModeHTML CallbackMode = "html"
	// CallbackModeRedirect answers with a plain 302 (Lambda deployment).
	CallbackModeRedirect CallbackMode = "redirect"
)

// Config is the config structure.
type Config struct {
	Server Server `yaml:"server"`
	Slack  Slack  `yaml:"slack"`
	Client Client `yaml:"client"`
	Punch  Punch  `yaml:"punch"`
}

// Server is the server config.
type Server struct {
	Addr         string       `yaml:"addr"`
	Environment  string       `yaml:"environment"`
	CallbackMode CallbackMode `yaml:"callback_mode"`
	LogFormat    string       `yaml:"log_format"` // text or json
}

// Slack is the Slack app config.
type Slack struct {
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	RedirectURI  string        `yaml:"redirect_uri"`
	BotScopes    []string      `yaml:"bot_scopes"`
	UserScopes   []string      `yaml:"user_scopes"`
	APIURL       string        `yaml:"api_url"` // Optional: Web API base, trailing slash required
	Timeout      time.Duration `yaml:"timeout"`
}

// Client describes where tokens are handed back to.
type Client struct {
	URL            string `yaml:"url"`
	DeepLinkScheme string `yaml:"deep_link_scheme"`
}

// Punch is the punch log config. An empty DBPath disables the log.
type Punch struct {
	DBPath string `yaml:"db_path"`
}

// DeepLinkURL returns the desktop callback target, eg: slack-time-punch://auth/callback
func (c *Client) DeepLinkURL() string {
	return c.DeepLinkScheme + "://auth/callback"
}

// Load loads config from file, .env and the environment, in that order of precedence (lowest first).
// A missing config file is not an error: the Lambda deployment is configured purely by env vars.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	// .env never overrides variables already present in the process environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	if cfg.Server.CallbackMode != CallbackModeHTML && cfg.Server.CallbackMode != CallbackModeRedirect {
		return nil, fmt.Errorf("unknown callback mode %q", cfg.Server.CallbackMode)
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("SLACK_CLIENT_ID"); v != "" {
		cfg.Slack.ClientID = v
	}
	if v := os.Getenv("SLACK_CLIENT_SECRET"); v != "" {
		cfg.Slack.ClientSecret = v
	}
	if v := os.Getenv("REDIRECT_URI"); v != "" {
		cfg.Slack.RedirectURI = v
	}
	if v := os.Getenv("SLACK_SCOPES"); v != "" {
		cfg.Slack.BotScopes = SplitScopes(v)
	}
	if v := os.Getenv("SLACK_USER_SCOPES"); v != "" {
		cfg.Slack.UserScopes = SplitScopes(v)
	}
	if v := os.Getenv("SLACK_API_URL"); v != "" {
		cfg.Slack.APIURL = v
	}
	if v := os.Getenv("SLACK_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SLACK_TIMEOUT %q: %w", v, err)
		}
		cfg.Slack.Timeout = d
	}
	if v := os.Getenv("CLIENT_URL"); v != "" {
		cfg.Client.URL = v
	}
	if v := os.Getenv("DEEP_LINK_SCHEME"); v != "" {
		cfg.Client.DeepLinkScheme = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Addr = ":" + v
	}
	// NODE_ENV is kept so existing deployments keep working
	if v := os.Getenv("NODE_ENV"); v != "" {
		cfg.Server.Environment = v
	}
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Server.Environment = v
	}
	if v := os.Getenv("CALLBACK_MODE"); v != "" {
		cfg.Server.CallbackMode = CallbackMode(v)
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Server.LogFormat = v
	}
	if v := os.Getenv("PUNCH_DB_PATH"); v != "" {
		cfg.Punch.DBPath = v
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultAddr
	}
	if cfg.Server.Environment == "" {
		cfg.Server.Environment = "development"
	}
	if cfg.Server.CallbackMode == "" {
		cfg.Server.CallbackMode = CallbackModeHTML
	}
	if cfg.Server.LogFormat == "" {
		cfg.Server.LogFormat = "text"
	}
	if len(cfg.Slack.BotScopes) == 0 {
		cfg.Slack.BotScopes = SplitScopes(DefaultBotScopes)
	}
	if len(cfg.Slack.UserScopes) == 0 {
		cfg.Slack.UserScopes = SplitScopes(DefaultUserScopes)
	}
	if cfg.Slack.APIURL == "" {
		cfg.Slack.APIURL = DefaultSlackAPIURL
	}
	if !strings.HasSuffix(cfg.Slack.APIURL, "/") {
		cfg.Slack.APIURL += "/"
	}
	if cfg.Slack.Timeout <= 0 {
		cfg.Slack.Timeout = DefaultSlackTimeout
	}
	if cfg.Client.URL == "" {
		cfg.Client.URL = DefaultClientURL
	}
	if cfg.Client.DeepLinkScheme == "" {
		cfg.Client.DeepLinkScheme = DefaultDeepLinkScheme
	}
}

// SplitScopes splits a comma separated scope list, dropping blanks.
func SplitScopes(s string) []string {
	var scopes []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			scopes = append(scopes, p)
		}
	}
	return scopes
}
