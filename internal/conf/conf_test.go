package conf

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"SLACK_CLIENT_ID", "SLACK_CLIENT_SECRET", "REDIRECT_URI", "SLACK_SCOPES", "SLACK_USER_SCOPES",
		"SLACK_API_URL", "SLACK_TIMEOUT", "CLIENT_URL", "DEEP_LINK_SCHEME", "PORT", "NODE_ENV", "APP_ENV",
		"CALLBACK_MODE", "LOG_FORMAT", "PUNCH_DB_PATH",
	} {
		t.Setenv(k, "")
	}
}

// TestLoadDefaults 没有配置文件时使用默认值
func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Addr != DefaultAddr {
		t.Errorf("addr = %q, want %q", cfg.Server.Addr, DefaultAddr)
	}
	if cfg.Server.CallbackMode != CallbackModeHTML {
		t.Errorf("callback mode = %q, want html", cfg.Server.CallbackMode)
	}
	if !reflect.DeepEqual(cfg.Slack.BotScopes, []string{"commands", "incoming-webhook", "chat:write"}) {
		t.Errorf("bot scopes = %v", cfg.Slack.BotScopes)
	}
	if !reflect.DeepEqual(cfg.Slack.UserScopes, []string{"channels:read", "chat:write", "identify"}) {
		t.Errorf("user scopes = %v", cfg.Slack.UserScopes)
	}
	if cfg.Slack.Timeout != 30*time.Second {
		t.Errorf("timeout = %v, want 30s", cfg.Slack.Timeout)
	}
	if cfg.Client.URL != DefaultClientURL {
		t.Errorf("client url = %q", cfg.Client.URL)
	}
	if got := cfg.Client.DeepLinkURL(); got != "slack-time-punch://auth/callback" {
		t.Errorf("deep link = %q", got)
	}
}

// TestLoadFileAndEnvOverride 环境变量覆盖配置文件
func TestLoadFileAndEnvOverride(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  addr: ":8080"
  callback_mode: redirect
slack:
  client_id: file-id
  client_secret: file-secret
  redirect_uri: https://api.example.com/auth/slack/callback
  api_url: http://127.0.0.1:9999/api
  timeout: 5s
client:
  url: https://punch.example.com
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SLACK_CLIENT_SECRET", "env-secret")
	t.Setenv("SLACK_USER_SCOPES", " chat:write , ,identify")
	t.Setenv("PORT", "4000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Slack.ClientID != "file-id" {
		t.Errorf("client id = %q", cfg.Slack.ClientID)
	}
	if cfg.Slack.ClientSecret != "env-secret" {
		t.Errorf("client secret = %q, want env override", cfg.Slack.ClientSecret)
	}
	if !reflect.DeepEqual(cfg.Slack.UserScopes, []string{"chat:write", "identify"}) {
		t.Errorf("user scopes = %v", cfg.Slack.UserScopes)
	}
	if cfg.Server.Addr != ":4000" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Server.CallbackMode != CallbackModeRedirect {
		t.Errorf("callback mode = %q", cfg.Server.CallbackMode)
	}
	if cfg.Slack.APIURL != "http://127.0.0.1:9999/api/" {
		t.Errorf("api url = %q", cfg.Slack.APIURL)
	}
	if cfg.Slack.Timeout != 5*time.Second {
		t.Errorf("timeout = %v", cfg.Slack.Timeout)
	}
}

func TestLoadRejectsUnknownCallbackMode(t *testing.T) {
	clearEnv(t)
	t.Setenv("CALLBACK_MODE", "popup")

	if _, err := Load(""); err == nil {
		t.Fatal("should fail with unknown callback mode")
	}
}

// TestLoadRejectsBadEnv 格式错误的 .env 与无法解析的超时不能静默回退到默认值
func TestLoadRejectsBadEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SLACK_TIMEOUT", "thirty")

	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "SLACK_TIMEOUT") {
		t.Errorf("bad timeout err = %v", err)
	}

	t.Setenv("SLACK_TIMEOUT", "")
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("BAD-KEY=1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)

	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), ".env") {
		t.Errorf("malformed .env err = %v", err)
	}
}

// TestLoadMissingEnvFile 没有 .env 文件时正常加载
func TestLoadMissingEnvFile(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	if _, err := Load(""); err != nil {
		t.Errorf("Load without .env: %v", err)
	}
}

// chdir 切换工作目录并在测试结束时恢复（等价于 Go 1.24 的 t.Chdir）
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
}
