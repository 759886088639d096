package biz

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"slack-time-punch/internal/auth"
	"slack-time-punch/internal/conf"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeExchanger 记录调用次数并返回预设结果
type fakeExchanger struct {
	bundle *auth.TokenBundle
	err    error
	calls  atomic.Int32
}

func (f *fakeExchanger) AuthCodeURL(state string, _, _ []string) string {
	return "https://slack.com/oauth/v2/authorize?state=" + url.QueryEscape(state)
}

func (f *fakeExchanger) Exchange(ctx context.Context, code string) (*auth.TokenBundle, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.bundle, nil
}

var testClient = conf.Client{URL: "http://localhost:5173", DeepLinkScheme: "slack-time-punch"}

func newTestAuthUsecase(ex *fakeExchanger, opts ...auth.StateOption) (*AuthUsecase, *auth.StateStore) {
	states := auth.NewStateStore(opts...)
	return NewAuthUsecase(states, ex, testClient, discardLogger()), states
}

// TestAuthorize 测试授权 URL 生成与 state 签发
func TestAuthorize(t *testing.T) {
	uc, states := newTestAuthUsecase(&fakeExchanger{})

	res, err := uc.Authorize(auth.TargetWeb)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if res.Stage != StageAwaitingCallback {
		t.Errorf("stage = %s, want %s", res.Stage, StageAwaitingCallback)
	}
	if !strings.Contains(res.URL, "state="+res.State) {
		t.Errorf("url %q does not carry state %q", res.URL, res.State)
	}
	if states.Len() != 1 || uc.PendingStates() != 1 {
		t.Errorf("pending states = %d, want 1", states.Len())
	}
}

// TestCallbackSuccess 测试 web 端完整回调流程
func TestCallbackSuccess(t *testing.T) {
	ex := &fakeExchanger{bundle: &auth.TokenBundle{
		UserAccessToken: "xoxp-1",
		BotAccessToken:  "xoxb-1",
		TeamID:          "T1",
		UserID:          "U1",
	}}
	uc, states := newTestAuthUsecase(ex)
	start, _ := uc.Authorize(auth.TargetWeb)

	res, err := uc.Callback(context.Background(), &CallbackRequest{Code: "c1", State: start.State})
	if err != nil {
		t.Fatalf("Callback: %v", err)
	}
	if res.Stage != StageCompleted {
		t.Errorf("stage = %s", res.Stage)
	}
	if !strings.HasPrefix(res.RedirectURL, "http://localhost:5173?") {
		t.Errorf("redirect = %q", res.RedirectURL)
	}
	got, err := auth.ParseCallbackURL(res.RedirectURL)
	if err != nil {
		t.Fatalf("ParseCallbackURL: %v", err)
	}
	if got.UserAccessToken != "xoxp-1" || got.BotAccessToken != "xoxb-1" || got.TeamID != "T1" || got.UserID != "U1" {
		t.Errorf("decoded bundle = %+v", got)
	}
	if states.Len() != 0 {
		t.Errorf("state should be consumed, %d pending", states.Len())
	}
}

// TestCallbackDesktop 测试桌面端 deep link 回调
func TestCallbackDesktop(t *testing.T) {
	ex := &fakeExchanger{bundle: &auth.TokenBundle{UserAccessToken: "xoxp-1", TeamID: "T1", UserID: "U1"}}
	uc, _ := newTestAuthUsecase(ex)
	start, _ := uc.Authorize(auth.TargetDesktop)

	res, err := uc.Callback(context.Background(), &CallbackRequest{Code: "c1", State: start.State})
	if err != nil {
		t.Fatalf("Callback: %v", err)
	}
	if res.Target != auth.TargetDesktop {
		t.Errorf("target = %s", res.Target)
	}
	if !strings.HasPrefix(res.RedirectURL, "slack-time-punch://auth/callback?") {
		t.Errorf("redirect = %q", res.RedirectURL)
	}
}

// TestCallbackRejected 测试 state 校验前的失败路径，均不调用 Slack
func TestCallbackRejected(t *testing.T) {
	tests := []struct {
		name string
		req  func(state string) *CallbackRequest
		want error
	}{
		{"denied", func(s string) *CallbackRequest { return &CallbackRequest{Error: "access_denied", State: s} }, auth.ErrAuthorizationDenied},
		{"missing code", func(s string) *CallbackRequest { return &CallbackRequest{State: s} }, auth.ErrMissingParams},
		{"missing state", func(string) *CallbackRequest { return &CallbackRequest{Code: "c1"} }, auth.ErrMissingParams},
		{"unknown state", func(string) *CallbackRequest { return &CallbackRequest{Code: "c1", State: "deadbeef"} }, auth.ErrInvalidState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := &fakeExchanger{bundle: &auth.TokenBundle{UserAccessToken: "xoxp"}}
			uc, _ := newTestAuthUsecase(ex)
			start, _ := uc.Authorize(auth.TargetWeb)

			_, err := uc.Callback(context.Background(), tt.req(start.State))
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			var ve *auth.ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("err = %T, want ValidationError", err)
			}
			var fe *FlowError
			if !errors.As(err, &fe) || fe.Stage != StageAwaitingCallback {
				t.Errorf("flow error = %+v", fe)
			}
			if ex.calls.Load() != 0 {
				t.Errorf("exchange called %d times", ex.calls.Load())
			}
		})
	}
}

// TestCallbackStateReplay 测试同一 state 不能使用两次
func TestCallbackStateReplay(t *testing.T) {
	ex := &fakeExchanger{bundle: &auth.TokenBundle{UserAccessToken: "xoxp"}}
	uc, _ := newTestAuthUsecase(ex)
	start, _ := uc.Authorize(auth.TargetWeb)

	if _, err := uc.Callback(context.Background(), &CallbackRequest{Code: "c1", State: start.State}); err != nil {
		t.Fatalf("first callback: %v", err)
	}
	_, err := uc.Callback(context.Background(), &CallbackRequest{Code: "c1", State: start.State})
	if !errors.Is(err, auth.ErrInvalidState) {
		t.Fatalf("second callback err = %v, want ErrInvalidState", err)
	}
	if ex.calls.Load() != 1 {
		t.Errorf("exchange called %d times, want 1", ex.calls.Load())
	}
}

// TestCallbackExpiredState 测试过期 state 被拒绝且不再保留
func TestCallbackExpiredState(t *testing.T) {
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	ex := &fakeExchanger{bundle: &auth.TokenBundle{UserAccessToken: "xoxp"}}
	uc, states := newTestAuthUsecase(ex, auth.WithClock(clock))
	start, _ := uc.Authorize(auth.TargetWeb)

	now = now.Add(11 * time.Minute)
	_, err := uc.Callback(context.Background(), &CallbackRequest{Code: "c1", State: start.State})
	if !errors.Is(err, auth.ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
	if states.Len() != 0 {
		t.Errorf("expired state still pending")
	}
}

// TestCallbackExchangeFailure 测试交换失败时 state 已被消费
func TestCallbackExchangeFailure(t *testing.T) {
	ex := &fakeExchanger{err: &auth.SlackProtocolError{Code: "invalid_code"}}
	uc, states := newTestAuthUsecase(ex)
	start, _ := uc.Authorize(auth.TargetWeb)

	_, err := uc.Callback(context.Background(), &CallbackRequest{Code: "bad", State: start.State})
	var pe *auth.SlackProtocolError
	if !errors.As(err, &pe) || pe.Code != "invalid_code" {
		t.Fatalf("err = %v, want SlackProtocolError(invalid_code)", err)
	}
	var fe *FlowError
	if !errors.As(err, &fe) || fe.Stage != StageExchanging {
		t.Errorf("flow error = %+v, want stage exchanging", fe)
	}
	if fe.RedirectURL != "" {
		t.Errorf("web failure should not redirect, got %q", fe.RedirectURL)
	}
	if states.Len() != 0 {
		t.Errorf("state should be consumed even when exchange fails")
	}
}

// TestCallbackDesktopFailureRedirect 测试桌面端交换失败时通过 deep link 返回错误
func TestCallbackDesktopFailureRedirect(t *testing.T) {
	ex := &fakeExchanger{err: &auth.NetworkError{Op: "oauth.v2.access", Err: context.DeadlineExceeded}}
	uc, _ := newTestAuthUsecase(ex)
	start, _ := uc.Authorize(auth.TargetDesktop)

	_, err := uc.Callback(context.Background(), &CallbackRequest{Code: "c1", State: start.State})
	var fe *FlowError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want FlowError", err)
	}
	if !strings.HasPrefix(fe.RedirectURL, "slack-time-punch://auth/callback?error=") {
		t.Errorf("redirect = %q", fe.RedirectURL)
	}
	var ne *auth.NetworkError
	if !errors.As(err, &ne) {
		t.Errorf("err = %T, want NetworkError in chain", err)
	}
}

// TestCallbackConcurrentSameState 测试并发回调同一 state 只有一个成功
func TestCallbackConcurrentSameState(t *testing.T) {
	ex := &fakeExchanger{bundle: &auth.TokenBundle{UserAccessToken: "xoxp"}}
	uc, _ := newTestAuthUsecase(ex)
	start, _ := uc.Authorize(auth.TargetWeb)

	const n = 16
	var wg sync.WaitGroup
	var ok, invalid atomic.Int32
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Callback(context.Background(), &CallbackRequest{Code: "c1", State: start.State})
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, auth.ErrInvalidState):
				invalid.Add(1)
			}
		}()
	}
	wg.Wait()

	if ok.Load() != 1 || invalid.Load() != n-1 {
		t.Errorf("ok = %d invalid = %d, want 1 and %d", ok.Load(), invalid.Load(), n-1)
	}
	if ex.calls.Load() != 1 {
		t.Errorf("exchange called %d times, want 1", ex.calls.Load())
	}
}
