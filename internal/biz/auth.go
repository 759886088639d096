package biz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"slack-time-punch/internal/auth"
	"slack-time-punch/internal/conf"
)

// StateManager CSRF state 的签发与一次性校验（由 auth.StateStore 实现）
type StateManager interface {
	GenerateFor(target auth.Target) string
	Consume(candidate string) (auth.AuthState, bool)
	Len() int
}

// TokenExchanger Slack OAuth 协议细节（由 auth.SlackOAuthClient 实现）
type TokenExchanger interface {
	AuthCodeURL(state string, botScopes, userScopes []string) string
	Exchange(ctx context.Context, code string) (*auth.TokenBundle, error)
}

// AuthUsecase 授权流程业务逻辑
type AuthUsecase struct {
	states      StateManager
	exchanger   TokenExchanger
	webURL      string
	deepLinkURL string
	logger      *slog.Logger
}

// NewAuthUsecase 创建 AuthUsecase
func NewAuthUsecase(states StateManager, exchanger TokenExchanger, cfg conf.Client, logger *slog.Logger) *AuthUsecase {
	return &AuthUsecase{
		states:      states,
		exchanger:   exchanger,
		webURL:      cfg.URL,
		deepLinkURL: cfg.DeepLinkURL(),
		logger:      logger,
	}
}

// AuthorizeResult 授权开始结果
type AuthorizeResult struct {
	URL    string
	State  string
	Target auth.Target
	Stage  FlowStage
}

// Authorize 签发 state 并生成 Slack 授权 URL
func (uc *AuthUsecase) Authorize(target auth.Target) (*AuthorizeResult, error) {
	f := newFlow(StageIdle, uc.logger)

	state := uc.states.GenerateFor(target)
	if err := f.advance(StageStateIssued); err != nil {
		return nil, err
	}

	authURL := uc.exchanger.AuthCodeURL(state, nil, nil)
	if err := f.advance(StageAwaitingCallback); err != nil {
		return nil, err
	}

	uc.logger.Info("oauth flow started", "target", target, "pending_states", uc.states.Len())
	return &AuthorizeResult{
		URL:    authURL,
		State:  state,
		Target: target,
		Stage:  f.stage,
	}, nil
}

// CallbackRequest Slack 回调参数
type CallbackRequest struct {
	Code  string
	State string
	Error string
}

// CallbackResult 回调成功结果
type CallbackResult struct {
	Bundle      *auth.TokenBundle
	Encoded     string
	RedirectURL string
	Target      auth.Target
	Stage       FlowStage
}

// Callback 校验 state、交换 code 并编码 token
// state 在校验时即被消费，无论之后交换是否成功
func (uc *AuthUsecase) Callback(ctx context.Context, req *CallbackRequest) (*CallbackResult, error) {
	f := newFlow(StageAwaitingCallback, uc.logger)

	if req.Error != "" {
		return nil, f.fail(&auth.ValidationError{Reason: auth.ErrAuthorizationDenied, Detail: req.Error})
	}
	if req.Code == "" || req.State == "" {
		return nil, f.fail(&auth.ValidationError{Reason: auth.ErrMissingParams})
	}

	st, ok := uc.states.Consume(req.State)
	if !ok {
		return nil, f.fail(&auth.ValidationError{Reason: auth.ErrInvalidState})
	}
	// state 校验通过后，桌面端的失败也通过 deep link 通知客户端
	failAfterValidation := func(err error) error {
		ferr := f.fail(err)
		if st.Target != auth.TargetDesktop {
			return ferr
		}
		var fe *FlowError
		if errors.As(ferr, &fe) {
			if u, uerr := auth.CallbackErrorURL(uc.deepLinkURL, err.Error()); uerr == nil {
				fe.RedirectURL = u
			}
		}
		return ferr
	}

	if err := f.advance(StageValidated); err != nil {
		return nil, failAfterValidation(err)
	}

	if err := f.advance(StageExchanging); err != nil {
		return nil, failAfterValidation(err)
	}
	bundle, err := uc.exchanger.Exchange(ctx, req.Code)
	if err != nil {
		return nil, failAfterValidation(err)
	}

	encoded, err := auth.EncodeCallback(bundle)
	if err != nil {
		return nil, failAfterValidation(err)
	}

	base := uc.webURL
	if st.Target == auth.TargetDesktop {
		base = uc.deepLinkURL
	}
	redirectURL, err := auth.CallbackURL(base, encoded)
	if err != nil {
		return nil, failAfterValidation(fmt.Errorf("build redirect: %w", err))
	}

	if err := f.advance(StageCompleted); err != nil {
		return nil, failAfterValidation(err)
	}

	uc.logger.Info("oauth flow completed",
		"target", st.Target,
		"team_id", bundle.TeamID,
		"user_id", bundle.UserID,
		"has_user_token", bundle.UserAccessToken != "",
		"has_bot_token", bundle.BotAccessToken != "",
		"permanent", bundle.IsPermanent(),
		"encoded_length", len(encoded),
	)

	return &CallbackResult{
		Bundle:      bundle,
		Encoded:     encoded,
		RedirectURL: redirectURL,
		Target:      st.Target,
		Stage:       f.stage,
	}, nil
}

// PendingStates 当前未消费的 state 数量
func (uc *AuthUsecase) PendingStates() int {
	return uc.states.Len()
}
