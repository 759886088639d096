package service

import (
	"context"
	"errors"

	"slack-time-punch/internal/api"
	"slack-time-punch/internal/auth"
	"slack-time-punch/internal/biz"
)

// authService 授权服务实现
type authService struct {
	authUsecase *biz.AuthUsecase
}

// NewAuthService 创建 AuthService
func NewAuthService(authUsecase *biz.AuthUsecase) api.AuthService {
	return &authService{
		authUsecase: authUsecase,
	}
}

// Authorize 开始授权流程
func (s *authService) Authorize(ctx context.Context, target auth.Target) (*api.AuthorizeResponse, error) {
	res, err := s.authUsecase.Authorize(target)
	if err != nil {
		return nil, err
	}
	return &api.AuthorizeResponse{URL: res.URL, Target: res.Target}, nil
}

// Callback 处理 Slack 回调，进行 DTO 转换
func (s *authService) Callback(ctx context.Context, req *api.CallbackRequest) (*api.CallbackResponse, error) {
	res, err := s.authUsecase.Callback(ctx, &biz.CallbackRequest{
		Code:  req.Code,
		State: req.State,
		Error: req.Error,
	})
	if err != nil {
		// 桌面端失败需要重定向到 deep link
		var fe *biz.FlowError
		if errors.As(err, &fe) && fe.RedirectURL != "" {
			return nil, &api.RedirectError{URL: fe.RedirectURL, Err: err}
		}
		return nil, err
	}

	return &api.CallbackResponse{
		RedirectURL: res.RedirectURL,
		Target:      res.Target,
	}, nil
}

// PendingStates 未消费的 state 数量
func (s *authService) PendingStates() int {
	return s.authUsecase.PendingStates()
}
