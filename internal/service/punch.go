package service

import (
	"context"

	"slack-time-punch/internal/api"
	"slack-time-punch/internal/biz"
)

// punchService 打卡服务实现
type punchService struct {
	punchUsecase *biz.PunchUsecase
}

// NewPunchService 创建 PunchService
func NewPunchService(punchUsecase *biz.PunchUsecase) api.PunchService {
	return &punchService{
		punchUsecase: punchUsecase,
	}
}

// Punch 打卡，进行 DTO 转换
func (s *punchService) Punch(ctx context.Context, token string, req *api.PunchRequest) (*api.PunchInfo, error) {
	rec, err := s.punchUsecase.Punch(ctx, &biz.PunchRequest{
		Token:     token,
		ChannelID: req.ChannelID,
		Type:      biz.PunchType(req.Type),
	})
	if err != nil {
		return nil, err
	}
	info := toPunchInfo(rec)
	return &info, nil
}

// ListPunches 列出调用者自己的打卡记录
func (s *punchService) ListPunches(ctx context.Context, token string, limit int) ([]api.PunchInfo, error) {
	recs, err := s.punchUsecase.History(ctx, token, limit)
	if err != nil {
		return nil, err
	}

	result := make([]api.PunchInfo, len(recs))
	for i, rec := range recs {
		result[i] = toPunchInfo(rec)
	}
	return result, nil
}

func toPunchInfo(rec *biz.PunchRecord) api.PunchInfo {
	return api.PunchInfo{
		ID:        rec.ID,
		Type:      string(rec.Type),
		UserID:    rec.UserID,
		TeamID:    rec.TeamID,
		ChannelID: rec.ChannelID,
		MessageTS: rec.MessageTS,
		Message:   rec.Type.Message(),
		CreatedAt: rec.CreatedAt,
	}
}
