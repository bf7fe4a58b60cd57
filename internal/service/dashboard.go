package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/repository"
)

// DashboardService 提供看板读取接口。
// 数据来自 Redis 缓存的当天累计产量，由聚合器增量维护、定时任务兜底校正。
type DashboardService struct {
	stateRepo repository.DashboardStateRepository
}

// NewDashboardService 创建 DashboardService 实例。
func NewDashboardService(stateRepo repository.DashboardStateRepository) *DashboardService {
	if stateRepo == nil {
		panic("dashboard state repository must be non-nil for DashboardService")
	}
	return &DashboardService{stateRepo: stateRepo}
}

// LineSnapshot 是单条生产线的看板快照。
type LineSnapshot struct {
	LineID      uint  `json:"lineId"`
	TotalOutput int64 `json:"totalOutput"`
}

// GetLineSnapshot 读取某条生产线当天的累计产量。缓存未命中按 0 处理。
func (s *DashboardService) GetLineSnapshot(ctx context.Context, lineID uint) (*LineSnapshot, error) {
	total, err := s.stateRepo.GetLineOutput(ctx, lineID)
	if err != nil {
		logrus.WithError(err).WithField("line_id", lineID).Error("Failed to read line output from cache")
		return nil, ErrInternalServer
	}
	return &LineSnapshot{LineID: lineID, TotalOutput: total}, nil
}
