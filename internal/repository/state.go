package repository

import (
	"context"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/domain"
)

// DashboardStateRepository 定义看板运行状态的读写 (Redis 实现)。
// 缓存不是权威数据，权威数据始终是数据库里的条目；缓存失败不应中断请求。
type DashboardStateRepository interface {
	// IncrLineOutput 为某条生产线当天的累计产量增加 delta。
	IncrLineOutput(ctx context.Context, lineID uint, delta int) error

	// GetLineOutput 读取某条生产线当天的累计产量，缓存未命中时返回 0。
	GetLineOutput(ctx context.Context, lineID uint) (int64, error)

	// SetLineOutput 覆盖写入某条生产线当天的累计产量 (由定时刷新任务调用)。
	SetLineOutput(ctx context.Context, lineID uint, total int64) error

	// PublishUpdate 将一次生产更新发布到 Redis Pub/Sub，
	// 供未来的多实例网关订阅。发布失败只记录，不影响本实例广播。
	PublishUpdate(ctx context.Context, path domain.HierarchyPath, payload []byte) error
}
