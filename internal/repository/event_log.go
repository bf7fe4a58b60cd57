package repository

import (
	"context"
	"time"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/domain"
)

// EventLogRepository 定义生产事件审计记录的存储和查询。
type EventLogRepository interface {
	// SaveBatch 批量保存事件记录 (由 asynq worker 调用)。
	SaveBatch(ctx context.Context, events []domain.ProductionEvent) error

	// GetCountSince 获取某个条目在指定时间之后的事件数量。
	GetCountSince(ctx context.Context, entryID uint, since time.Time) (int64, error)

	// ListByEntry 列出条目的事件记录，按时间倒序。
	ListByEntry(ctx context.Context, entryID uint, limit int) ([]domain.ProductionEvent, error)
}
