package repository

import (
	"context"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/domain"
)

// EntryRepository 定义生产条目的存储和查询。
// 所有操作都只保证单条记录级别的原子性，不假设跨条目事务。
type EntryRepository interface {
	// Save 保存条目 (新建或更新整条记录)。
	Save(ctx context.Context, entry *domain.ProductionEntry) error

	// FindByID 按 ID 查找条目，不存在时返回 ErrEntryNotFound。
	FindByID(ctx context.Context, id uint) (*domain.ProductionEntry, error)

	// UpdateHourlyData 持久化条目的小时数据和重算后的总产量。
	UpdateHourlyData(ctx context.Context, id uint, hourlyData string, totalOutput int) error

	// UpdateAttendance 持久化条目的出勤状态。
	UpdateAttendance(ctx context.Context, id uint, status string) error

	// ListByForm 列出表单下的所有条目。
	ListByForm(ctx context.Context, formID uint) ([]domain.ProductionEntry, error)
}

// IssueRepository 定义条目问题列表的存储。
type IssueRepository interface {
	// Save 保存一个问题记录。
	Save(ctx context.Context, issue *domain.ProductionIssue) error

	// Delete 删除条目下指定 ID 的问题，不存在时返回 ErrIssueNotFound。
	Delete(ctx context.Context, entryID uint, issueID string) error

	// ListByEntry 列出条目下的所有问题。
	ListByEntry(ctx context.Context, entryID uint) ([]domain.ProductionIssue, error)
}
