package gormpersistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/domain"
)

// GormEventLogRepository 是 EventLogRepository 接口的 GORM 实现
type GormEventLogRepository struct {
	db *gorm.DB
}

// NewGormEventLogRepository 创建 GormEventLogRepository 实例
func NewGormEventLogRepository(db *gorm.DB) *GormEventLogRepository {
	if db == nil {
		panic("database connection cannot be nil for GormEventLogRepository")
	}
	return &GormEventLogRepository{db: db}
}

// SaveBatch 批量保存事件记录。GORM 的 Create 支持切片批量插入。
func (r *GormEventLogRepository) SaveBatch(ctx context.Context, events []domain.ProductionEvent) error {
	if len(events) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&events).Error; err != nil {
		return fmt.Errorf("gorm: save event batch (size %d): %w", len(events), err)
	}
	return nil
}

// GetCountSince 获取某个条目在指定时间之后的事件数量
func (r *GormEventLogRepository) GetCountSince(ctx context.Context, entryID uint, since time.Time) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&domain.ProductionEvent{}).Where("entry_id = ?", entryID)
	if !since.IsZero() {
		query = query.Where("created_at > ?", since)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("gorm: count events for entry %d since %v: %w", entryID, since, err)
	}
	return count, nil
}

// ListByEntry 列出条目的事件记录，按时间倒序
func (r *GormEventLogRepository) ListByEntry(ctx context.Context, entryID uint, limit int) ([]domain.ProductionEvent, error) {
	var events []domain.ProductionEvent
	err := r.db.WithContext(ctx).
		Where("entry_id = ?", entryID).
		Order("created_at desc").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list events for entry %d: %w", entryID, err)
	}
	return events, nil
}
