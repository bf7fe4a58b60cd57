package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/domain"
	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/repository"
)

// GormEntryRepository 是 EntryRepository 接口的 GORM 实现
type GormEntryRepository struct {
	db *gorm.DB
}

// NewGormEntryRepository 创建 GormEntryRepository 实例
func NewGormEntryRepository(db *gorm.DB) *GormEntryRepository {
	if db == nil {
		panic("database connection cannot be nil for GormEntryRepository")
	}
	return &GormEntryRepository{db: db}
}

// Save 保存条目（创建或更新整条记录）
func (r *GormEntryRepository) Save(ctx context.Context, entry *domain.ProductionEntry) error {
	if err := r.db.WithContext(ctx).Save(entry).Error; err != nil {
		return fmt.Errorf("gorm: save entry (id: %d, form: %d): %w", entry.ID, entry.FormID, err)
	}
	return nil
}

// FindByID 按 ID 查找条目
func (r *GormEntryRepository) FindByID(ctx context.Context, id uint) (*domain.ProductionEntry, error) {
	var entry domain.ProductionEntry
	err := r.db.WithContext(ctx).First(&entry, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrEntryNotFound
		}
		return nil, fmt.Errorf("gorm: find entry by id %d: %w", id, err)
	}
	return &entry, nil
}

// UpdateHourlyData 只更新小时数据列和重算后的总产量，单条记录级别原子
func (r *GormEntryRepository) UpdateHourlyData(ctx context.Context, id uint, hourlyData string, totalOutput int) error {
	result := r.db.WithContext(ctx).Model(&domain.ProductionEntry{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"hourly_data":  hourlyData,
			"total_output": totalOutput,
		})
	if result.Error != nil {
		return fmt.Errorf("gorm: update hourly data for entry %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrEntryNotFound
	}
	return nil
}

// UpdateAttendance 只更新出勤状态列
func (r *GormEntryRepository) UpdateAttendance(ctx context.Context, id uint, status string) error {
	result := r.db.WithContext(ctx).Model(&domain.ProductionEntry{}).
		Where("id = ?", id).
		Update("attendance_status", status)
	if result.Error != nil {
		return fmt.Errorf("gorm: update attendance for entry %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrEntryNotFound
	}
	return nil
}

// ListByForm 列出表单下的所有条目
func (r *GormEntryRepository) ListByForm(ctx context.Context, formID uint) ([]domain.ProductionEntry, error) {
	var entries []domain.ProductionEntry
	err := r.db.WithContext(ctx).
		Where("form_id = ?", formID).
		Order("id asc").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list entries for form %d: %w", formID, err)
	}
	return entries, nil
}
