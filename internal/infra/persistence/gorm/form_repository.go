package gormpersistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/domain"
	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/repository"
)

// GormFormRepository 是 FormRepository 接口的 GORM 实现
type GormFormRepository struct {
	db *gorm.DB
}

// NewGormFormRepository 创建 GormFormRepository 实例
func NewGormFormRepository(db *gorm.DB) *GormFormRepository {
	if db == nil {
		panic("database connection cannot be nil for GormFormRepository")
	}
	return &GormFormRepository{db: db}
}

// Save 保存表单（创建或更新）
func (r *GormFormRepository) Save(ctx context.Context, form *domain.DigitalForm) error {
	if err := r.db.WithContext(ctx).Save(form).Error; err != nil {
		return fmt.Errorf("gorm: save form (id: %d): %w", form.ID, err)
	}
	return nil
}

// FindByID 按 ID 查找表单
func (r *GormFormRepository) FindByID(ctx context.Context, id uint) (*domain.DigitalForm, error) {
	var form domain.DigitalForm
	err := r.db.WithContext(ctx).First(&form, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrFormNotFound
		}
		return nil, fmt.Errorf("gorm: find form by id %d: %w", id, err)
	}
	return &form, nil
}

// FindByIDWithEntries 按 ID 查找表单并预加载条目和问题列表
func (r *GormFormRepository) FindByIDWithEntries(ctx context.Context, id uint) (*domain.DigitalForm, error) {
	var form domain.DigitalForm
	err := r.db.WithContext(ctx).
		Preload("Entries").
		Preload("Entries.Issues").
		First(&form, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrFormNotFound
		}
		return nil, fmt.Errorf("gorm: find form with entries by id %d: %w", id, err)
	}
	return &form, nil
}

// ListByLineAndDate 列出某条生产线某天的所有表单
func (r *GormFormRepository) ListByLineAndDate(ctx context.Context, lineID uint, date time.Time) ([]domain.DigitalForm, error) {
	var forms []domain.DigitalForm
	// 按日期的零点对齐，date 列只存日期部分
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	err := r.db.WithContext(ctx).
		Where("line_id = ? AND date = ?", lineID, day).
		Order("created_at asc").
		Find(&forms).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list forms for line %d on %s: %w", lineID, day.Format("2006-01-02"), err)
	}
	return forms, nil
}

// UpdateStatus 持久化表单状态流转
func (r *GormFormRepository) UpdateStatus(ctx context.Context, id uint, status domain.FormStatus, approvedBy *uint) error {
	updates := map[string]interface{}{"status": status}
	if approvedBy != nil {
		updates["approved_by"] = *approvedBy
	}
	result := r.db.WithContext(ctx).Model(&domain.DigitalForm{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("gorm: update form %d status to %s: %w", id, status, result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrFormNotFound
	}
	return nil
}
