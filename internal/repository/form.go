package repository

import (
	"context"
	"time"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/domain"
)

// FormRepository 定义数字表单的存储和查询。
type FormRepository interface {
	// Save 保存表单 (新建或更新)。
	Save(ctx context.Context, form *domain.DigitalForm) error

	// FindByID 按 ID 查找表单，不存在时返回 ErrFormNotFound。
	FindByID(ctx context.Context, id uint) (*domain.DigitalForm, error)

	// FindByIDWithEntries 按 ID 查找表单并预加载条目及其问题列表。
	FindByIDWithEntries(ctx context.Context, id uint) (*domain.DigitalForm, error)

	// ListByLineAndDate 列出某条生产线某天的所有表单。
	ListByLineAndDate(ctx context.Context, lineID uint, date time.Time) ([]domain.DigitalForm, error)

	// UpdateStatus 持久化表单的状态流转。
	UpdateStatus(ctx context.Context, id uint, status domain.FormStatus, approvedBy *uint) error
}
