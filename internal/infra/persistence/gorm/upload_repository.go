package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/domain"
	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/repository"
)

// GormUploadRepository 是 UploadRepository 接口的 GORM 实现
type GormUploadRepository struct {
	db *gorm.DB
}

// NewGormUploadRepository 创建 GormUploadRepository 实例
func NewGormUploadRepository(db *gorm.DB) *GormUploadRepository {
	if db == nil {
		panic("database connection cannot be nil for GormUploadRepository")
	}
	return &GormUploadRepository{db: db}
}

func (r *GormUploadRepository) Save(ctx context.Context, upload *domain.Upload) error {
	if err := r.db.WithContext(ctx).Save(upload).Error; err != nil {
		return fmt.Errorf("gorm: save upload (file: %s): %w", upload.FileName, err)
	}
	return nil
}

func (r *GormUploadRepository) FindByID(ctx context.Context, id uint) (*domain.Upload, error) {
	var upload domain.Upload
	err := r.db.WithContext(ctx).First(&upload, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUploadNotFound
		}
		return nil, fmt.Errorf("gorm: find upload by id %d: %w", id, err)
	}
	return &upload, nil
}

func (r *GormUploadRepository) ListByUploader(ctx context.Context, uploaderID uint) ([]domain.Upload, error) {
	var uploads []domain.Upload
	err := r.db.WithContext(ctx).
		Where("uploader_id = ?", uploaderID).
		Order("created_at desc").
		Find(&uploads).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list uploads for user %d: %w", uploaderID, err)
	}
	return uploads, nil
}
