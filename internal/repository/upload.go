package repository

import (
	"context"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/domain"
)

// UploadRepository 定义上传记录的存储。
type UploadRepository interface {
	Save(ctx context.Context, upload *domain.Upload) error
	FindByID(ctx context.Context, id uint) (*domain.Upload, error)
	ListByUploader(ctx context.Context, uploaderID uint) ([]domain.Upload, error)
}
