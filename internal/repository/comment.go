package repository

import (
	"context"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/domain"
)

// CommentRepository 定义表单评论的存储和查询。
type CommentRepository interface {
	Save(ctx context.Context, comment *domain.Comment) error
	FindByID(ctx context.Context, id uint) (*domain.Comment, error)
	ListByForm(ctx context.Context, formID uint) ([]domain.Comment, error)
	Delete(ctx context.Context, id uint) error
}
