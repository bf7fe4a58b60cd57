package repository

import (
	"context"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/domain"
)

// UserRepository 定义用户的存储和查询。
type UserRepository interface {
	// Save 保存用户，用户名冲突时返回 ErrDuplicateEntry。
	Save(ctx context.Context, user *domain.User) error

	// FindByID 按 ID 查找用户，不存在时返回 ErrUserNotFound。
	FindByID(ctx context.Context, id uint) (*domain.User, error)

	// FindByUsername 按用户名查找用户，不存在时返回 ErrUserNotFound。
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
}
