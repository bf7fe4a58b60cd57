package repository

import (
	"context"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/domain"
)

// PostRepository 定义帖子及点赞/收藏的存储。
// 点赞和收藏是集合语义：重复添加返回 ErrDuplicateEntry，由服务层吸收为幂等。
type PostRepository interface {
	Save(ctx context.Context, post *domain.Post) error
	FindByID(ctx context.Context, id uint) (*domain.Post, error)
	List(ctx context.Context, limit, offset int) ([]domain.Post, error)

	AddLike(ctx context.Context, postID, userID uint) error
	RemoveLike(ctx context.Context, postID, userID uint) error
	CountLikes(ctx context.Context, postID uint) (int64, error)

	AddSave(ctx context.Context, postID, userID uint) error
	RemoveSave(ctx context.Context, postID, userID uint) error
	ListSavedByUser(ctx context.Context, userID uint) ([]domain.Post, error)
}
