package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/domain"
	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/repository"
)

// GormPostRepository 是 PostRepository 接口的 GORM 实现
type GormPostRepository struct {
	db *gorm.DB
}

// NewGormPostRepository 创建 GormPostRepository 实例
func NewGormPostRepository(db *gorm.DB) *GormPostRepository {
	if db == nil {
		panic("database connection cannot be nil for GormPostRepository")
	}
	return &GormPostRepository{db: db}
}

func (r *GormPostRepository) Save(ctx context.Context, post *domain.Post) error {
	if err := r.db.WithContext(ctx).Save(post).Error; err != nil {
		return fmt.Errorf("gorm: save post (id: %d): %w", post.ID, err)
	}
	return nil
}

func (r *GormPostRepository) FindByID(ctx context.Context, id uint) (*domain.Post, error) {
	var post domain.Post
	err := r.db.WithContext(ctx).First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrPostNotFound
		}
		return nil, fmt.Errorf("gorm: find post by id %d: %w", id, err)
	}
	return &post, nil
}

func (r *GormPostRepository) List(ctx context.Context, limit, offset int) ([]domain.Post, error) {
	var posts []domain.Post
	err := r.db.WithContext(ctx).
		Order("created_at desc").
		Limit(limit).Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list posts: %w", err)
	}
	return posts, nil
}

// AddLike 插入一条点赞记录，重复点赞映射为 ErrDuplicateEntry
func (r *GormPostRepository) AddLike(ctx context.Context, postID, userID uint) error {
	like := domain.PostLike{PostID: postID, UserID: userID}
	err := r.db.WithContext(ctx).Create(&like).Error
	if err != nil {
		if isDuplicateEntryError(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: add like (post %d, user %d): %w", postID, userID, err)
	}
	return nil
}

func (r *GormPostRepository) RemoveLike(ctx context.Context, postID, userID uint) error {
	result := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&domain.PostLike{})
	if result.Error != nil {
		return fmt.Errorf("gorm: remove like (post %d, user %d): %w", postID, userID, result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *GormPostRepository) CountLikes(ctx context.Context, postID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.PostLike{}).
		Where("post_id = ?", postID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("gorm: count likes for post %d: %w", postID, err)
	}
	return count, nil
}

// AddSave 插入一条收藏记录，重复收藏映射为 ErrDuplicateEntry
func (r *GormPostRepository) AddSave(ctx context.Context, postID, userID uint) error {
	save := domain.PostSave{PostID: postID, UserID: userID}
	err := r.db.WithContext(ctx).Create(&save).Error
	if err != nil {
		if isDuplicateEntryError(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: add save (post %d, user %d): %w", postID, userID, err)
	}
	return nil
}

func (r *GormPostRepository) RemoveSave(ctx context.Context, postID, userID uint) error {
	result := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&domain.PostSave{})
	if result.Error != nil {
		return fmt.Errorf("gorm: remove save (post %d, user %d): %w", postID, userID, result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *GormPostRepository) ListSavedByUser(ctx context.Context, userID uint) ([]domain.Post, error) {
	var posts []domain.Post
	err := r.db.WithContext(ctx).
		Joins("JOIN post_saves ON post_saves.post_id = posts.id").
		Where("post_saves.user_id = ?", userID).
		Order("post_saves.created_at desc").
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list saved posts for user %d: %w", userID, err)
	}
	return posts, nil
}
