package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/domain"
	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/repository"
)

// PostService 负责车间公告帖子及点赞/收藏。
// 点赞和收藏是集合语义：重复操作幂等吸收，不报错。
type PostService struct {
	postRepo repository.PostRepository
}

// NewPostService 创建 PostService 实例。
func NewPostService(postRepo repository.PostRepository) *PostService {
	if postRepo == nil {
		panic("PostRepository cannot be nil for PostService")
	}
	return &PostService{postRepo: postRepo}
}

// CreatePost 发布一篇帖子。
func (s *PostService) CreatePost(ctx context.Context, authorID uint, title, content string) (*domain.Post, error) {
	logCtx := logrus.WithField("user_id", authorID)

	if title == "" || content == "" {
		return nil, fmt.Errorf("post title and content are required")
	}

	post := &domain.Post{
		AuthorID: authorID,
		Title:    title,
		Content:  content,
	}
	if err := s.postRepo.Save(ctx, post); err != nil {
		logCtx.WithError(err).Error("Failed to save post")
		return nil, ErrInternalServer
	}

	logCtx.WithField("post_id", post.ID).Info("Post created")
	return post, nil
}

// GetPost 获取帖子及其点赞数。
func (s *PostService) GetPost(ctx context.Context, postID uint) (*domain.Post, int64, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, 0, ErrPostNotFound
		}
		logrus.WithError(err).WithField("post_id", postID).Error("Failed to load post")
		return nil, 0, ErrInternalServer
	}
	likes, err := s.postRepo.CountLikes(ctx, postID)
	if err != nil {
		logrus.WithError(err).WithField("post_id", postID).Warn("Failed to count likes")
		likes = 0
	}
	return post, likes, nil
}

// ListPosts 分页列出帖子，按创建时间倒序。
func (s *PostService) ListPosts(ctx context.Context, limit, offset int) ([]domain.Post, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	posts, err := s.postRepo.List(ctx, limit, offset)
	if err != nil {
		logrus.WithError(err).Error("Failed to list posts")
		return nil, ErrInternalServer
	}
	return posts, nil
}

// LikePost 点赞帖子。重复点赞幂等成功。
func (s *PostService) LikePost(ctx context.Context, userID, postID uint) error {
	if err := s.ensurePostExists(ctx, postID); err != nil {
		return err
	}
	if err := s.postRepo.AddLike(ctx, postID, userID); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil // 已点过赞
		}
		logrus.WithError(err).WithFields(logrus.Fields{"post_id": postID, "user_id": userID}).Error("Failed to add like")
		return ErrInternalServer
	}
	return nil
}

// UnlikePost 取消点赞。未点过赞时幂等成功。
func (s *PostService) UnlikePost(ctx context.Context, userID, postID uint) error {
	if err := s.postRepo.RemoveLike(ctx, postID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		logrus.WithError(err).WithFields(logrus.Fields{"post_id": postID, "user_id": userID}).Error("Failed to remove like")
		return ErrInternalServer
	}
	return nil
}

// SavePost 收藏帖子。重复收藏幂等成功。
func (s *PostService) SavePost(ctx context.Context, userID, postID uint) error {
	if err := s.ensurePostExists(ctx, postID); err != nil {
		return err
	}
	if err := s.postRepo.AddSave(ctx, postID, userID); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil
		}
		logrus.WithError(err).WithFields(logrus.Fields{"post_id": postID, "user_id": userID}).Error("Failed to save post")
		return ErrInternalServer
	}
	return nil
}

// UnsavePost 取消收藏。未收藏时幂等成功。
func (s *PostService) UnsavePost(ctx context.Context, userID, postID uint) error {
	if err := s.postRepo.RemoveSave(ctx, postID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		logrus.WithError(err).WithFields(logrus.Fields{"post_id": postID, "user_id": userID}).Error("Failed to unsave post")
		return ErrInternalServer
	}
	return nil
}

// ListSavedPosts 列出用户收藏的帖子。
func (s *PostService) ListSavedPosts(ctx context.Context, userID uint) ([]domain.Post, error) {
	posts, err := s.postRepo.ListSavedByUser(ctx, userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to list saved posts")
		return nil, ErrInternalServer
	}
	return posts, nil
}

func (s *PostService) ensurePostExists(ctx context.Context, postID uint) error {
	if _, err := s.postRepo.FindByID(ctx, postID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPostNotFound
		}
		return ErrInternalServer
	}
	return nil
}
