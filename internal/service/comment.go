package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/domain"
	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/repository"
)

// CommentService 负责表单评论。
type CommentService struct {
	commentRepo repository.CommentRepository
	formRepo    repository.FormRepository
}

// NewCommentService 创建 CommentService 实例。
func NewCommentService(commentRepo repository.CommentRepository, formRepo repository.FormRepository) *CommentService {
	if commentRepo == nil || formRepo == nil {
		panic("comment and form repositories must be non-nil for CommentService")
	}
	return &CommentService{commentRepo: commentRepo, formRepo: formRepo}
}

// AddComment 在表单上添加一条评论。
func (s *CommentService) AddComment(ctx context.Context, userID, formID uint, content string) (*domain.Comment, error) {
	logCtx := logrus.WithFields(logrus.Fields{"form_id": formID, "user_id": userID})

	if content == "" {
		return nil, fmt.Errorf("comment content is required")
	}
	// 校验表单存在，避免孤儿评论
	if _, err := s.formRepo.FindByID(ctx, formID); err != nil {
		if errors.Is(err, repository.ErrFormNotFound) {
			return nil, ErrFormNotFound
		}
		logCtx.WithError(err).Error("Failed to load form for comment")
		return nil, ErrInternalServer
	}

	comment := &domain.Comment{
		FormID:  formID,
		UserID:  userID,
		Content: content,
	}
	if err := s.commentRepo.Save(ctx, comment); err != nil {
		logCtx.WithError(err).Error("Failed to save comment")
		return nil, ErrInternalServer
	}

	logCtx.WithField("comment_id", comment.ID).Info("Comment added")
	return comment, nil
}

// ListComments 列出表单上的全部评论。
func (s *CommentService) ListComments(ctx context.Context, formID uint) ([]domain.Comment, error) {
	comments, err := s.commentRepo.ListByForm(ctx, formID)
	if err != nil {
		logrus.WithError(err).WithField("form_id", formID).Error("Failed to list comments")
		return nil, ErrInternalServer
	}
	return comments, nil
}

// UpdateComment 修改评论内容。只有评论作者本人可以修改。
func (s *CommentService) UpdateComment(ctx context.Context, userID, commentID uint, content string) (*domain.Comment, error) {
	logCtx := logrus.WithFields(logrus.Fields{"comment_id": commentID, "user_id": userID})

	if content == "" {
		return nil, fmt.Errorf("comment content is required")
	}
	comment, err := s.commentRepo.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCommentNotFound
		}
		logCtx.WithError(err).Error("Failed to load comment")
		return nil, ErrInternalServer
	}
	if comment.UserID != userID {
		return nil, ErrForbidden
	}

	comment.Content = content
	if err := s.commentRepo.Save(ctx, comment); err != nil {
		logCtx.WithError(err).Error("Failed to update comment")
		return nil, ErrInternalServer
	}

	logCtx.Info("Comment updated")
	return comment, nil
}

// DeleteComment 删除评论。只有评论作者本人可以删除。
func (s *CommentService) DeleteComment(ctx context.Context, userID, commentID uint) error {
	logCtx := logrus.WithFields(logrus.Fields{"comment_id": commentID, "user_id": userID})

	comment, err := s.commentRepo.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCommentNotFound
		}
		logCtx.WithError(err).Error("Failed to load comment")
		return ErrInternalServer
	}
	if comment.UserID != userID {
		return ErrForbidden
	}

	if err := s.commentRepo.Delete(ctx, commentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCommentNotFound
		}
		logCtx.WithError(err).Error("Failed to delete comment")
		return ErrInternalServer
	}

	logCtx.Info("Comment deleted")
	return nil
}
