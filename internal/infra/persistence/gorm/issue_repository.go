package gormpersistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/domain"
	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/repository"
)

// GormIssueRepository 是 IssueRepository 接口的 GORM 实现
type GormIssueRepository struct {
	db *gorm.DB
}

// NewGormIssueRepository 创建 GormIssueRepository 实例
func NewGormIssueRepository(db *gorm.DB) *GormIssueRepository {
	if db == nil {
		panic("database connection cannot be nil for GormIssueRepository")
	}
	return &GormIssueRepository{db: db}
}

// Save 保存一个问题记录
func (r *GormIssueRepository) Save(ctx context.Context, issue *domain.ProductionIssue) error {
	err := r.db.WithContext(ctx).Save(issue).Error
	if err != nil {
		if isDuplicateEntryError(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: save issue %s for entry %d: %w", issue.ID, issue.EntryID, err)
	}
	return nil
}

// Delete 删除条目下指定 ID 的问题
func (r *GormIssueRepository) Delete(ctx context.Context, entryID uint, issueID string) error {
	result := r.db.WithContext(ctx).
		Where("entry_id = ? AND id = ?", entryID, issueID).
		Delete(&domain.ProductionIssue{})
	if result.Error != nil {
		return fmt.Errorf("gorm: delete issue %s for entry %d: %w", issueID, entryID, result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrIssueNotFound
	}
	return nil
}

// ListByEntry 列出条目下的所有问题
func (r *GormIssueRepository) ListByEntry(ctx context.Context, entryID uint) ([]domain.ProductionIssue, error) {
	var issues []domain.ProductionIssue
	err := r.db.WithContext(ctx).
		Where("entry_id = ?", entryID).
		Order("created_at asc").
		Find(&issues).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list issues for entry %d: %w", entryID, err)
	}
	return issues, nil
}
