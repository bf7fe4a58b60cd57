// Package mocks 提供 repository 接口的 testify Mock 实现，供服务层单元测试使用。
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/domain"
)

// UserRepository 是 repository.UserRepository 的 Mock。
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) Save(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

func (m *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	user, _ := args.Get(0).(*domain.User)
	return user, args.Error(1)
}

// FormRepository 是 repository.FormRepository 的 Mock。
type FormRepository struct {
	mock.Mock
}

func (m *FormRepository) Save(ctx context.Context, form *domain.DigitalForm) error {
	args := m.Called(ctx, form)
	return args.Error(0)
}

func (m *FormRepository) FindByID(ctx context.Context, id uint) (*domain.DigitalForm, error) {
	args := m.Called(ctx, id)
	form, _ := args.Get(0).(*domain.DigitalForm)
	return form, args.Error(1)
}

func (m *FormRepository) FindByIDWithEntries(ctx context.Context, id uint) (*domain.DigitalForm, error) {
	args := m.Called(ctx, id)
	form, _ := args.Get(0).(*domain.DigitalForm)
	return form, args.Error(1)
}

func (m *FormRepository) ListByLineAndDate(ctx context.Context, lineID uint, date time.Time) ([]domain.DigitalForm, error) {
	args := m.Called(ctx, lineID, date)
	forms, _ := args.Get(0).([]domain.DigitalForm)
	return forms, args.Error(1)
}

func (m *FormRepository) UpdateStatus(ctx context.Context, id uint, status domain.FormStatus, approvedBy *uint) error {
	args := m.Called(ctx, id, status, approvedBy)
	return args.Error(0)
}

// EntryRepository 是 repository.EntryRepository 的 Mock。
type EntryRepository struct {
	mock.Mock
}

func (m *EntryRepository) Save(ctx context.Context, entry *domain.ProductionEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *EntryRepository) FindByID(ctx context.Context, id uint) (*domain.ProductionEntry, error) {
	args := m.Called(ctx, id)
	entry, _ := args.Get(0).(*domain.ProductionEntry)
	return entry, args.Error(1)
}

func (m *EntryRepository) UpdateHourlyData(ctx context.Context, id uint, hourlyData string, totalOutput int) error {
	args := m.Called(ctx, id, hourlyData, totalOutput)
	return args.Error(0)
}

func (m *EntryRepository) UpdateAttendance(ctx context.Context, id uint, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *EntryRepository) ListByForm(ctx context.Context, formID uint) ([]domain.ProductionEntry, error) {
	args := m.Called(ctx, formID)
	entries, _ := args.Get(0).([]domain.ProductionEntry)
	return entries, args.Error(1)
}

// IssueRepository 是 repository.IssueRepository 的 Mock。
type IssueRepository struct {
	mock.Mock
}

func (m *IssueRepository) Save(ctx context.Context, issue *domain.ProductionIssue) error {
	args := m.Called(ctx, issue)
	return args.Error(0)
}

func (m *IssueRepository) Delete(ctx context.Context, entryID uint, issueID string) error {
	args := m.Called(ctx, entryID, issueID)
	return args.Error(0)
}

func (m *IssueRepository) ListByEntry(ctx context.Context, entryID uint) ([]domain.ProductionIssue, error) {
	args := m.Called(ctx, entryID)
	issues, _ := args.Get(0).([]domain.ProductionIssue)
	return issues, args.Error(1)
}

// DashboardStateRepository 是 repository.DashboardStateRepository 的 Mock。
type DashboardStateRepository struct {
	mock.Mock
}

func (m *DashboardStateRepository) IncrLineOutput(ctx context.Context, lineID uint, delta int) error {
	args := m.Called(ctx, lineID, delta)
	return args.Error(0)
}

func (m *DashboardStateRepository) GetLineOutput(ctx context.Context, lineID uint) (int64, error) {
	args := m.Called(ctx, lineID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *DashboardStateRepository) SetLineOutput(ctx context.Context, lineID uint, total int64) error {
	args := m.Called(ctx, lineID, total)
	return args.Error(0)
}

func (m *DashboardStateRepository) PublishUpdate(ctx context.Context, path domain.HierarchyPath, payload []byte) error {
	args := m.Called(ctx, path, payload)
	return args.Error(0)
}
