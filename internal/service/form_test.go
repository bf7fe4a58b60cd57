package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/domain"
	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/repository"
	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/repository/mocks"
	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/service"
)

func newFormServiceFixture() (*mocks.FormRepository, *mocks.EntryRepository, *recordingBroadcaster, *service.FormService) {
	formRepo := new(mocks.FormRepository)
	entryRepo := new(mocks.EntryRepository)
	broadcaster := &recordingBroadcaster{}
	svc := service.NewFormService(formRepo, entryRepo, broadcaster)
	return formRepo, entryRepo, broadcaster, svc
}

func TestFormService_CreateForm_DefaultsToDraft(t *testing.T) {
	formRepo, _, _, svc := newFormServiceFixture()
	ctx := context.Background()

	formRepo.On("Save", ctx, mock.MatchedBy(func(form *domain.DigitalForm) bool {
		assert.Equal(t, domain.FormStatusDraft, form.Status, "新表单应为 DRAFT")
		assert.Equal(t, "REGULAR", form.ShiftType)
		assert.Equal(t, uint(77), form.CreatedBy)
		return true
	})).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.DigitalForm).ID = 10
		}).
		Return(nil).Once()

	form, err := svc.CreateForm(ctx, 77, service.CreateFormInput{
		FactoryID: 1, LineID: 2, TeamID: 3, GroupID: 4,
		Date: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, uint(10), form.ID)
	formRepo.AssertExpectations(t)
}

func TestFormService_CreateForm_RequiresFullPath(t *testing.T) {
	formRepo, _, _, svc := newFormServiceFixture()

	_, err := svc.CreateForm(context.Background(), 77, service.CreateFormInput{
		FactoryID: 1, LineID: 2, TeamID: 0, GroupID: 4,
	})
	require.Error(t, err, "路径层级不完整时应拒绝创建")
	formRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestFormService_Transition_ValidFlow(t *testing.T) {
	// DRAFT -> PENDING -> APPROVED -> CONFIRMED 全链路
	steps := []struct {
		from domain.FormStatus
		to   domain.FormStatus
	}{
		{domain.FormStatusDraft, domain.FormStatusPending},
		{domain.FormStatusPending, domain.FormStatusApproved},
		{domain.FormStatusApproved, domain.FormStatusConfirmed},
	}

	for _, step := range steps {
		formRepo, _, broadcaster, svc := newFormServiceFixture()
		ctx := context.Background()

		form := testForm()
		form.Status = step.from
		formRepo.On("FindByID", ctx, uint(1)).Return(form, nil).Once()
		formRepo.On("UpdateStatus", ctx, uint(1), step.to, mock.Anything).Return(nil).Once()

		updated, err := svc.TransitionStatus(ctx, 1, 88, step.to)
		require.NoError(t, err, "%s -> %s 应是合法流转", step.from, step.to)
		assert.Equal(t, step.to, updated.Status)

		calls := broadcaster.calls()
		require.Len(t, calls, 1, "状态流转应触发一次 formStatusUpdate 广播")
		assert.Equal(t, service.EventFormStatusUpdate, calls[0].Event)
		assert.Equal(t, "line", calls[0].Level)
		assert.Equal(t, form.LineID, calls[0].ID)
	}
}

func TestFormService_Transition_RejectedFlow(t *testing.T) {
	formRepo, _, _, svc := newFormServiceFixture()
	ctx := context.Background()

	form := testForm()
	form.Status = domain.FormStatusPending
	formRepo.On("FindByID", ctx, uint(1)).Return(form, nil).Once()
	formRepo.On("UpdateStatus", ctx, uint(1), domain.FormStatusRejected, mock.MatchedBy(func(approvedBy *uint) bool {
		return approvedBy != nil && *approvedBy == 88
	})).Return(nil).Once()

	updated, err := svc.TransitionStatus(ctx, 1, 88, domain.FormStatusRejected)
	require.NoError(t, err)
	require.NotNil(t, updated.ApprovedBy, "审批驳回时应记录审批者")
	assert.Equal(t, uint(88), *updated.ApprovedBy)
}

func TestFormService_Transition_InvalidJump(t *testing.T) {
	invalid := []struct {
		from domain.FormStatus
		to   domain.FormStatus
	}{
		{domain.FormStatusDraft, domain.FormStatusApproved},
		{domain.FormStatusDraft, domain.FormStatusConfirmed},
		{domain.FormStatusConfirmed, domain.FormStatusDraft},
		{domain.FormStatusConfirmed, domain.FormStatusPending},
		{domain.FormStatusApproved, domain.FormStatusPending},
	}

	for _, step := range invalid {
		formRepo, _, broadcaster, svc := newFormServiceFixture()
		ctx := context.Background()

		form := testForm()
		form.Status = step.from
		formRepo.On("FindByID", ctx, uint(1)).Return(form, nil).Once()

		_, err := svc.TransitionStatus(ctx, 1, 88, step.to)
		require.Error(t, err, "%s -> %s 应被拒绝", step.from, step.to)
		assert.ErrorIs(t, err, service.ErrInvalidTransition)
		assert.Empty(t, broadcaster.calls(), "非法流转不应有广播")
		formRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	}
}

func TestFormService_Transition_FormNotFound(t *testing.T) {
	formRepo, _, _, svc := newFormServiceFixture()
	ctx := context.Background()

	formRepo.On("FindByID", ctx, uint(404)).Return(nil, repository.ErrFormNotFound).Once()

	_, err := svc.TransitionStatus(ctx, 404, 88, domain.FormStatusPending)
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrFormNotFound)
}

func TestFormService_CreateEntry_LockedForm(t *testing.T) {
	formRepo, entryRepo, _, svc := newFormServiceFixture()
	ctx := context.Background()

	form := testForm()
	form.Status = domain.FormStatusConfirmed
	formRepo.On("FindByID", ctx, uint(1)).Return(form, nil).Once()

	_, err := svc.CreateEntry(ctx, 1, service.CreateEntryInput{
		WorkerID: 8, HandBagID: 1, BagColorID: 1, ProcessID: 1,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrEntryLocked)
	entryRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestFormService_CreateEntry_Success(t *testing.T) {
	formRepo, entryRepo, _, svc := newFormServiceFixture()
	ctx := context.Background()

	formRepo.On("FindByID", ctx, uint(1)).Return(testForm(), nil).Once()
	entryRepo.On("Save", ctx, mock.MatchedBy(func(entry *domain.ProductionEntry) bool {
		assert.Equal(t, uint(1), entry.FormID)
		assert.Equal(t, domain.AttendancePresent, entry.AttendanceStatus)
		assert.Equal(t, 0, entry.TotalOutput)
		return true
	})).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.ProductionEntry).ID = 15
		}).
		Return(nil).Once()

	entry, err := svc.CreateEntry(ctx, 1, service.CreateEntryInput{
		WorkerID: 8, HandBagID: 2, BagColorID: 3, ProcessID: 4, PlannedOutput: 600,
	})
	require.NoError(t, err)
	assert.Equal(t, uint(15), entry.ID)

	hours, err := entry.ParseHourlyData()
	require.NoError(t, err)
	assert.Empty(t, hours, "新条目的小时映射应为空")
}
