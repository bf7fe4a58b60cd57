package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/domain"
	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/repository"
	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/repository/mocks"
	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/service"
)

// recordingBroadcaster 记录所有扇出调用，供断言使用。
type recordingBroadcaster struct {
	mu         sync.Mutex
	broadcasts []broadcastCall
}

type broadcastCall struct {
	Path    domain.HierarchyPath
	Level   string
	ID      uint
	Event   string
	Payload map[string]interface{}
}

func (r *recordingBroadcaster) BroadcastHierarchical(path domain.HierarchyPath, event string, payload map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcasts = append(r.broadcasts, broadcastCall{Path: path, Event: event, Payload: payload})
}

func (r *recordingBroadcaster) BroadcastToLevel(level string, id uint, event string, payload map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcasts = append(r.broadcasts, broadcastCall{Level: level, ID: id, Event: event, Payload: payload})
}

func (r *recordingBroadcaster) calls() []broadcastCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]broadcastCall(nil), r.broadcasts...)
}

// noopEnqueuer 吞掉所有任务入队。
type noopEnqueuer struct{}

func (noopEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	return &asynq.TaskInfo{}, nil
}

func testForm() *domain.DigitalForm {
	return &domain.DigitalForm{
		ID:        1,
		FactoryID: 1,
		LineID:    2,
		TeamID:    3,
		GroupID:   4,
		Status:    domain.FormStatusDraft,
	}
}

func testEntry(t *testing.T, hours domain.HourMap) *domain.ProductionEntry {
	t.Helper()
	entry := &domain.ProductionEntry{
		ID:               15,
		FormID:           1,
		WorkerID:         8,
		AttendanceStatus: domain.AttendancePresent,
	}
	require.NoError(t, entry.SetHourlyData(hours))
	return entry
}

func newAggregatorFixture() (*mocks.EntryRepository, *mocks.FormRepository, *mocks.IssueRepository, *recordingBroadcaster, *service.Aggregator) {
	entryRepo := new(mocks.EntryRepository)
	formRepo := new(mocks.FormRepository)
	issueRepo := new(mocks.IssueRepository)
	broadcaster := &recordingBroadcaster{}
	agg := service.NewAggregator(entryRepo, formRepo, issueRepo, nil, broadcaster, noopEnqueuer{})
	return entryRepo, formRepo, issueRepo, broadcaster, agg
}

// --- RecordHour ---

func TestAggregator_RecordHour_Success(t *testing.T) {
	entryRepo, formRepo, _, broadcaster, agg := newAggregatorFixture()
	ctx := context.Background()

	entryRepo.On("FindByID", ctx, uint(15)).Return(testEntry(t, domain.HourMap{}), nil).Once()
	formRepo.On("FindByID", ctx, uint(1)).Return(testForm(), nil).Once()
	entryRepo.On("UpdateHourlyData", ctx, uint(15), mock.AnythingOfType("string"), 50).Return(nil).Once()

	entry, err := agg.RecordHour(ctx, 99, service.RecordHourInput{
		EntryID: 15,
		Hour:    3,
		Output:  50,
	})
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 50, entry.TotalOutput)

	hours, err := entry.ParseHourlyData()
	require.NoError(t, err)
	assert.Equal(t, 50, hours[3].Output)

	calls := broadcaster.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, service.EventProductionUpdate, calls[0].Event)
	assert.Equal(t, domain.HierarchyPath{FactoryID: 1, LineID: 2, TeamID: 3, GroupID: 4}, calls[0].Path)
	assert.Equal(t, 50, calls[0].Payload["totalOutput"])

	entryRepo.AssertExpectations(t)
	formRepo.AssertExpectations(t)
}

func TestAggregator_RecordHour_TotalsAccumulateAcrossHours(t *testing.T) {
	entryRepo, formRepo, _, broadcaster, agg := newAggregatorFixture()
	ctx := context.Background()

	entry := testEntry(t, domain.HourMap{})
	entryRepo.On("FindByID", ctx, uint(15)).Return(entry, nil).Twice()
	formRepo.On("FindByID", ctx, uint(1)).Return(testForm(), nil).Twice()
	entryRepo.On("UpdateHourlyData", ctx, uint(15), mock.AnythingOfType("string"), 50).Return(nil).Once()
	entryRepo.On("UpdateHourlyData", ctx, uint(15), mock.AnythingOfType("string"), 80).Return(nil).Once()

	_, err := agg.RecordHour(ctx, 99, service.RecordHourInput{EntryID: 15, Hour: 1, Output: 50})
	require.NoError(t, err)
	updated, err := agg.RecordHour(ctx, 99, service.RecordHourInput{EntryID: 15, Hour: 2, Output: 30})
	require.NoError(t, err)

	assert.Equal(t, 80, updated.TotalOutput, "总产量应是所有小时产量之和")
	assert.Len(t, broadcaster.calls(), 2, "每次成功录入各触发一次扇出")
	entryRepo.AssertExpectations(t)
}

func TestAggregator_RecordHour_OverwriteSameHour(t *testing.T) {
	entryRepo, formRepo, _, _, agg := newAggregatorFixture()
	ctx := context.Background()

	entry := testEntry(t, domain.HourMap{5: {Output: 40, Notes: "initial"}})
	entryRepo.On("FindByID", ctx, uint(15)).Return(entry, nil).Once()
	formRepo.On("FindByID", ctx, uint(1)).Return(testForm(), nil).Once()
	entryRepo.On("UpdateHourlyData", ctx, uint(15), mock.AnythingOfType("string"), 60).Return(nil).Once()

	updated, err := agg.RecordHour(ctx, 99, service.RecordHourInput{EntryID: 15, Hour: 5, Output: 60})
	require.NoError(t, err)

	hours, err := updated.ParseHourlyData()
	require.NoError(t, err)
	assert.Equal(t, 60, hours[5].Output, "同一小时的重复录入应整体覆盖")
	assert.Empty(t, hours[5].Notes, "覆盖是整条记录级别的")
	assert.Equal(t, 60, updated.TotalOutput)
}

func TestAggregator_RecordHour_InvalidHour(t *testing.T) {
	entryRepo, _, _, broadcaster, agg := newAggregatorFixture()
	ctx := context.Background()

	for _, hour := range []int{0, 13, -1, 24} {
		_, err := agg.RecordHour(ctx, 99, service.RecordHourInput{EntryID: 15, Hour: hour, Output: 10})
		require.Error(t, err, "hour=%d 应被拒绝", hour)
		assert.ErrorIs(t, err, service.ErrInvalidHour)
	}

	assert.Empty(t, broadcaster.calls(), "校验失败时不应有任何广播")
	entryRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestAggregator_RecordHour_EntryLocked(t *testing.T) {
	entryRepo, formRepo, _, broadcaster, agg := newAggregatorFixture()
	ctx := context.Background()

	entry := testEntry(t, domain.HourMap{1: {Output: 10}})
	confirmedForm := testForm()
	confirmedForm.Status = domain.FormStatusConfirmed

	entryRepo.On("FindByID", ctx, uint(15)).Return(entry, nil).Once()
	formRepo.On("FindByID", ctx, uint(1)).Return(confirmedForm, nil).Once()

	_, err := agg.RecordHour(ctx, 99, service.RecordHourInput{EntryID: 15, Hour: 2, Output: 30})
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrEntryLocked)

	// 变更被整体拒绝：小时映射不变，无持久化，无广播
	hours, parseErr := entry.ParseHourlyData()
	require.NoError(t, parseErr)
	assert.Len(t, hours, 1)
	assert.Equal(t, 10, hours[1].Output)
	entryRepo.AssertNotCalled(t, "UpdateHourlyData", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, broadcaster.calls())
}

func TestAggregator_RecordHour_EntryNotFound(t *testing.T) {
	entryRepo, _, _, broadcaster, agg := newAggregatorFixture()
	ctx := context.Background()

	entryRepo.On("FindByID", ctx, uint(404)).Return(nil, repository.ErrEntryNotFound).Once()

	_, err := agg.RecordHour(ctx, 99, service.RecordHourInput{EntryID: 404, Hour: 1, Output: 10})
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrEntryNotFound)
	assert.Empty(t, broadcaster.calls())
}

func TestAggregator_RecordHour_PersistFailureNoBroadcast(t *testing.T) {
	entryRepo, formRepo, _, broadcaster, agg := newAggregatorFixture()
	ctx := context.Background()

	entryRepo.On("FindByID", ctx, uint(15)).Return(testEntry(t, domain.HourMap{}), nil).Once()
	formRepo.On("FindByID", ctx, uint(1)).Return(testForm(), nil).Once()
	entryRepo.On("UpdateHourlyData", ctx, uint(15), mock.AnythingOfType("string"), 50).
		Return(errors.New("db connection lost")).Once()

	_, err := agg.RecordHour(ctx, 99, service.RecordHourInput{EntryID: 15, Hour: 3, Output: 50})
	require.Error(t, err)
	assert.Empty(t, broadcaster.calls(), "持久化失败时不应有广播")
}

// --- AddIssue / RemoveIssue ---

func TestAggregator_AddIssue_Success(t *testing.T) {
	entryRepo, formRepo, issueRepo, broadcaster, agg := newAggregatorFixture()
	ctx := context.Background()

	entryRepo.On("FindByID", ctx, uint(15)).Return(testEntry(t, domain.HourMap{}), nil).Once()
	formRepo.On("FindByID", ctx, uint(1)).Return(testForm(), nil).Once()
	issueRepo.On("Save", ctx, mock.MatchedBy(func(issue *domain.ProductionIssue) bool {
		assert.NotEmpty(t, issue.ID, "问题应分配不透明标识")
		assert.Equal(t, uint(15), issue.EntryID)
		return true
	})).Return(nil).Once()

	issue, err := agg.AddIssue(ctx, 99, service.AddIssueInput{
		EntryID:     15,
		Type:        "MACHINE_DOWN",
		Hour:        4,
		Impact:      0.5,
		Description: "sewing machine jammed",
	})
	require.NoError(t, err)
	require.NotNil(t, issue)
	assert.NotEmpty(t, issue.ID)

	calls := broadcaster.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, service.EventDashboardUpdate, calls[0].Event)
	assert.Equal(t, service.DashboardTypeIssueUpdate, calls[0].Payload["type"])
	issueRepo.AssertExpectations(t)
}

func TestAggregator_AddIssue_InvalidHour(t *testing.T) {
	_, _, issueRepo, broadcaster, agg := newAggregatorFixture()

	_, err := agg.AddIssue(context.Background(), 99, service.AddIssueInput{EntryID: 15, Type: "X", Hour: 0})
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrInvalidHour)
	issueRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	assert.Empty(t, broadcaster.calls())
}

func TestAggregator_RemoveIssue_Success(t *testing.T) {
	entryRepo, formRepo, issueRepo, broadcaster, agg := newAggregatorFixture()
	ctx := context.Background()

	entryRepo.On("FindByID", ctx, uint(15)).Return(testEntry(t, domain.HourMap{}), nil).Once()
	formRepo.On("FindByID", ctx, uint(1)).Return(testForm(), nil).Once()
	issueRepo.On("Delete", ctx, uint(15), "issue-uuid").Return(nil).Once()

	err := agg.RemoveIssue(ctx, 99, 15, "issue-uuid")
	require.NoError(t, err)
	require.Len(t, broadcaster.calls(), 1)
	issueRepo.AssertExpectations(t)
}

func TestAggregator_RemoveIssue_NotFound(t *testing.T) {
	entryRepo, formRepo, issueRepo, broadcaster, agg := newAggregatorFixture()
	ctx := context.Background()

	entryRepo.On("FindByID", ctx, uint(15)).Return(testEntry(t, domain.HourMap{}), nil).Once()
	formRepo.On("FindByID", ctx, uint(1)).Return(testForm(), nil).Once()
	issueRepo.On("Delete", ctx, uint(15), "ghost").Return(repository.ErrIssueNotFound).Once()

	err := agg.RemoveIssue(ctx, 99, 15, "ghost")
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrIssueNotFound)
	assert.Empty(t, broadcaster.calls())
}

// --- UpdateAttendanceStatus ---

func TestAggregator_UpdateAttendance_Success(t *testing.T) {
	entryRepo, formRepo, _, broadcaster, agg := newAggregatorFixture()
	ctx := context.Background()

	entryRepo.On("FindByID", ctx, uint(15)).Return(testEntry(t, domain.HourMap{}), nil).Once()
	formRepo.On("FindByID", ctx, uint(1)).Return(testForm(), nil).Once()
	entryRepo.On("UpdateAttendance", ctx, uint(15), domain.AttendanceLate).Return(nil).Once()

	entry, err := agg.UpdateAttendanceStatus(ctx, 99, 15, domain.AttendanceLate)
	require.NoError(t, err)
	assert.Equal(t, domain.AttendanceLate, entry.AttendanceStatus)

	calls := broadcaster.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, service.EventDashboardUpdate, calls[0].Event)
	assert.Equal(t, service.DashboardTypeAttendanceUpdate, calls[0].Payload["type"])
}

func TestAggregator_UpdateAttendance_InvalidStatus(t *testing.T) {
	entryRepo, _, _, broadcaster, agg := newAggregatorFixture()

	_, err := agg.UpdateAttendanceStatus(context.Background(), 99, 15, "VACATION")
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrInvalidAttendance)
	entryRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	assert.Empty(t, broadcaster.calls())
}

func TestAggregator_UpdateAttendance_LockedForm(t *testing.T) {
	entryRepo, formRepo, _, broadcaster, agg := newAggregatorFixture()
	ctx := context.Background()

	confirmedForm := testForm()
	confirmedForm.Status = domain.FormStatusConfirmed
	entryRepo.On("FindByID", ctx, uint(15)).Return(testEntry(t, domain.HourMap{}), nil).Once()
	formRepo.On("FindByID", ctx, uint(1)).Return(confirmedForm, nil).Once()

	_, err := agg.UpdateAttendanceStatus(ctx, 99, 15, domain.AttendanceAbsent)
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrEntryLocked)
	entryRepo.AssertNotCalled(t, "UpdateAttendance", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, broadcaster.calls())
}
