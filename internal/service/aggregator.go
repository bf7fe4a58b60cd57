package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/domain"
	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/repository"
	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/tasks"
)

// 聚合器触发的出站事件名
const (
	EventProductionUpdate = "productionUpdate"
	EventDashboardUpdate  = "dashboardUpdate"
)

// dashboardUpdate 负载里的 type 字段取值
const (
	DashboardTypeIssueUpdate      = "issueUpdate"
	DashboardTypeAttendanceUpdate = "attendanceUpdate"
)

// ProductionBroadcaster 是聚合器向实时层扇出的出口。
// 网关的 Broadcaster 实现它；测试里用记录型替身。
type ProductionBroadcaster interface {
	// BroadcastHierarchical 对路径中每个非空层级的房间发送打了 {level,id} 标记的事件。
	BroadcastHierarchical(path domain.HierarchyPath, event string, payload map[string]interface{})
	// BroadcastToLevel 向单个 "{level}:{id}" 房间发送事件。
	BroadcastToLevel(level string, id uint, event string, payload map[string]interface{})
}

// TaskEnqueuer 抽象 asynq 客户端的入队操作，便于测试。
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// RecordHourInput 是 recordHour 操作的输入。
type RecordHourInput struct {
	EntryID          uint   `json:"entryId"`
	Hour             int    `json:"hour"`
	Output           int    `json:"output"`
	QualityIssues    int    `json:"qualityIssues"`
	Notes            string `json:"notes"`
	AttendanceStatus string `json:"attendanceStatus"` // 可选，为空表示不变
}

// AddIssueInput 是 addIssue 操作的输入。
type AddIssueInput struct {
	EntryID     uint    `json:"entryId"`
	Type        string  `json:"type"`
	Hour        int     `json:"hour"`
	Impact      float64 `json:"impact"`
	Description string  `json:"description"`
}

// Aggregator 是小时数据聚合器：把每小时的生产录入合并进条目的
// 小时映射，重算总产量，持久化后沿条目的层级路径触发广播。
// 所有操作遵循 门槛检查 -> 变更 -> 持久化 -> 广播 的顺序；
// 变更失败时整体拒绝，不发出任何广播。
type Aggregator struct {
	entryRepo   repository.EntryRepository
	formRepo    repository.FormRepository
	issueRepo   repository.IssueRepository
	stateRepo   repository.DashboardStateRepository
	broadcaster ProductionBroadcaster
	enqueuer    TaskEnqueuer
}

// NewAggregator 创建聚合器实例。stateRepo 和 enqueuer 是尽力而为的
// 辅助通道，允许为 nil (例如测试环境)；其余依赖必须非空。
func NewAggregator(
	entryRepo repository.EntryRepository,
	formRepo repository.FormRepository,
	issueRepo repository.IssueRepository,
	stateRepo repository.DashboardStateRepository,
	broadcaster ProductionBroadcaster,
	enqueuer TaskEnqueuer,
) *Aggregator {
	if entryRepo == nil || formRepo == nil || issueRepo == nil {
		panic("entry, form and issue repositories must be non-nil for Aggregator")
	}
	if broadcaster == nil {
		panic("ProductionBroadcaster cannot be nil for Aggregator")
	}
	return &Aggregator{
		entryRepo:   entryRepo,
		formRepo:    formRepo,
		issueRepo:   issueRepo,
		stateRepo:   stateRepo,
		broadcaster: broadcaster,
		enqueuer:    enqueuer,
	}
}

// RecordHour 把某个小时的录入合并进条目。
//
// 小时粒度采用 last-write-wins：两个并发写同一条目同一小时会丢失
// 其中一个写入。这是沿用原始行为的已知竞态，没有按条目串行化；
// 读写之间另一小时的并发写入同样可能交错，由持久化层的单条记录
// 原子性兜底。
func (a *Aggregator) RecordHour(ctx context.Context, userID uint, in RecordHourInput) (*domain.ProductionEntry, error) {
	logCtx := logrus.WithFields(logrus.Fields{
		"entry_id": in.EntryID,
		"hour":     in.Hour,
		"user_id":  userID,
	})

	if in.Hour < domain.MinHour || in.Hour > domain.MaxHour {
		return nil, ErrInvalidHour
	}
	if in.AttendanceStatus != "" && !validAttendance(in.AttendanceStatus) {
		return nil, ErrInvalidAttendance
	}

	entry, form, err := a.loadUnlockedEntry(ctx, in.EntryID, logCtx)
	if err != nil {
		return nil, err
	}

	hours, err := entry.ParseHourlyData()
	if err != nil {
		logCtx.WithError(err).Error("Failed to parse hourly data")
		return nil, ErrInternalServer
	}
	previous := hours[in.Hour].Output
	hours[in.Hour] = domain.HourRecord{
		Output:        in.Output,
		QualityIssues: in.QualityIssues,
		Notes:         in.Notes,
	}
	if err := entry.SetHourlyData(hours); err != nil {
		logCtx.WithError(err).Error("Failed to serialize hourly data")
		return nil, ErrInternalServer
	}

	if err := a.entryRepo.UpdateHourlyData(ctx, entry.ID, entry.HourlyData, entry.TotalOutput); err != nil {
		if errors.Is(err, repository.ErrEntryNotFound) {
			return nil, ErrEntryNotFound
		}
		logCtx.WithError(err).Error("Failed to persist hourly data")
		return nil, fmt.Errorf("persist hourly data: %w", err)
	}
	if in.AttendanceStatus != "" && in.AttendanceStatus != entry.AttendanceStatus {
		entry.AttendanceStatus = in.AttendanceStatus
		if err := a.entryRepo.UpdateAttendance(ctx, entry.ID, in.AttendanceStatus); err != nil {
			// 小时数据已写入，出勤更新失败只记录
			logCtx.WithError(err).Error("Failed to persist attendance status")
		}
	}

	// 变更已落库，才开始广播和辅助通道
	payload := map[string]interface{}{
		"entryId":       entry.ID,
		"formId":        entry.FormID,
		"workerId":      entry.WorkerID,
		"hour":          in.Hour,
		"output":        in.Output,
		"qualityIssues": in.QualityIssues,
		"totalOutput":   entry.TotalOutput,
	}
	a.broadcaster.BroadcastHierarchical(form.Path(), EventProductionUpdate, payload)

	a.updateSideChannels(ctx, form, payload, in.Output-previous, logCtx)
	a.enqueueEvent(domain.ProductionEvent{
		EntryID:     entry.ID,
		UserID:      userID,
		EventType:   domain.EventTypeHourRecorded,
		Hour:        in.Hour,
		Output:      in.Output,
		TotalOutput: entry.TotalOutput,
	}, form.LineID, logCtx)

	logCtx.WithField("total_output", entry.TotalOutput).Info("Hour recorded")
	return entry, nil
}

// AddIssue 在条目上登记一个生产问题并广播 dashboardUpdate。
func (a *Aggregator) AddIssue(ctx context.Context, userID uint, in AddIssueInput) (*domain.ProductionIssue, error) {
	logCtx := logrus.WithFields(logrus.Fields{
		"entry_id": in.EntryID,
		"user_id":  userID,
	})

	if in.Hour < domain.MinHour || in.Hour > domain.MaxHour {
		return nil, ErrInvalidHour
	}

	entry, form, err := a.loadUnlockedEntry(ctx, in.EntryID, logCtx)
	if err != nil {
		return nil, err
	}

	issue := &domain.ProductionIssue{
		ID:          uuid.NewString(), // 调用方可见的不透明标识
		EntryID:     entry.ID,
		Type:        in.Type,
		Hour:        in.Hour,
		Impact:      in.Impact,
		Description: in.Description,
	}
	if err := a.issueRepo.Save(ctx, issue); err != nil {
		logCtx.WithError(err).Error("Failed to persist issue")
		return nil, fmt.Errorf("persist issue: %w", err)
	}

	a.broadcastDashboard(form, DashboardTypeIssueUpdate, map[string]interface{}{
		"entryId": entry.ID,
		"issue":   issue,
		"action":  "added",
	})
	a.enqueueEvent(domain.ProductionEvent{
		EntryID:   entry.ID,
		UserID:    userID,
		EventType: domain.EventTypeIssueAdded,
		Hour:      in.Hour,
		Detail:    issueDetail(issue),
	}, form.LineID, logCtx)

	logCtx.WithField("issue_id", issue.ID).Info("Issue added")
	return issue, nil
}

// RemoveIssue 删除条目上的一个问题并广播 dashboardUpdate。
func (a *Aggregator) RemoveIssue(ctx context.Context, userID uint, entryID uint, issueID string) error {
	logCtx := logrus.WithFields(logrus.Fields{
		"entry_id": entryID,
		"issue_id": issueID,
		"user_id":  userID,
	})

	entry, form, err := a.loadUnlockedEntry(ctx, entryID, logCtx)
	if err != nil {
		return err
	}

	if err := a.issueRepo.Delete(ctx, entry.ID, issueID); err != nil {
		if errors.Is(err, repository.ErrIssueNotFound) {
			return ErrIssueNotFound
		}
		logCtx.WithError(err).Error("Failed to delete issue")
		return fmt.Errorf("delete issue: %w", err)
	}

	a.broadcastDashboard(form, DashboardTypeIssueUpdate, map[string]interface{}{
		"entryId": entry.ID,
		"issueId": issueID,
		"action":  "removed",
	})
	a.enqueueEvent(domain.ProductionEvent{
		EntryID:   entry.ID,
		UserID:    userID,
		EventType: domain.EventTypeIssueRemoved,
		Detail:    fmt.Sprintf(`{"issueId":%q}`, issueID),
	}, form.LineID, logCtx)

	logCtx.Info("Issue removed")
	return nil
}

// UpdateAttendanceStatus 更新条目的出勤状态并广播 dashboardUpdate。
func (a *Aggregator) UpdateAttendanceStatus(ctx context.Context, userID uint, entryID uint, status string) (*domain.ProductionEntry, error) {
	logCtx := logrus.WithFields(logrus.Fields{
		"entry_id": entryID,
		"status":   status,
		"user_id":  userID,
	})

	if !validAttendance(status) {
		return nil, ErrInvalidAttendance
	}

	entry, form, err := a.loadUnlockedEntry(ctx, entryID, logCtx)
	if err != nil {
		return nil, err
	}

	if err := a.entryRepo.UpdateAttendance(ctx, entry.ID, status); err != nil {
		if errors.Is(err, repository.ErrEntryNotFound) {
			return nil, ErrEntryNotFound
		}
		logCtx.WithError(err).Error("Failed to persist attendance status")
		return nil, fmt.Errorf("persist attendance: %w", err)
	}
	entry.AttendanceStatus = status

	a.broadcastDashboard(form, DashboardTypeAttendanceUpdate, map[string]interface{}{
		"entryId":          entry.ID,
		"workerId":         entry.WorkerID,
		"attendanceStatus": status,
	})
	a.enqueueEvent(domain.ProductionEvent{
		EntryID:   entry.ID,
		UserID:    userID,
		EventType: domain.EventTypeAttendanceUpdate,
		Detail:    fmt.Sprintf(`{"status":%q}`, status),
	}, form.LineID, logCtx)

	logCtx.Info("Attendance status updated")
	return entry, nil
}

// --- 私有辅助函数 ---

// loadUnlockedEntry 加载条目和父表单，并执行确认锁检查。
// 表单进入 CONFIRMED 终态后条目不再可变更。
func (a *Aggregator) loadUnlockedEntry(ctx context.Context, entryID uint, logCtx *logrus.Entry) (*domain.ProductionEntry, *domain.DigitalForm, error) {
	entry, err := a.entryRepo.FindByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, repository.ErrEntryNotFound) {
			return nil, nil, ErrEntryNotFound
		}
		logCtx.WithError(err).Error("Failed to load entry")
		return nil, nil, fmt.Errorf("load entry: %w", err)
	}

	form, err := a.formRepo.FindByID(ctx, entry.FormID)
	if err != nil {
		if errors.Is(err, repository.ErrFormNotFound) {
			logCtx.Warn("Entry references a missing form")
			return nil, nil, ErrEntryNotFound
		}
		logCtx.WithError(err).Error("Failed to load parent form")
		return nil, nil, fmt.Errorf("load form: %w", err)
	}
	if form.Status.IsTerminal() {
		return nil, nil, ErrEntryLocked
	}
	return entry, form, nil
}

// broadcastDashboard 发出 dashboardUpdate 事件，负载带 type 字段。
func (a *Aggregator) broadcastDashboard(form *domain.DigitalForm, updateType string, data map[string]interface{}) {
	a.broadcaster.BroadcastHierarchical(form.Path(), EventDashboardUpdate, map[string]interface{}{
		"type": updateType,
		"data": data,
	})
}

// updateSideChannels 维护看板缓存并发布 Pub/Sub 更新。
// 失败只记录日志，不影响已完成的变更和本实例广播。
func (a *Aggregator) updateSideChannels(ctx context.Context, form *domain.DigitalForm, payload map[string]interface{}, outputDelta int, logCtx *logrus.Entry) {
	if a.stateRepo == nil {
		return
	}
	if outputDelta != 0 {
		if err := a.stateRepo.IncrLineOutput(ctx, form.LineID, outputDelta); err != nil {
			logCtx.WithError(err).Warn("Failed to update dashboard line total")
		}
	}
	if raw, err := json.Marshal(payload); err == nil {
		if err := a.stateRepo.PublishUpdate(ctx, form.Path(), raw); err != nil {
			logCtx.WithError(err).Warn("Failed to publish production update")
		}
	}
}

// enqueueEvent 把审计事件投递到后台队列。失败只记录日志。
func (a *Aggregator) enqueueEvent(event domain.ProductionEvent, lineID uint, logCtx *logrus.Entry) {
	if a.enqueuer == nil {
		return
	}
	payload, err := tasks.NewProductionEventPayload(event, lineID)
	if err != nil {
		logCtx.WithError(err).Error("Failed to marshal production event payload")
		return
	}
	task := asynq.NewTask(tasks.TypeProductionEventPersist, payload)
	if _, err := a.enqueuer.Enqueue(task, asynq.Queue("default")); err != nil {
		logCtx.WithError(err).Warn("Failed to enqueue production event task")
	}
}

func validAttendance(status string) bool {
	switch status {
	case domain.AttendancePresent, domain.AttendanceAbsent, domain.AttendanceLate, domain.AttendanceLeave:
		return true
	}
	return false
}

func issueDetail(issue *domain.ProductionIssue) string {
	detail, err := json.Marshal(issue)
	if err != nil {
		return ""
	}
	return string(detail)
}
