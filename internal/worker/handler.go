package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/domain"
	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/repository"
	"github.com/nguyenhoangdanh/tbsgroup-be-sub002/internal/tasks"
)

// EventPersistenceHandler 处理生产事件审计记录的持久化任务。
type EventPersistenceHandler struct {
	eventRepo repository.EventLogRepository
}

// NewEventPersistenceHandler 创建 Handler 实例。
func NewEventPersistenceHandler(eventRepo repository.EventLogRepository) *EventPersistenceHandler {
	if eventRepo == nil {
		panic("EventLogRepository cannot be nil for EventPersistenceHandler")
	}
	return &EventPersistenceHandler{eventRepo: eventRepo}
}

// ProcessTask 实现 asynq.Handler 接口。
func (h *EventPersistenceHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	taskID := ""
	if rw := t.ResultWriter(); rw != nil {
		taskID = rw.TaskID()
	}
	currentRetry, _ := asynq.GetRetryCount(ctx)

	logCtx := logrus.WithFields(logrus.Fields{
		"task_id":   taskID,
		"task_type": t.Type(),
		"retry":     currentRetry,
	})
	logCtx.Info("Processing production event persistence task...")

	var payload tasks.ProductionEventPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		logCtx.WithError(err).Error("Failed to unmarshal task payload")
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	events := []domain.ProductionEvent{payload.Event}
	if err := h.eventRepo.SaveBatch(ctx, events); err != nil {
		logCtx.WithError(err).Errorf("Failed to save production event for entry %d", payload.Event.EntryID)
		return fmt.Errorf("failed to save production event for entry %d: %w", payload.Event.EntryID, err)
	}

	logCtx.WithFields(logrus.Fields{
		"entry_id":   payload.Event.EntryID,
		"event_type": payload.Event.EventType,
	}).Info("Production event persisted")
	return nil
}
